package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"schedule-go/internal/config"
	"schedule-go/internal/events"
	"schedule-go/internal/models"
	"schedule-go/internal/storage"
	"schedule-go/internal/storage/memory"
	"schedule-go/internal/validation"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Hour, JWTIssuer: "schedule-go"}
}

func mustUser(t *testing.T, store storage.Store, email string) *models.User {
	t.Helper()
	user, err := NewAuthService(store, testAuthConfig(), nil).CreateUser(context.Background(), email, "test123", UserFields{})
	require.NoError(t, err)
	return user
}

// fieldErrors returns the field map of a *validation.Error or fails the test.
func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *validation.Error
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Fields
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.FriendshipEvent
	err    error
}

func (p *recordingPublisher) PublishFriendship(_ context.Context, e events.FriendshipEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

// failingStore makes Schedules().Create fail inside and outside transactions.
type failingStore struct {
	storage.Store
	err error
}

func (f *failingStore) Schedules() storage.ScheduleRepository {
	return failingSchedules{ScheduleRepository: f.Store.Schedules(), err: f.err}
}

func (f *failingStore) Transaction(ctx context.Context, fn func(tx storage.Store) error) error {
	return f.Store.Transaction(ctx, func(tx storage.Store) error {
		return fn(&failingStore{Store: tx, err: f.err})
	})
}

type failingSchedules struct {
	storage.ScheduleRepository
	err error
}

func (f failingSchedules) Create(context.Context, *models.Schedule) error { return f.err }

func newMemoryStore() storage.Store { return memory.NewStore() }
