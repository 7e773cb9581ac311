package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule-go/internal/auth"
	"schedule-go/internal/config"
	"schedule-go/internal/services"
	"schedule-go/internal/storage"
	"schedule-go/internal/storage/memory"
)

type testAPI struct {
	t       *testing.T
	store   storage.Store
	auth    services.AuthService
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.NewStore()
	authCfg := config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Hour, JWTIssuer: "schedule-go"}
	authService := services.NewAuthService(store, authCfg, auth.NewMemoryTokenBlacklist())
	handler := NewRouter(Services{
		Auth:        authService,
		Users:       services.NewUserService(store),
		Locations:   services.NewLocationService(store),
		Schedules:   services.NewScheduleService(store),
		Friendships: services.NewFriendshipService(store, nil),
	}, RouterOptions{})
	return &testAPI{t: t, store: store, auth: authService, handler: handler}
}

// do sends body (marshalled unless it is a string) and decodes the response
// into out when out is non-nil.
func (a *testAPI) do(method, path, token string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

// login registers email through the API and returns a bearer token.
func (a *testAPI) login(email string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/user/create/", "", map[string]string{"email": email, "password": "test123"}, nil)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp TokenResponse
	rec = a.do(http.MethodPost, "/api/user/token/", "", map[string]string{"email": email, "password": "test123"}, &resp)
	require.Equal(a.t, http.StatusOK, rec.Code)
	require.NotEmpty(a.t, resp.Token)
	return resp.Token
}

type lessonJSON struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Room      string `json:"room"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Day       string `json:"day"`
}

type scheduleJSON struct {
	ID      uint         `json:"id"`
	Name    string       `json:"name"`
	Lessons []lessonJSON `json:"lessons"`
}

const samplePayload = `{
	"name": "Sample schedule",
	"lessons": [
		{"name": "Lesson1", "room": "Room1", "start_time": "09:15", "end_time": "10:15", "day": "MON"},
		{"name": "Lesson2", "room": "Room2", "start_time": "10:15", "end_time": "11:15", "day": "MON"}
	]
}`

func TestScheduleScenario(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("user@example.com")

	var created scheduleJSON
	rec := api.do(http.MethodPost, "/api/schedule/schedules/", token, samplePayload, &created)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, created.Lessons, 2)

	var got scheduleJSON
	rec = api.do(http.MethodGet, "/api/schedule/schedules/"+itoa(created.ID)+"/", token, nil, &got)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sample schedule", got.Name)
	require.Len(t, got.Lessons, 2)
	assert.Equal(t, lessonJSON{ID: got.Lessons[0].ID, Name: "Lesson1", Room: "Room1", StartTime: "09:15", EndTime: "10:15", Day: "MON"}, got.Lessons[0])
	assert.Equal(t, lessonJSON{ID: got.Lessons[1].ID, Name: "Lesson2", Room: "Room2", StartTime: "10:15", EndTime: "11:15", Day: "MON"}, got.Lessons[1])

	var list []scheduleJSON
	rec = api.do(http.MethodGet, "/api/schedule/schedules", token, nil, &list)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	var lessons []lessonJSON
	rec = api.do(http.MethodGet, "/api/schedule/lessons/", token, nil, &lessons)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, lessons, 2)
	rec = api.do(http.MethodGet, "/api/schedule/lessons/"+itoa(lessons[1].ID)+"/", token, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// 第二个课表
	rec = api.do(http.MethodPost, "/api/schedule/schedules/", token, samplePayload, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestScheduleValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("user@example.com")

	var body ValidationErrorResponse
	rec := api.do(http.MethodPost, "/api/schedule/schedules/", token, `{
		"name": "Broken",
		"lessons": [
			{"name": "L1", "room": "R", "start_time": "09:00", "end_time": "10:00", "day": "MON"},
			{"name": "L2", "room": "R", "start_time": "09:00", "end_time": "10:00", "day": "XYZ"}
		]
	}`, &body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid payload", body.Error)
	assert.Contains(t, body.Fields, "lessons[1].day")

	rec = api.do(http.MethodPost, "/api/schedule/schedules/", token, `{"name": 5}`, &body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body.Fields, "name")

	rec = api.do(http.MethodPost, "/api/schedule/schedules/", token, `{"name":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var list []scheduleJSON
	api.do(http.MethodGet, "/api/schedule/schedules/", token, nil, &list)
	assert.Empty(t, list)
}

func TestScheduleUpdateAndDelete(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("user@example.com")

	var created scheduleJSON
	api.do(http.MethodPost, "/api/schedule/schedules/", token, samplePayload, &created)
	path := "/api/schedule/schedules/" + itoa(created.ID) + "/"

	var patched scheduleJSON
	rec := api.do(http.MethodPatch, path, token, map[string]string{"name": "Renamed"}, &patched)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", patched.Name)
	assert.Equal(t, created.Lessons, patched.Lessons)

	rec = api.do(http.MethodPut, path, token, map[string]string{"name": "No lessons"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var replaced scheduleJSON
	rec = api.do(http.MethodPut, path, token, `{"name":"Week B","lessons":[{"name":"Lab","room":"B2","start_time":"14:00","end_time":"16:00","day":"fri"}]}`, &replaced)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, replaced.Lessons, 1)
	assert.Equal(t, "FRI", replaced.Lessons[0].Day)

	rec = api.do(http.MethodDelete, path, token, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	rec = api.do(http.MethodDelete, path, token, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSchedulesAreScopedToCaller(t *testing.T) {
	api := newTestAPI(t)
	alice := api.login("alice@example.com")
	bob := api.login("bob@example.com")

	var created scheduleJSON
	api.do(http.MethodPost, "/api/schedule/schedules/", alice, samplePayload, &created)
	path := "/api/schedule/schedules/" + itoa(created.ID) + "/"

	var list []scheduleJSON
	api.do(http.MethodGet, "/api/schedule/schedules/", bob, nil, &list)
	assert.Empty(t, list)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, bob, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPatch, path, bob, map[string]string{"name": "x"}, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, bob, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/schedule/lessons/"+itoa(created.Lessons[0].ID), bob, nil, nil).Code)
}

func TestAuthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	var verr ValidationErrorResponse
	rec := api.do(http.MethodPost, "/api/user/create/", "", map[string]string{"password": "test123"}, &verr)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, verr.Fields, "email")

	token := api.login("user@example.com")

	rec = api.do(http.MethodPost, "/api/user/create/", "", map[string]string{"email": "user@example.com", "password": "test123"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/user/token/", "", map[string]string{"email": "user@example.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/schedule/schedules/", "", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/schedule/schedules/", "garbage", nil, nil).Code)

	var me map[string]interface{}
	rec = api.do(http.MethodGet, "/api/user/me/", token, nil, &me)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user@example.com", me["email"])
	assert.NotContains(t, me, "password_hash")
	assert.NotContains(t, me, "PasswordHash")

	rec = api.do(http.MethodPost, "/api/user/logout/", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/user/me/", token, nil, nil).Code)
}

func TestProfileEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("user@example.com")

	var me struct {
		Name              string `json:"name"`
		FavoriteLocations []struct {
			ID uint `json:"id"`
		} `json:"favorite_locations"`
	}
	rec := api.do(http.MethodPatch, "/api/user/me/", token, map[string]string{"name": "Ann"}, &me)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ann", me.Name)

	// 普通用户不能创建地点
	rec = api.do(http.MethodPost, "/api/location/locations/", token, map[string]string{"name": "Library"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodDelete, "/api/user/me/", token, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/user/me/", token, nil, nil).Code)
}

func TestLocationEndpoints(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	_, err := api.auth.CreateSuperuser(ctx, "admin@example.com", "test123")
	require.NoError(t, err)
	var resp TokenResponse
	api.do(http.MethodPost, "/api/user/token/", "", map[string]string{"email": "admin@example.com", "password": "test123"}, &resp)

	var loc struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	rec := api.do(http.MethodPost, "/api/location/locations/", resp.Token, map[string]string{"name": "Library"}, &loc)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Library", loc.Name)
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/location/locations/", resp.Token, map[string]string{"name": "Library"}, nil).Code)

	user := api.login("user@example.com")
	var me struct {
		FavoriteLocations []struct {
			ID uint `json:"id"`
		} `json:"favorite_locations"`
	}
	rec = api.do(http.MethodPatch, "/api/user/me/", user, map[string][]uint{"favorite_locations": {loc.ID}}, &me)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, me.FavoriteLocations, 1)
	assert.Equal(t, loc.ID, me.FavoriteLocations[0].ID)
}

func TestFriendshipEndpoints(t *testing.T) {
	api := newTestAPI(t)
	alice := api.login("alice@example.com")
	bob := api.login("bob@example.com")
	carol := api.login("carol@example.com")

	var link struct {
		ID          uint   `json:"id"`
		UserEmail   string `json:"user_email"`
		FriendEmail string `json:"friend_email"`
		IsApproved  bool   `json:"is_approved"`
	}
	rec := api.do(http.MethodPost, "/api/friendship/friends/", alice, map[string]string{"friend_email": "bob@example.com"}, &link)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "alice@example.com", link.UserEmail)
	assert.Equal(t, "bob@example.com", link.FriendEmail)
	assert.False(t, link.IsApproved)

	path := "/api/friendship/friends/" + itoa(link.ID) + "/"

	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/friendship/friends/", bob, map[string]string{"friend_email": "alice@example.com"}, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/friendship/friends/", carol, map[string]string{"user_email": "alice@example.com", "friend_email": "bob@example.com"}, nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/api/friendship/friends/", carol, map[string]string{"friend_email": "nobody@example.com"}, nil).Code)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, carol, nil, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPatch, path, alice, map[string]bool{"is_approved": true}, nil).Code)

	rec = api.do(http.MethodPatch, path, bob, map[string]bool{"is_approved": true}, &link)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, link.IsApproved)

	var links []map[string]interface{}
	api.do(http.MethodGet, "/api/friendship/friends/?approved=true", alice, nil, &links)
	assert.Len(t, links, 1)
	api.do(http.MethodGet, "/api/friendship/friends/?approved=false", alice, nil, &links)
	assert.Empty(t, links)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/friendship/friends/?approved=maybe", alice, nil, nil).Code)

	api.do(http.MethodGet, "/api/friendship/friends/", carol, nil, &links)
	assert.Empty(t, links)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, alice, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, alice, nil, nil).Code)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/nope", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
