package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"schedule-go/internal/auth"
	"schedule-go/internal/config"
	"schedule-go/internal/models"
	"schedule-go/internal/storage"
	"schedule-go/internal/validation"
)

// UserFields lists the optional attributes accepted when creating a user.
type UserFields struct {
	Name      string `json:"name" validate:"max=255"`
	FirstName string `json:"first_name" validate:"max=255"`
	LastName  string `json:"last_name" validate:"max=255"`
	// IsActive defaults to true when nil.
	IsActive *bool `json:"-"`
	IsStaff  bool  `json:"-"`
}

// AuthService 定义了用户认证服务的接口。
type AuthService interface {
	// CreateUser stores a new user with a bcrypt hash of password. An empty
	// password leaves the account without a usable password.
	CreateUser(ctx context.Context, email, password string, fields UserFields) (*models.User, error)
	CreateSuperuser(ctx context.Context, email, password string) (*models.User, error)
	SetPassword(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (token string, user *models.User, err error)
	// Authenticate resolves a bearer token to an active user.
	Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

// authService 是 AuthService 的实现。
type authService struct {
	store     storage.Store
	authCfg   config.AuthConfig
	blacklist auth.TokenBlacklist
}

// NewAuthService 创建一个新的 AuthService 实例。blacklist 可以为 nil。
func NewAuthService(store storage.Store, authCfg config.AuthConfig, blacklist auth.TokenBlacklist) AuthService {
	return &authService{
		store:     store,
		authCfg:   authCfg,
		blacklist: blacklist,
	}
}

// NormalizeEmail trims whitespace and lowercases the domain part; the local
// part keeps its case.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

func validateEmail(field, email string) error {
	if email == "" {
		return validation.NewError(field, field+" is required")
	}
	if err := validation.Validate.Var(email, "email,max=255"); err != nil {
		return validation.NewError(field, field+" must be a valid email address")
	}
	return nil
}

func (s *authService) CreateUser(ctx context.Context, email, password string, fields UserFields) (*models.User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail("email", email); err != nil {
		return nil, err
	}
	if err := validation.Struct(fields); err != nil {
		return nil, err
	}

	passwordHash := auth.UnusablePassword
	if password != "" {
		hashed, err := auth.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("密码哈希失败: %w", err)
		}
		passwordHash = hashed
	}

	isActive := true
	if fields.IsActive != nil {
		isActive = *fields.IsActive
	}
	newUser := &models.User{
		Email:        email,
		Name:         fields.Name,
		FirstName:    fields.FirstName,
		LastName:     fields.LastName,
		IsActive:     isActive,
		IsStaff:      fields.IsStaff,
		PasswordHash: passwordHash,
	}

	if err := s.store.Users().Create(ctx, newUser); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	newUser.FavoriteLocations = []models.Location{}
	return newUser, nil
}

func (s *authService) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	var created *models.User
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		txAuth := &authService{store: tx, authCfg: s.authCfg}
		user, err := txAuth.CreateUser(ctx, email, password, UserFields{IsStaff: true})
		if err != nil {
			return err
		}
		user.IsSuperuser = true
		if err := tx.Users().Update(ctx, user); err != nil {
			return fmt.Errorf("授予超级用户权限失败: %w", err)
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *authService) SetPassword(ctx context.Context, email, password string) error {
	if password == "" {
		return validation.NewError("password", "password is required")
	}
	user, err := s.store.Users().GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("查找用户失败: %w", err)
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("密码哈希失败: %w", err)
	}
	user.PasswordHash = hashed
	return s.store.Users().Update(ctx, user)
}

// Login 校验邮箱和密码并签发 JWT。
func (s *authService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.store.Users().GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("通过邮箱查找用户失败: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, ErrUserInactive
	}

	token, _, err := auth.GenerateToken(user.ID, user.Email, s.authCfg)
	if err != nil {
		return "", nil, fmt.Errorf("生成令牌失败: %w", err)
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.store.Users().Update(ctx, user); err != nil {
		return "", nil, fmt.Errorf("更新登录时间失败: %w", err)
	}
	return token, user, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	claims, err := auth.ValidateToken(ctx, token, s.authCfg, s.blacklist)
	if err != nil {
		if errors.Is(err, auth.ErrTokenInvalid) || errors.Is(err, auth.ErrTokenRevoked) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}
	user, err := s.store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, fmt.Errorf("加载用户 %d 失败: %w", claims.UserID, err)
	}
	if !user.IsActive {
		return nil, nil, ErrUnauthenticated
	}
	return user, claims, nil
}

// Logout 把 Token 的 jti 加入黑名单直到其过期。
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.blacklist == nil {
		return nil
	}
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrUnauthenticated
	}
	if err := s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("吊销令牌失败: %w", err)
	}
	return nil
}
