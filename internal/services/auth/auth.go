// Package services содержит логику регистрации, входа и проверки JWT.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/broadband-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/password"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
	"github.com/magabrotheeeer/broadband-portal/internal/storage"
)

var (
	// ErrUserExists имя пользователя занято.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials неверное имя пользователя или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken токен не прошел проверку.
	ErrInvalidToken = errors.New("invalid token")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, username string) (*models.User, error)
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	now      func() time.Time
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register создает абонента с ролью user и возвращает его uid.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	const op = "auth.Register"
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		UID:          uuid.NewString(),
		Username:     req.Username,
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hashed,
		Role:         models.RoleUser,
		CreatedAt:    s.now(),
	}
	err = s.users.CreateUser(ctx, user)
	if errors.Is(err, storage.ErrUserExists) {
		return "", ErrUserExists
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return user.UID, nil
}

// Login проверяет пароль пользователя и возвращает подписанный JWT и роль.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	const op = "auth.Login"
	user, err := s.users.GetUser(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", ErrInvalidCredentials
	}
	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role, user.UID)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, user.Role, nil
}

// ValidateToken проверяет JWT и сверяет claims с текущей записью пользователя:
// удаленная или пересозданная учетная запись теряет доступ, роль берется из базы.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	const op = "auth.ValidateToken"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	user, err := s.users.GetUser(ctx, claims.Username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %s no longer exists", ErrInvalidToken, claims.Username)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims.UserUID != "" && user.UID != claims.UserUID {
		return nil, fmt.Errorf("%w: account %s was recreated", ErrInvalidToken, claims.Username)
	}
	return &models.User{
		Username: user.Username,
		Role:     user.Role,
		UID:      user.UID,
	}, nil
}
