package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/roadwatch/internal/logger"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
)

// StaffCredentials — учётная запись сотрудника из конфигурации.
type StaffCredentials struct {
	Username     string
	PasswordHash string
}

// AuthService проверяет учётные данные сотрудников и выдаёт токены.
type AuthService struct {
	staff        StaffCredentials
	tokenManager *TokenManager
}

func NewAuthService(staff StaffCredentials, tokenManager *TokenManager) *AuthService {
	return &AuthService{staff: staff, tokenManager: tokenManager}
}

// HashPassword возвращает bcrypt-хеш для STAFF_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
	}
	return string(hash), nil
}

// Login проверяет имя и пароль. Если хеш не настроен, вход запрещён.
func (s *AuthService) Login(_ context.Context, username, password string) (*AccessToken, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.Validation(
			apperror.Field("username", "username and password are required"),
		)
	}
	if s.staff.PasswordHash == "" {
		logger.Log.Warn("auth service: STAFF_PASSWORD_HASH не задан, вход сотрудников отключён")
		return nil, apperror.ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.staff.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(s.staff.PasswordHash), []byte(password))
	if !userOK || passErr != nil {
		logger.Log.WithField("username", username).Warn("auth service: неудачная попытка входа")
		return nil, apperror.ErrInvalidCredentials
	}

	token, err := s.tokenManager.Issue(username, RoleStaff)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось выпустить токен: %w", err)
	}
	return token, nil
}
