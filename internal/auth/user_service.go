package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pandeptwidyaop/simple404/internal/db/models"
	pkgerrors "github.com/pandeptwidyaop/simple404/pkg/errors"
	"github.com/pandeptwidyaop/simple404/pkg/logger"
	"github.com/pandeptwidyaop/simple404/pkg/utils"
)

// UserService manages admin accounts.
type UserService struct {
	db   *gorm.DB
	totp *TOTPService
}

// NewUserService creates a new user service.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:   db,
		totp: NewTOTPService(),
	}
}

// Authenticate checks username, password and, when the account has TOTP
// enabled, the one-time code. Unknown users, inactive users and wrong
// passwords all return ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password, code string) (*models.User, error) {
	user, err := s.FindByUsername(ctx, username)
	if errors.Is(err, pkgerrors.ErrUserNotFound) {
		return nil, pkgerrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !user.IsActive || !utils.ComparePassword(user.Password, password) {
		return nil, pkgerrors.ErrInvalidCredentials
	}

	if user.TOTPEnabled {
		code = strings.TrimSpace(code)
		if code == "" {
			return nil, pkgerrors.ErrTOTPRequired
		}
		if !s.totp.ValidateCodeWithWindow(user.TOTPSecret, code, 1) {
			return nil, pkgerrors.ErrInvalidCredentials
		}
	}

	return user, nil
}

// FindByUsername loads a user.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrUserNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query user")
	}
	return &user, nil
}

// Create adds a new active user.
func (s *UserService) Create(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}
	if !role.Valid() {
		return nil, pkgerrors.ErrInvalidRole
	}

	if _, err := s.FindByUsername(ctx, username); err == nil {
		return nil, pkgerrors.ErrUserExists
	} else if !errors.Is(err, pkgerrors.ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to hash password")
	}

	user := &models.User{
		Username: username,
		Password: hashedPassword,
		Role:     role,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create user")
	}

	return user, nil
}

// EnableTOTP stores a fresh TOTP secret for the user and returns the
// otpauth:// URL to enroll an authenticator app.
func (s *UserService) EnableTOTP(ctx context.Context, username, issuer string) (string, error) {
	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	secret, url, err := s.totp.GenerateSecret(issuer, user.Username)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"totp_secret":  secret,
		"totp_enabled": true,
	}).Error
	if err != nil {
		return "", pkgerrors.Wrap(err, "failed to save TOTP secret")
	}

	return url, nil
}

// EnsureAdmin creates the configured administrator, or updates its password
// when the configured one no longer matches.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	user, err := s.FindByUsername(ctx, username)
	if errors.Is(err, pkgerrors.ErrUserNotFound) {
		if _, err := s.Create(ctx, username, password, models.RoleAdministrator); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		logger.InfoEvent().
			Str("username", username).
			Msg("Created admin user from config")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}

	if utils.ComparePassword(user.Password, password) {
		return nil
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password", hashedPassword).Error; err != nil {
		return fmt.Errorf("failed to update admin password: %w", err)
	}

	logger.InfoEvent().
		Str("username", username).
		Msg("Updated admin password from config")
	return nil
}
