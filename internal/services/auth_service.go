package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dormhub/dormitory-service/internal/auth"
	"github.com/dormhub/dormitory-service/internal/events"
	"github.com/dormhub/dormitory-service/internal/mailer"
	"github.com/dormhub/dormitory-service/internal/models"
	"github.com/dormhub/dormitory-service/internal/repositories"
	"github.com/dormhub/dormitory-service/internal/validator"
)

const (
	// Fixed bcrypt work factor for all password writes
	bcryptCost = 10

	// Reset tokens: 32 random bytes, hex-encoded to 64 characters,
	// valid for one hour from issuance
	resetTokenBytes = 32
	resetTokenTTL   = time.Hour
)

// AuthConfig carries the auth-specific settings from the environment
type AuthConfig struct {
	JWTSecret   string
	JWTTTL      time.Duration
	FrontendURL string
}

type authService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	config    AuthConfig
	mailer    mailer.Mailer
	publisher events.EventPublisher
}

func NewAuthService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, config AuthConfig, mailer mailer.Mailer, publisher events.EventPublisher) AuthService {
	return &authService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		config:    config,
		mailer:    mailer,
		publisher: publisher,
	}
}

// ===== CREDENTIAL VALIDATION =====

func (s *authService) Validate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Same error as a wrong password so the caller cannot tell
			// whether the email exists
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	user, err := s.Validate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	// Reload with profile relations for the login payload
	full, err := s.repo.User().GetByIDWithProfile(ctx, nil, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	}

	token, err := auth.NewAccessToken(s.config.JWTSecret, s.config.JWTTTL, full)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", full.ID, "role", full.Role)
	s.publishEvent(ctx, events.NewEvent(events.EventUserLoggedIn, events.UserLoggedInData{
		UserID: full.ID,
		Email:  full.Email,
		Role:   string(full.Role),
	}))

	return &LoginResponse{
		Token:   token,
		User:    full,
		Profile: full.Profile(),
	}, nil
}

// ===== PASSWORD CHANGE =====

func (s *authService) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return errs
	}

	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	// Note: no strength validation on the new password here
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.User().UpdatePassword(ctx, nil, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("Password changed", "user_id", userID)
	s.publishEvent(ctx, events.NewEvent(events.EventPasswordChanged, events.PasswordChangedData{
		UserID: userID,
		Email:  user.Email,
		Method: "change",
	}))

	return nil
}

// ===== PASSWORD RESET FLOW =====

func (s *authService) RequestReset(ctx context.Context, email string) error {
	user, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Deliberate: the response is identical for unknown emails,
			// only the server-side log differs
			s.logger.Warn("Password reset requested for unknown email", "email", email)
			return nil
		}
		s.logger.Error("Password reset lookup failed", "error", err)
		return ErrInternal
	}

	token, err := generateResetToken()
	if err != nil {
		s.logger.Error("Failed to generate reset token", "error", err)
		return ErrInternal
	}

	expiry := time.Now().Add(resetTokenTTL)
	if err := s.repo.User().SetResetToken(ctx, nil, user.ID, token, expiry); err != nil {
		s.logger.Error("Failed to store reset token", "error", err, "user_id", user.ID)
		return ErrInternal
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.config.FrontendURL, token)
	if err := s.mailer.SendResetEmail(ctx, user.Email, resetURL); err != nil {
		// The token is already stored; delivery failure must not leak
		// through the anti-enumeration response
		s.logger.Error("Failed to send reset email", "error", err, "user_id", user.ID)
	}

	s.logger.Info("Password reset token issued", "user_id", user.ID)
	s.publishEvent(ctx, events.NewEvent(events.EventPasswordResetRequested, events.PasswordResetRequestedData{
		UserID: user.ID,
		Email:  user.Email,
	}))

	return nil
}

func (s *authService) ConsumeReset(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return ErrBadRequest
	}

	// Wrong, consumed and expired tokens are indistinguishable: the
	// compound predicate matches none of them
	user, err := s.repo.User().GetByValidResetToken(ctx, nil, token, time.Now())
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// New hash and both token columns go out in one UPDATE, so a
	// consumed token can never be replayed
	if err := s.repo.User().ResetPasswordAndClearToken(ctx, nil, user.ID, string(hash)); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	s.logger.Info("Password reset completed", "user_id", user.ID)
	s.publishEvent(ctx, events.NewEvent(events.EventPasswordChanged, events.PasswordChangedData{
		UserID: user.ID,
		Email:  user.Email,
		Method: "reset",
	}))

	return nil
}

// ===== HELPERS =====

func generateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *authService) publishEvent(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.TopicAuthEvents, event); err != nil {
		s.logger.Error("Failed to publish auth event", "error", err, "event_type", event.Type)
	}
}
