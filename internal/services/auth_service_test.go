package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dormhub/dormitory-service/internal/events"
	"github.com/dormhub/dormitory-service/internal/mailer"
	"github.com/dormhub/dormitory-service/internal/models"
	"github.com/dormhub/dormitory-service/internal/repositories"
	"github.com/dormhub/dormitory-service/internal/validator"
)

// ===== IN-MEMORY REPOSITORY =====

// fakeUserRepository keeps users in a map and mirrors the store-level
// guarantees of the postgres implementation (compound token predicate,
// single-UPDATE consume).
type fakeUserRepository struct {
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{
		users:  make(map[uint]*models.User),
		nextID: 1,
	}
}

func (f *fakeUserRepository) add(user *models.User) *models.User {
	user.ID = f.nextID
	f.nextID++
	f.users[user.ID] = user
	return user
}

func (f *fakeUserRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepository) GetByIDWithProfile(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeUserRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) GetByValidResetToken(ctx context.Context, tx *gorm.DB, token string, now time.Time) (*models.User, error) {
	for _, user := range f.users {
		if user.ResetToken != nil && *user.ResetToken == token &&
			user.ResetTokenExpiry != nil && user.ResetTokenExpiry.After(now) {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var out []*models.User
	for _, user := range f.users {
		if filters.Query != "" &&
			!strings.Contains(strings.ToLower(user.FullName), strings.ToLower(filters.Query)) &&
			!strings.Contains(strings.ToLower(user.Email), strings.ToLower(filters.Query)) {
			continue
		}
		if filters.Role != nil && user.Role != *filters.Role {
			continue
		}
		out = append(out, user)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepository) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.UserFilters) ([]*models.User, int64, error) {
	filters.Query = query
	return f.List(ctx, tx, filters)
}

func (f *fakeUserRepository) ListWithProfiles(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return f.List(ctx, tx, filters)
}

func (f *fakeUserRepository) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, tx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeUserRepository) UpdatePassword(ctx context.Context, tx *gorm.DB, id uint, passwordHash string) error {
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Password = passwordHash
	return nil
}

func (f *fakeUserRepository) SetResetToken(ctx context.Context, tx *gorm.DB, id uint, token string, expiry time.Time) error {
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.ResetToken = &token
	user.ResetTokenExpiry = &expiry
	return nil
}

func (f *fakeUserRepository) ResetPasswordAndClearToken(ctx context.Context, tx *gorm.DB, id uint, passwordHash string) error {
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Password = passwordHash
	user.ResetToken = nil
	user.ResetTokenExpiry = nil
	return nil
}

type fakeRepository struct {
	user *fakeUserRepository
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{user: newFakeUserRepository()}
}

func (f *fakeRepository) User() repositories.UserRepository { return f.user }
func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}
func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// ===== TEST SETUP =====

func mustHash(t testing.TB, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

func newTestAuthService(t testing.TB, repo *fakeRepository) (*authService, *events.MockEventPublisher) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	publisher := events.NewMockEventPublisher(logger)

	svc := NewAuthService(repo, nil, logger, validator.New(), AuthConfig{
		JWTSecret:   "test-secret",
		JWTTTL:      time.Hour,
		FrontendURL: "http://localhost:5173",
	}, mailer.NewLogMailer(logger), publisher)

	return svc.(*authService), publisher
}

func seedUser(t testing.TB, repo *fakeRepository, email, password string, active bool) *models.User {
	t.Helper()
	return repo.user.add(&models.User{
		Email:    email,
		Password: mustHash(t, password),
		FullName: "Nguyen Van A",
		Role:     models.RoleStudent,
		IsActive: active,
	})
}

// ===== CREDENTIAL VALIDATION =====

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds with correct credentials", func(t *testing.T) {
		repo := newFakeRepository()
		seedUser(t, repo, "a@x.com", "pw123", true)
		svc, _ := newTestAuthService(t, repo)

		user, err := svc.Validate(ctx, "a@x.com", "pw123")
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if user.Email != "a@x.com" {
			t.Errorf("unexpected user: %s", user.Email)
		}
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		repo := newFakeRepository()
		seedUser(t, repo, "a@x.com", "pw123", true)
		svc, _ := newTestAuthService(t, repo)

		_, errWrongPassword := svc.Validate(ctx, "a@x.com", "wrong")
		_, errUnknownEmail := svc.Validate(ctx, "nobody@x.com", "pw123")

		if !errors.Is(errWrongPassword, ErrInvalidCredentials) {
			t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", errWrongPassword)
		}
		if !errors.Is(errUnknownEmail, ErrInvalidCredentials) {
			t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", errUnknownEmail)
		}
		if errWrongPassword.Error() != errUnknownEmail.Error() {
			t.Error("error shapes differ between wrong password and unknown email")
		}
	})

	t.Run("inactive user fails even with correct credentials", func(t *testing.T) {
		repo := newFakeRepository()
		seedUser(t, repo, "a@x.com", "pw123", false)
		svc, _ := newTestAuthService(t, repo)

		_, err := svc.Validate(ctx, "a@x.com", "pw123")
		if !errors.Is(err, ErrAccountInactive) {
			t.Errorf("expected ErrAccountInactive, got %v", err)
		}
	})

	t.Run("deactivation takes effect immediately", func(t *testing.T) {
		repo := newFakeRepository()
		user := seedUser(t, repo, "a@x.com", "pw123", true)
		svc, _ := newTestAuthService(t, repo)

		if _, err := svc.Validate(ctx, "a@x.com", "pw123"); err != nil {
			t.Fatalf("Validate failed for active user: %v", err)
		}
		if _, err := svc.Validate(ctx, "a@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}

		user.IsActive = false

		if _, err := svc.Validate(ctx, "a@x.com", "pw123"); !errors.Is(err, ErrAccountInactive) {
			t.Errorf("expected ErrAccountInactive after deactivation, got %v", err)
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	seedUser(t, repo, "a@x.com", "pw123", true)
	svc, publisher := newTestAuthService(t, repo)

	t.Run("returns token and user", func(t *testing.T) {
		resp, err := svc.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "pw123"})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if resp.Token == "" {
			t.Error("expected a signed token")
		}
		if resp.User == nil || resp.User.Email != "a@x.com" {
			t.Error("expected user in response")
		}
		if resp.Profile != nil {
			t.Errorf("expected nil profile for user without one, got %v", resp.Profile)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventUserLoggedIn {
			t.Errorf("expected a single %s event, got %v", events.EventUserLoggedIn, published)
		}
	})

	t.Run("rejects malformed request", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Email: "not-an-email", Password: "pw123"})
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Errorf("expected validation errors, got %v", err)
		}
	})
}

// ===== PASSWORD CHANGE =====

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates hash on success", func(t *testing.T) {
		repo := newFakeRepository()
		user := seedUser(t, repo, "a@x.com", "pw123", true)
		svc, publisher := newTestAuthService(t, repo)
		oldHash := user.Password

		err := svc.ChangePassword(ctx, user.ID, &ChangePasswordRequest{
			OldPassword: "pw123",
			NewPassword: "newpw",
		})
		if err != nil {
			t.Fatalf("ChangePassword failed: %v", err)
		}

		if user.Password == oldHash {
			t.Error("password hash was not rotated")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("newpw")); err != nil {
			t.Error("new hash does not match new password")
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventPasswordChanged {
			t.Errorf("expected a password_changed event, got %v", published)
		}
	})

	t.Run("wrong old password", func(t *testing.T) {
		repo := newFakeRepository()
		user := seedUser(t, repo, "a@x.com", "pw123", true)
		svc, _ := newTestAuthService(t, repo)

		err := svc.ChangePassword(ctx, user.ID, &ChangePasswordRequest{
			OldPassword: "wrong",
			NewPassword: "newpw",
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestAuthService(t, repo)

		err := svc.ChangePassword(ctx, 999, &ChangePasswordRequest{
			OldPassword: "pw123",
			NewPassword: "newpw",
		})
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

// ===== PASSWORD RESET FLOW =====

func TestRequestReset(t *testing.T) {
	ctx := context.Background()

	t.Run("identical result for existing and unknown email", func(t *testing.T) {
		repo := newFakeRepository()
		seedUser(t, repo, "a@x.com", "pw123", true)
		svc, _ := newTestAuthService(t, repo)

		errKnown := svc.RequestReset(ctx, "a@x.com")
		errUnknown := svc.RequestReset(ctx, "nobody@x.com")

		if errKnown != nil {
			t.Errorf("existing email: expected nil, got %v", errKnown)
		}
		if errUnknown != nil {
			t.Errorf("unknown email: expected nil, got %v", errUnknown)
		}
	})

	t.Run("issues a 64-char hex token with 1h expiry", func(t *testing.T) {
		repo := newFakeRepository()
		user := seedUser(t, repo, "a@x.com", "pw123", true)
		svc, publisher := newTestAuthService(t, repo)

		before := time.Now()
		if err := svc.RequestReset(ctx, "a@x.com"); err != nil {
			t.Fatalf("RequestReset failed: %v", err)
		}

		if user.ResetToken == nil || user.ResetTokenExpiry == nil {
			t.Fatal("expected token and expiry to be set")
		}
		if len(*user.ResetToken) != 64 {
			t.Errorf("expected 64 hex chars, got %d", len(*user.ResetToken))
		}
		expectedExpiry := before.Add(time.Hour)
		if user.ResetTokenExpiry.Before(expectedExpiry.Add(-time.Minute)) ||
			user.ResetTokenExpiry.After(expectedExpiry.Add(time.Minute)) {
			t.Errorf("expiry not ~1h from issuance: %v", user.ResetTokenExpiry)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventPasswordResetRequested {
			t.Errorf("expected a password_reset_requested event, got %v", published)
		}
	})

	t.Run("second request overwrites the first token", func(t *testing.T) {
		repo := newFakeRepository()
		user := seedUser(t, repo, "a@x.com", "pw123", true)
		svc, _ := newTestAuthService(t, repo)

		if err := svc.RequestReset(ctx, "a@x.com"); err != nil {
			t.Fatalf("first RequestReset failed: %v", err)
		}
		first := *user.ResetToken

		if err := svc.RequestReset(ctx, "a@x.com"); err != nil {
			t.Fatalf("second RequestReset failed: %v", err)
		}
		second := *user.ResetToken

		if first == second {
			t.Error("expected a fresh token on the second request")
		}
		if err := svc.ConsumeReset(ctx, first, "newpw"); !errors.Is(err, ErrInvalidOrExpiredToken) {
			t.Errorf("overwritten token should be invalid, got %v", err)
		}
	})
}

func TestConsumeReset(t *testing.T) {
	ctx := context.Background()

	t.Run("empty arguments", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestAuthService(t, repo)

		if err := svc.ConsumeReset(ctx, "", "newpw"); !errors.Is(err, ErrBadRequest) {
			t.Errorf("empty token: expected ErrBadRequest, got %v", err)
		}
		if err := svc.ConsumeReset(ctx, "sometoken", ""); !errors.Is(err, ErrBadRequest) {
			t.Errorf("empty password: expected ErrBadRequest, got %v", err)
		}
	})

	t.Run("succeeds exactly once", func(t *testing.T) {
		repo := newFakeRepository()
		user := seedUser(t, repo, "a@x.com", "pw123", true)
		svc, _ := newTestAuthService(t, repo)
		oldHash := user.Password

		if err := svc.RequestReset(ctx, "a@x.com"); err != nil {
			t.Fatalf("RequestReset failed: %v", err)
		}
		token := *user.ResetToken

		if err := svc.ConsumeReset(ctx, token, "newpw"); err != nil {
			t.Fatalf("first ConsumeReset failed: %v", err)
		}

		if user.ResetToken != nil || user.ResetTokenExpiry != nil {
			t.Error("expected both token columns nulled after consume")
		}
		if user.Password == oldHash {
			t.Error("expected password hash to change")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("newpw")); err != nil {
			t.Error("new hash does not match new password")
		}

		if err := svc.ConsumeReset(ctx, token, "again"); !errors.Is(err, ErrInvalidOrExpiredToken) {
			t.Errorf("replay: expected ErrInvalidOrExpiredToken, got %v", err)
		}
	})

	t.Run("expired token fails", func(t *testing.T) {
		repo := newFakeRepository()
		user := seedUser(t, repo, "a@x.com", "pw123", true)
		svc, _ := newTestAuthService(t, repo)

		token := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
		expired := time.Now().Add(-time.Minute)
		user.ResetToken = &token
		user.ResetTokenExpiry = &expired

		if err := svc.ConsumeReset(ctx, token, "newpw"); !errors.Is(err, ErrInvalidOrExpiredToken) {
			t.Errorf("expected ErrInvalidOrExpiredToken for expired token, got %v", err)
		}
	})

	t.Run("wrong token fails", func(t *testing.T) {
		repo := newFakeRepository()
		seedUser(t, repo, "a@x.com", "pw123", true)
		svc, _ := newTestAuthService(t, repo)

		if err := svc.RequestReset(ctx, "a@x.com"); err != nil {
			t.Fatalf("RequestReset failed: %v", err)
		}

		if err := svc.ConsumeReset(ctx, "not-the-token", "newpw"); !errors.Is(err, ErrInvalidOrExpiredToken) {
			t.Errorf("expected ErrInvalidOrExpiredToken, got %v", err)
		}
	})
}
