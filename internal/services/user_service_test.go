package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/dormhub/dormitory-service/internal/models"
	"github.com/dormhub/dormitory-service/internal/validator"
)

func newTestUserService(t testing.TB, repo *fakeRepository) UserService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewUserService(repo, nil, logger, validator.New())
}

func TestGetWithProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("student profile wins the coalesce", func(t *testing.T) {
		repo := newFakeRepository()
		user := seedUser(t, repo, "sv@x.com", "pw", true)
		// Both profiles set: the student one must win
		user.StudentProfile = &models.StudentProfile{UserID: user.ID, StudentCode: "SV001"}
		user.StaffProfile = &models.StaffProfile{UserID: user.ID, StaffCode: "NV001"}
		svc := newTestUserService(t, repo)

		resp, err := svc.GetWithProfile(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetWithProfile failed: %v", err)
		}

		profile, ok := resp.Profile.(*models.StudentProfile)
		if !ok {
			t.Fatalf("expected *models.StudentProfile, got %T", resp.Profile)
		}
		if profile.StudentCode != "SV001" {
			t.Errorf("unexpected student code: %s", profile.StudentCode)
		}
	})

	t.Run("staff profile when no student profile", func(t *testing.T) {
		repo := newFakeRepository()
		user := seedUser(t, repo, "staff@x.com", "pw", true)
		user.Role = models.RoleStaff
		user.StaffProfile = &models.StaffProfile{UserID: user.ID, StaffCode: "NV001"}
		svc := newTestUserService(t, repo)

		resp, err := svc.GetWithProfile(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetWithProfile failed: %v", err)
		}

		if _, ok := resp.Profile.(*models.StaffProfile); !ok {
			t.Fatalf("expected *models.StaffProfile, got %T", resp.Profile)
		}
	})

	t.Run("nil profile when neither exists", func(t *testing.T) {
		repo := newFakeRepository()
		user := seedUser(t, repo, "bare@x.com", "pw", true)
		svc := newTestUserService(t, repo)

		resp, err := svc.GetWithProfile(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetWithProfile failed: %v", err)
		}
		if resp.Profile != nil {
			t.Errorf("expected nil profile, got %v", resp.Profile)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newTestUserService(t, repo)

		if _, err := svc.GetWithProfile(ctx, 999); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	seedUser(t, repo, "a@x.com", "pw", true)
	staff := seedUser(t, repo, "b@x.com", "pw", true)
	staff.Role = models.RoleStaff
	svc := newTestUserService(t, repo)

	t.Run("lists all users", func(t *testing.T) {
		resp, err := svc.List(ctx, &UserListRequest{})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if resp.Total != 2 {
			t.Errorf("expected 2 users, got %d", resp.Total)
		}
		if resp.Page != 1 || resp.Size != defaultPageSize {
			t.Errorf("unexpected pagination defaults: page=%d size=%d", resp.Page, resp.Size)
		}
	})

	t.Run("filters by role", func(t *testing.T) {
		resp, err := svc.List(ctx, &UserListRequest{Role: string(models.RoleStaff)})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if resp.Total != 1 {
			t.Errorf("expected 1 staff user, got %d", resp.Total)
		}
	})

	t.Run("search matches email", func(t *testing.T) {
		resp, err := svc.Search(ctx, "b@x.com", &UserListRequest{})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if resp.Total != 1 {
			t.Errorf("expected 1 match, got %d", resp.Total)
		}
	})
}
