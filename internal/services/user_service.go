package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/dormhub/dormitory-service/internal/models"
	"github.com/dormhub/dormitory-service/internal/repositories"
	"github.com/dormhub/dormitory-service/internal/validator"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type userService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *userService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (s *userService) GetWithProfile(ctx context.Context, id uint) (*UserWithProfileResponse, error) {
	user, err := s.repo.User().GetByIDWithProfile(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user with profile: %w", err)
	}

	// First non-null profile wins; at most one is populated per user
	return &UserWithProfileResponse{
		User:    user,
		Profile: user.Profile(),
	}, nil
}

func (s *userService) List(ctx context.Context, req *UserListRequest) (*UserListResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	filters := s.buildFilters(req)
	users, total, err := s.repo.User().ListWithProfiles(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &UserListResponse{
		Users: users,
		Total: total,
		Page:  pageOf(req),
		Size:  filters.Limit,
	}, nil
}

func (s *userService) Search(ctx context.Context, query string, req *UserListRequest) (*UserListResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	filters := s.buildFilters(req)
	users, total, err := s.repo.User().Search(ctx, nil, query, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return &UserListResponse{
		Users: users,
		Total: total,
		Page:  pageOf(req),
		Size:  filters.Limit,
	}, nil
}

func (s *userService) buildFilters(req *UserListRequest) repositories.UserFilters {
	size := req.Size
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	filters := repositories.UserFilters{
		Query:  req.Q,
		Limit:  size,
		Offset: (pageOf(req) - 1) * size,
	}

	if req.Role != "" {
		role := models.UserRole(req.Role)
		filters.Role = &role
	}

	return filters
}

func pageOf(req *UserListRequest) int {
	if req.Page <= 0 {
		return 1
	}
	return req.Page
}
