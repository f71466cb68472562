package services

import (
	"context"

	"github.com/xuri/excelize/v2"

	"github.com/dormhub/dormitory-service/internal/models"
	"github.com/dormhub/dormitory-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use validator request types
type LoginRequest = validator.LoginRequest
type ChangePasswordRequest = validator.ChangePasswordRequest
type RequestPasswordResetRequest = validator.RequestPasswordResetRequest
type ResetPasswordRequest = validator.ResetPasswordRequest
type UserListRequest = validator.UserListRequest

type LoginResponse struct {
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
	Profile interface{}  `json:"profile"`
}

type UserWithProfileResponse struct {
	User    *models.User `json:"user"`
	Profile interface{}  `json:"profile"`
}

type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ===== SERVICE INTERFACES =====

// AuthService owns credential validation, session issuance and the
// password lifecycle (change + reset token state machine)
type AuthService interface {
	// Validate checks email/password against the stored hash and the
	// active-account policy. Read-only.
	Validate(ctx context.Context, email, password string) (*models.User, error)

	// Login validates credentials and issues a signed access token
	// together with the joined profile
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)

	// ChangePassword verifies the old password and persists a new hash
	ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error

	// RequestReset issues a single-use reset token. The caller gets the
	// same nil result whether or not the email exists.
	RequestReset(ctx context.Context, email string) error

	// ConsumeReset validates a reset token and rotates the password,
	// clearing the token in the same write
	ConsumeReset(ctx context.Context, token, newPassword string) error
}

// UserService covers user reads and the profile aggregation
type UserService interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetWithProfile(ctx context.Context, id uint) (*UserWithProfileResponse, error)

	List(ctx context.Context, req *UserListRequest) (*UserListResponse, error)
	Search(ctx context.Context, query string, req *UserListRequest) (*UserListResponse, error)
}

// ExportService builds downloadable reports from the user store
type ExportService interface {
	// ExportRoster returns an xlsx workbook of all residents with their
	// room assignments
	ExportRoster(ctx context.Context) (*excelize.File, error)
}

// ServiceManager provides access to all services with lifecycle management
type ServiceManager interface {
	// Core service getters
	Auth() AuthService
	User() UserService
	Export() ExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
