package validator

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is the payload for POST /auth/change-password.
// NewPassword has no strength rule, only presence.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// RequestPasswordResetRequest is the payload for
// POST /auth/request-password-reset.
type RequestPasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the payload for POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// UserListRequest carries pagination/filter query parameters for the
// admin user listing.
type UserListRequest struct {
	Page int    `form:"page" validate:"omitempty,min=1"`
	Size int    `form:"size" validate:"omitempty,min=1,max=100"`
	Q    string `form:"q" validate:"omitempty,max=255"`
	Role string `form:"role" validate:"omitempty,oneof=ADMIN STAFF STUDENT"`
}
