package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dormhub/dormitory-service/internal/services"
	"github.com/dormhub/dormitory-service/internal/utils"
	"github.com/dormhub/dormitory-service/internal/validator"
)

type AuthHandler struct {
	BaseHandler
	authService services.AuthService
	userService services.UserService
}

func NewAuthHandler(authService services.AuthService, userService services.UserService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
		userService: userService,
	}
}

// Login authenticates a user and issues an access token
// @Summary Login
// @Description Validate credentials and return a signed token with the user profile
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Credentials"
// @Success 200 {object} services.LoginResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 401 {object} ErrorResponse "Invalid credentials or inactive account"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Dữ liệu không hợp lệ",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user with the joined profile
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} services.UserWithProfileResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Yêu cầu xác thực",
		})
		return
	}

	resp, err := h.userService.GetWithProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err, "Failed to load current user")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ChangePassword verifies the old password and sets a new one
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.ChangePasswordRequest true "Old and new password"
// @Success 200 {object} services.MessageResponse
// @Failure 400 {object} ErrorResponse "Wrong old password or invalid payload"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Yêu cầu xác thực",
		})
		return
	}

	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Dữ liệu không hợp lệ",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Changing password", "user_id", userID)

	if err := h.authService.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		// Wrong old password is a 400 here, not a 401: the caller is
		// already authenticated
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Mật khẩu cũ không đúng",
			})
			return
		}
		h.handleAuthError(c, err, "Password change failed")
		return
	}

	c.JSON(http.StatusOK, services.MessageResponse{
		Message: "Đổi mật khẩu thành công",
	})
}

// RequestPasswordReset issues a reset token. The response is identical
// whether or not the email exists.
// @Summary Request password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.RequestPasswordResetRequest true "Email"
// @Success 200 {object} services.MessageResponse
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /auth/request-password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req services.RequestPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Dữ liệu không hợp lệ",
			Details: err.Error(),
		})
		return
	}

	if err := h.authService.RequestReset(c.Request.Context(), req.Email); err != nil {
		h.handleAuthError(c, err, "Password reset request failed")
		return
	}

	c.JSON(http.StatusOK, services.MessageResponse{
		Message: "Nếu email tồn tại trong hệ thống, hướng dẫn đặt lại mật khẩu đã được gửi",
	})
}

// ResetPassword consumes a reset token and sets a new password
// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.ResetPasswordRequest true "Token and new password"
// @Success 200 {object} services.MessageResponse
// @Failure 400 {object} ErrorResponse "Invalid or expired token"
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req services.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Dữ liệu không hợp lệ",
			Details: err.Error(),
		})
		return
	}

	if err := h.authService.ConsumeReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		h.handleAuthError(c, err, "Password reset failed")
		return
	}

	c.JSON(http.StatusOK, services.MessageResponse{
		Message: "Đặt lại mật khẩu thành công",
	})
}

// ===== ERROR MAPPING =====

func (h *AuthHandler) handleAuthError(c *gin.Context, err error, operation string) {
	var verrs validator.ValidationErrors

	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Dữ liệu không hợp lệ",
			"errors":  verrs,
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		// Same message for unknown email and wrong password
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Email hoặc mật khẩu không đúng",
		})
	case errors.Is(err, services.ErrAccountInactive):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Tài khoản đã bị vô hiệu hóa",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Không tìm thấy người dùng",
		})
	case errors.Is(err, services.ErrBadRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Thiếu thông tin bắt buộc",
		})
	case errors.Is(err, services.ErrInvalidOrExpiredToken):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Token không hợp lệ hoặc đã hết hạn",
		})
	default:
		h.LogError(c, err, operation)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Không thể xử lý yêu cầu, vui lòng thử lại sau",
		})
	}
}
