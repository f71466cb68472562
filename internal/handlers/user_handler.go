package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dormhub/dormitory-service/internal/services"
	"github.com/dormhub/dormitory-service/internal/utils"
	"github.com/dormhub/dormitory-service/internal/validator"
)

type UserHandler struct {
	BaseHandler
	userService   services.UserService
	exportService services.ExportService
}

func NewUserHandler(userService services.UserService, exportService services.ExportService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler:   NewBaseHandler(logger),
		userService:   userService,
		exportService: exportService,
	}
}

// ListUsers lists users with optional filtering
// @Summary List users
// @Description Get a paginated list of users
// @Tags users
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param q query string false "Search query (name or email)"
// @Param role query string false "Filter by role (ADMIN, STAFF, STUDENT)"
// @Success 200 {object} services.UserListResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Tham số không hợp lệ",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.userService.List(c.Request.Context(), &req)
	if err != nil {
		h.handleUserError(c, err, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SearchUsers searches for users by name or email
// @Summary Search users
// @Tags users
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {object} services.UserListResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Router /users/search [get]
func (h *UserHandler) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Thiếu tham số tìm kiếm 'q'",
		})
		return
	}

	h.LogRequest(c, "Searching users", "query", query)

	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Tham số không hợp lệ",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.userService.Search(c.Request.Context(), query, &req)
	if err != nil {
		h.handleUserError(c, err, "Failed to search users")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetUser retrieves a user with the joined profile
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} services.UserWithProfileResponse
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "ID người dùng không hợp lệ",
		})
		return
	}

	h.LogRequest(c, "Getting user", "user_id", id)

	resp, err := h.userService.GetWithProfile(c.Request.Context(), uint(id))
	if err != nil {
		h.handleUserError(c, err, "Failed to get user")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ExportUsers streams the resident roster as an xlsx workbook
// @Summary Export resident roster
// @Tags users
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /users/export [get]
func (h *UserHandler) ExportUsers(c *gin.Context) {
	h.LogRequest(c, "Exporting resident roster")

	f, err := h.exportService.ExportRoster(c.Request.Context())
	if err != nil {
		h.handleUserError(c, err, "Failed to export roster")
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("residents_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := f.Write(c.Writer); err != nil {
		h.LogError(c, err, "Failed to stream roster")
	}
}

// ===== ERROR MAPPING =====

func (h *UserHandler) handleUserError(c *gin.Context, err error, operation string) {
	var verrs validator.ValidationErrors

	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Tham số không hợp lệ",
			"errors":  verrs,
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Không tìm thấy người dùng",
		})
	default:
		h.LogError(c, err, operation)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Không thể xử lý yêu cầu, vui lòng thử lại sau",
		})
	}
}
