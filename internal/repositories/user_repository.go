package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dormhub/dormitory-service/internal/models"
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Query     string // Search query for name or email
	Role      *models.UserRole
	IsActive  *bool
	Limit     int // Page size
	Offset    int // Offset for pagination
	SortBy    string
	SortOrder string
}

// UserRepository covers the account store: credential lookups, the
// reset-token compound query, and password mutations. All read methods
// wrap gorm.ErrRecordNotFound so callers can errors.Is on it.
type UserRepository interface {
	// Read operations
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByIDWithProfile(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)

	// GetByValidResetToken matches reset_token = token AND
	// reset_token_expiry > now in a single predicate, so token match
	// and expiry check are atomic against the store.
	GetByValidResetToken(ctx context.Context, tx *gorm.DB, token string, now time.Time) (*models.User, error)

	// List and search operations
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, filters UserFilters) ([]*models.User, int64, error)
	ListWithProfiles(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error)

	// Mutations
	UpdatePassword(ctx context.Context, tx *gorm.DB, id uint, passwordHash string) error
	SetResetToken(ctx context.Context, tx *gorm.DB, id uint, token string, expiry time.Time) error

	// ResetPasswordAndClearToken persists the new hash and nulls both
	// reset columns in one UPDATE, guaranteeing single-use tokens.
	ResetPasswordAndClearToken(ctx context.Context, tx *gorm.DB, id uint, passwordHash string) error
}
