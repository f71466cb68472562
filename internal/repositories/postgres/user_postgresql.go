package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dormhub/dormitory-service/internal/cache"
	"github.com/dormhub/dormitory-service/internal/models"
	"github.com/dormhub/dormitory-service/internal/repositories"
)

type userRepository struct {
	db    *gorm.DB
	cache *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.UserRepository {
	return &userRepository{
		db:    db,
		cache: cacheManager,
	}
}

// ===== READ OPERATIONS =====

func (r *userRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	if tx == nil {
		var cached models.User
		if err := r.cache.User.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	db := r.getDB(tx)
	var user models.User

	if err := db.WithContext(ctx).
		Preload("Avatar").
		First(&user, id).Error; err != nil {
		return nil, r.handleDBError(err, "get user by id")
	}

	if tx == nil {
		_ = r.cache.User.Set(ctx, cacheKey, &user, cache.UserCacheConfig.TTL)
	}

	return &user, nil
}

func (r *userRepository) GetByIDWithProfile(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	// Cache-aside on the fully joined record; skipped inside
	// transactions so callers always see their own writes.
	cacheKey := fmt.Sprintf("%d", id)
	if tx == nil {
		var cached models.User
		if err := r.cache.Profile.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	db := r.getDB(tx)
	var user models.User

	if err := db.WithContext(ctx).
		Preload("Avatar").
		Preload("StudentProfile.Room.Building").
		Preload("StaffProfile.ManagedBuilding").
		First(&user, id).Error; err != nil {
		return nil, r.handleDBError(err, "get user with profile")
	}

	if tx == nil {
		_ = r.cache.Profile.Set(ctx, cacheKey, &user, cache.ProfileCacheConfig.TTL)
	}

	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	db := r.getDB(tx)
	var user models.User

	if err := db.WithContext(ctx).
		Preload("Avatar").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, r.handleDBError(err, "get user by email")
	}

	return &user, nil
}

func (r *userRepository) GetByValidResetToken(ctx context.Context, tx *gorm.DB, token string, now time.Time) (*models.User, error) {
	db := r.getDB(tx)
	var user models.User

	// Never cached: the compound predicate is the single source of
	// truth for token validity.
	if err := db.WithContext(ctx).
		Where("reset_token = ? AND reset_token_expiry > ?", token, now).
		First(&user).Error; err != nil {
		return nil, r.handleDBError(err, "get user by reset token")
	}

	return &user, nil
}

// ===== LIST AND SEARCH OPERATIONS =====

func (r *userRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return r.list(ctx, tx, filters, false)
}

func (r *userRepository) ListWithProfiles(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return r.list(ctx, tx, filters, true)
}

func (r *userRepository) list(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters, withProfiles bool) ([]*models.User, int64, error) {
	db := r.getDB(tx)
	var users []*models.User
	var total int64

	query := db.WithContext(ctx).Model(&models.User{})
	query = r.applyUserFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.handleDBError(err, "count users")
	}

	query = query.Preload("Avatar")
	if withProfiles {
		query = query.
			Preload("StudentProfile.Room.Building").
			Preload("StaffProfile.ManagedBuilding")
	}

	query = r.applyPaginationAndSorting(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder)

	if err := query.Find(&users).Error; err != nil {
		return nil, 0, r.handleDBError(err, "list users")
	}

	return users, total, nil
}

func (r *userRepository) Search(ctx context.Context, tx *gorm.DB, searchQuery string, filters repositories.UserFilters) ([]*models.User, int64, error) {
	filters.Query = searchQuery
	return r.List(ctx, tx, filters)
}

func (r *userRepository) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, r.handleDBError(err, "check user exists by email")
	}

	return count > 0, nil
}

// ===== MUTATIONS =====

func (r *userRepository) UpdatePassword(ctx context.Context, tx *gorm.DB, id uint, passwordHash string) error {
	db := r.getDB(tx)

	result := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("password", passwordHash)
	if result.Error != nil {
		return r.handleDBError(result.Error, "update password")
	}
	if result.RowsAffected == 0 {
		return r.handleDBError(gorm.ErrRecordNotFound, "update password")
	}

	r.invalidateUser(ctx, id)
	return nil
}

func (r *userRepository) SetResetToken(ctx context.Context, tx *gorm.DB, id uint, token string, expiry time.Time) error {
	db := r.getDB(tx)

	// Overwrites any prior unconsumed token: at most one live token
	// per user.
	result := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reset_token":        token,
			"reset_token_expiry": expiry,
		})
	if result.Error != nil {
		return r.handleDBError(result.Error, "set reset token")
	}
	if result.RowsAffected == 0 {
		return r.handleDBError(gorm.ErrRecordNotFound, "set reset token")
	}

	r.invalidateUser(ctx, id)
	return nil
}

func (r *userRepository) ResetPasswordAndClearToken(ctx context.Context, tx *gorm.DB, id uint, passwordHash string) error {
	db := r.getDB(tx)

	result := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password":           passwordHash,
			"reset_token":        nil,
			"reset_token_expiry": nil,
		})
	if result.Error != nil {
		return r.handleDBError(result.Error, "reset password and clear token")
	}
	if result.RowsAffected == 0 {
		return r.handleDBError(gorm.ErrRecordNotFound, "reset password and clear token")
	}

	r.invalidateUser(ctx, id)
	return nil
}

// ===== HELPER METHODS =====

func (r *userRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *userRepository) handleDBError(err error, operation string) error {
	return handleDBError(err, operation)
}

func (r *userRepository) invalidateUser(ctx context.Context, id uint) {
	cache.InvalidateUserCache(ctx, r.cache, id)
}

func (r *userRepository) applyUserFilters(query *gorm.DB, filters repositories.UserFilters) *gorm.DB {
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("full_name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	return query
}

func (r *userRepository) applyPaginationAndSorting(query *gorm.DB, limit, offset int, sortBy, sortOrder string) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"email":      true,
		"full_name":  true,
		"role":       true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
