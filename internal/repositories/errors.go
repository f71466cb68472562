package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// IsNotFoundError reports whether err wraps a record-not-found result
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
