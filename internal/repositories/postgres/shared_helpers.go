package postgres

import "fmt"

// handleDBError is a package-level helper for handling database errors.
// gorm sentinel errors stay unwrappable through the %w chain.
func handleDBError(err error, operation string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}
