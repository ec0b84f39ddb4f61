package repositories

import (
	"database/sql"
	"fmt"
)

// execOne runs a statement expected to touch exactly one row and reports whether it did.
func execOne(db *sql.DB, query string, args ...any) (bool, error) {
	result, err := db.Exec(query, args...)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}
