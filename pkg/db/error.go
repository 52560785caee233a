package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// SQLite reports code 2067 with this message.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
