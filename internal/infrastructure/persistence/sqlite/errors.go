package sqlite

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// ConvertError maps busy, locked and unique-constraint failures to
// *entity.PersistenceConflictError. Other errors pass through.
func ConvertError(key string, err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch {
	case sqliteErr.Code == sqlite3.ErrBusy,
		sqliteErr.Code == sqlite3.ErrLocked,
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
		return &entity.PersistenceConflictError{Key: key, Err: err}
	}
	return err
}
