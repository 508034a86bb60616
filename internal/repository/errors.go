package repository

import (
	"errors"
	"fmt"

	"github.com/noah-isme/tuition-ledger-api/pkg/database"
)

// Sentinel failures every repository maps driver errors onto. Misses are reported as sql.ErrNoRows.
var (
	ErrDuplicate        = errors.New("duplicate record")
	ErrReferenceMissing = errors.New("referenced record does not exist")
	ErrInUse            = errors.New("record is still referenced")
	ErrUnavailable      = errors.New("store unavailable")
)

// storeError wraps err with op and, when recognised, the matching sentinel.
// fkSentinel picks what a foreign key failure means for the statement.
func storeError(op string, err error, fkSentinel error) error {
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", op, ErrDuplicate, err)
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("%s: %w: %w", op, fkSentinel, err)
	case database.IsUnavailable(err):
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func wrapError(op string, err error) error {
	return storeError(op, err, ErrReferenceMissing)
}
