package storage

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrConstraint marks a store-level check or foreign-key failure.
	ErrConstraint = errors.New("constraint violation")
	// ErrTxFailed marks a failure inside a transaction scope. The underlying
	// cause stays reachable through errors.Is/As.
	ErrTxFailed = errors.New("transaction failed")
)

// normalizeErr maps driver-specific failures onto the store's error kinds so
// callers never match on sqlite error codes.
func normalizeErr(err error) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	}
	return err
}
