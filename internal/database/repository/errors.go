package repository

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrConstraint wraps unique/foreign-key violations. The importer treats
// it as "skip this row", never as a pipeline failure.
var ErrConstraint = errors.New("repository: constraint violation")

// ErrNotFound is returned when an update or lookup targets a missing row.
var ErrNotFound = errors.New("repository: not found")

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return err
}
