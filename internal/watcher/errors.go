package watcher

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches any *NotFoundError via errors.Is.
	ErrNotFound = errors.New("section not found")

	ErrEmptyEmail = errors.New("email is required")
)

// NotFoundError is returned by Register when the section is not part of the
// current catalog snapshot.
type NotFoundError struct {
	SectionID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("section %d not found in current catalog", e.SectionID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
