package store

import (
	"fmt"

	"flightsurety/pkg/platform/sentinel"
)

var errNotFound = sentinel.ErrNotFound

func conflict(what string) error {
	return fmt.Errorf("%s already exists: %w", what, sentinel.ErrConflict)
}

func invalidState(what string) error {
	return fmt.Errorf("%s: %w", what, sentinel.ErrInvalidState)
}
