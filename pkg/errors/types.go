package errors

import (
	"fmt"
)

// MissingFieldError is returned when a lock or ownership record on a remote
// host lacks a required field. Such a record is treated as corrupt.
type MissingFieldError struct {
	Record string
	Field  string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("%s record is missing required field %q", err.Record, err.Field)
}

// FileNotFound is returned when a local config file doesn't exist. tether
// runs with defaults in place of a missing config, so callers usually check
// for it rather than report it.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}
