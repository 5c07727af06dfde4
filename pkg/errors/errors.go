package errors

import (
	goErrors "errors"
	"fmt"

	pkgErrors "github.com/pkg/errors"
)

// New returns an error with the supplied message. Errors created by New
// compare equal when their messages match.
func New(msg string) error {
	return goErrors.New(msg)
}

// Errorf formats an error message.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// WithContext annotates `err` with a short description of what was being
// attempted when it occurred. The resulting message reads "ctx: err".
func WithContext(err error, ctx string) error {
	if err == nil {
		return nil
	}
	return pkgErrors.WithMessage(err, ctx)
}

// RootCause returns the innermost error that was wrapped with WithContext.
func RootCause(err error) error {
	return pkgErrors.Cause(err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return pkgErrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return pkgErrors.As(err, target)
}

// FriendlyError is an error whose message is meant to be shown to the user
// as-is, without any of the context that was added while it propagated.
type FriendlyError struct {
	template string
	args     []interface{}
}

// NewFriendlyError creates a FriendlyError from a format string.
func NewFriendlyError(template string, args ...interface{}) error {
	return FriendlyError{template, args}
}

func (err FriendlyError) Error() string {
	return err.FriendlyMessage()
}

// FriendlyMessage returns the message to show to the user.
func (err FriendlyError) FriendlyMessage() string {
	return fmt.Sprintf(err.template, err.args...)
}

// Friendly is implemented by errors that carry a message for the user.
type Friendly interface {
	FriendlyMessage() string
}

// GetFriendlyMessage returns the friendly message of the first error in the
// chain that has one.
func GetFriendlyMessage(err error) (string, bool) {
	for err != nil {
		if friendly, ok := err.(Friendly); ok {
			return friendly.FriendlyMessage(), true
		}

		causer, ok := err.(interface{ Cause() error })
		if !ok {
			return "", false
		}
		err = causer.Cause()
	}
	return "", false
}
