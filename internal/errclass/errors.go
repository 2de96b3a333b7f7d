// Package errclass defines stable, machine-readable error classes.
package errclass

import "fmt"

// Error is a stable error class with an optional message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any error of the same class regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// WithMessage returns a new Error with the same Code but a specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

// WithMessagef returns a new Error with a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrModeInvalid      = &Error{Code: "E_MODE_INVALID"}
	ErrSettingsInvalid  = &Error{Code: "E_SETTINGS_INVALID"}
	ErrSnapshotCorrupt  = &Error{Code: "E_SNAPSHOT_CORRUPT"}
	ErrStoreUnavailable = &Error{Code: "E_STORE_UNAVAILABLE"}
	ErrRecordRejected   = &Error{Code: "E_RECORD_REJECTED"}
	ErrConfigInvalid    = &Error{Code: "E_CONFIG_INVALID"}
)
