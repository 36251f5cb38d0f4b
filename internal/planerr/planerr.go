// Package planerr holds the error kinds reported by pstate commands and
// the exit status each one maps to.
package planerr

import (
	"errors"
	"fmt"
)

// Exit statuses. Anything not classified below exits with ExitFailure.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitNotFound = 3
	ExitBusy     = 4
	ExitGuard    = 5
)

// UsageError reports a missing or invalid argument.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// NotFoundError reports a referenced phase, file, or directory that does not exist.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string { return e.What + " not found" }

// BusyError reports that another writer holds the lock on a resource.
type BusyError struct {
	Resource string
	Detail   string
}

func (e *BusyError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s is busy", e.Resource)
	}
	return fmt.Sprintf("%s is busy (%s)", e.Resource, e.Detail)
}

// GuardError reports a refused destructive operation. Override names the
// flag that forces it, if any.
type GuardError struct {
	Msg      string
	Override string
}

func (e *GuardError) Error() string {
	if e.Override == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s (use %s to override)", e.Msg, e.Override)
}

func Usage(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &NotFoundError{What: fmt.Sprintf(format, args...)}
}

func Busy(resource, detail string) error {
	return &BusyError{Resource: resource, Detail: detail}
}

func Guard(override, format string, args ...any) error {
	return &GuardError{Msg: fmt.Sprintf(format, args...), Override: override}
}

// IsBusy reports whether err (or anything it wraps) is a BusyError.
func IsBusy(err error) bool {
	var b *BusyError
	return errors.As(err, &b)
}

// IsNotFound reports whether err (or anything it wraps) is a NotFoundError.
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// ExitCode maps an error to the process exit status.
// Returns ExitOK for nil.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		u *UsageError
		n *NotFoundError
		b *BusyError
		g *GuardError
	)
	switch {
	case errors.As(err, &u):
		return ExitUsage
	case errors.As(err, &n):
		return ExitNotFound
	case errors.As(err, &b):
		return ExitBusy
	case errors.As(err, &g):
		return ExitGuard
	}
	return ExitFailure
}
