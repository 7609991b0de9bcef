package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NotFoundError represents a missing record.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

var ErrNotFound = NotFoundError{}

var (
	ErrProtectedAccount    = errors.New("protected account cannot be removed")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrRegistrationsClosed = errors.New("registrations are closed")
	ErrVotingClosed        = errors.New("voting is closed")
	ErrOffline             = errors.New("network unavailable")
)

// FieldErrors carries per-field validation messages, keyed by form field name.
type FieldErrors map[string]string

func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f FieldErrors) Empty() bool { return len(f) == 0 }

// Err returns nil when there is nothing to report.
func (f FieldErrors) Err() error {
	if f.Empty() {
		return nil
	}
	return f
}

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
