package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthenticated means a call that requires a session token was
	// attempted without one. No network call is made in that case.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrPermissionDenied means the user refused an OS-level permission
	// (location, media library). Terminal for the current flow.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound means the requested post does not exist in the local
	// cache.
	ErrNotFound = errors.New("post not found")
)

// ValidationError reports required inputs that were missing locally. It is
// returned before any network call is issued.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// RejectedError is a server-side business rejection (4xx), e.g. duplicate
// username or bad credentials. Message is the server's `message` field
// when present.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("rejected by server (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("rejected by server (status %d)", e.Status)
}

// ServerError is a transient server-side failure (5xx or timeout-class).
// Distinguished from RejectedError by status class, never by message text.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server failure (status %d)", e.Status)
}

// ShareError reports which step of the download-and-share sequence failed.
type ShareError struct {
	Step string // "name", "download", "availability", "share"
	Err  error
}

func (e *ShareError) Error() string {
	return fmt.Sprintf("share failed at %s: %v", e.Step, e.Err)
}

func (e *ShareError) Unwrap() error { return e.Err }
