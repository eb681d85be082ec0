// Package automation abstracts the browser-automation capability the
// registration flows drive. Selectors are plain CSS; generated class-name
// suffixes are matched with ClassContains.
package automation

import (
	"context"
	"fmt"
	"time"
)

// Driver is one browser page scoped to a single invocation. Implementations
// must be safe to Close on every exit path, including after errors.
type Driver interface {
	// Navigate loads url and returns once the main document has loaded.
	Navigate(ctx context.Context, url string) error
	// WaitIdle blocks until the page looks settled after a navigation.
	WaitIdle(ctx context.Context) error

	// WaitVisible blocks until the nth match of sel is rendered with a
	// non-zero box. WaitEnabled additionally requires the element not to
	// be disabled; a merely visible control does not satisfy it.
	WaitVisible(ctx context.Context, sel string, nth int, timeout time.Duration) error
	WaitEnabled(ctx context.Context, sel string, timeout time.Duration) error

	Click(ctx context.Context, sel string, nth int) error
	Fill(ctx context.Context, sel string, value string) error

	// Text returns the rendered text of the nth match of sel, or
	// ErrNoElement when there are fewer matches.
	Text(ctx context.Context, sel string, nth int) (string, error)

	// Eval runs a JavaScript expression and returns its JSON-encoded value.
	Eval(ctx context.Context, expr string) ([]byte, error)

	Close(ctx context.Context) error
}

// Dialer opens a fresh driver session per invocation.
type Dialer interface {
	NewSession(ctx context.Context) (Driver, error)
}

// ErrWaitTimeout is wrapped by driver Wait* implementations when the
// condition was not observed within its timeout.
var ErrWaitTimeout = fmt.Errorf("automation: wait timed out")

// ErrNoElement is returned when a selector matches fewer elements than the
// requested index.
var ErrNoElement = fmt.Errorf("automation: no matching element")

// TimeoutError aborts an invocation: a wait-for-condition expired while the
// flow was in State.
type TimeoutError struct {
	State string
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("automation: timeout in %s: %v", e.State, e.Err)
}
func (e *TimeoutError) Unwrap() error { return e.Err }

// StructuralError aborts an invocation: the page did not have the structure
// the flow expected (a missing element outside a wait).
type StructuralError struct {
	State  string
	Detail string
	Err    error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("automation: unexpected page structure in %s: %s", e.State, e.Detail)
}
func (e *StructuralError) Unwrap() error { return e.Err }

// ClassContains builds a selector matching any element whose class attribute
// contains fragment. Used for generated class names whose suffixes vary
// between deployments.
func ClassContains(fragment string) string {
	return fmt.Sprintf(`[class*=%q]`, fragment)
}
