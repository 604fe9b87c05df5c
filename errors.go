package toolbake

import (
	"errors"
	"fmt"
)

// Sentinel errors for toolbake. Use errors.Is to check; the typed wrappers
// below (ValueError, HandlerError, LoadError, BehaviorError) all unwrap to
// their sentinel plus the underlying cause.
var (
	ErrInvalidWidgetValue = errors.New("invalid widget value")
	ErrWidgetNotFound     = errors.New("widget not found")
	ErrDependencyLoad     = errors.New("dependency load failed")
	ErrHandlerFailed      = errors.New("handler execution failed")
	ErrFragmentBehavior   = errors.New("fragment behavior failed")
	ErrToolNotFound       = errors.New("tool not found")
	ErrInstanceClosed     = errors.New("tool instance closed")
	ErrPushAfterSettle    = errors.New("progress push after handler settled")
	ErrShutdown           = errors.New("platform is shutting down")
)

// ValueError reports a Value that does not fit its widget's declared kind or
// constraint schema. The offending apply is blocked as a whole; stored state
// is unchanged. Err is ErrInvalidWidgetValue or ErrWidgetNotFound.
type ValueError struct {
	Widget string
	Reason string
	Err    error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("widget %q: %s", e.Widget, e.Reason)
}

func (e *ValueError) Unwrap() error { return e.Err }

// HandlerError wraps an error or recovered panic raised by a handler body.
// It is caught at the executor boundary and reported through the failure
// hook; the instance returns to idle and stays usable.
type HandlerError struct {
	Tool string
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("tool %q: handler failed: %v", e.Tool, e.Err)
}

func (e *HandlerError) Unwrap() []error { return []error{ErrHandlerFailed, e.Err} }

// LoadError reports a failed dependency acquisition. It surfaces as a plain
// error from Env.Acquire so the handler can rethrow it through the uniform
// failure channel. A failed load is not memoized; a later trigger may retry.
type LoadError struct {
	Module string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load module %q: %v", e.Module, e.Err)
}

func (e *LoadError) Unwrap() []error { return []error{ErrDependencyLoad, e.Err} }

// BehaviorError reports a fragment script or attach function that failed
// during mount. It is caught per fragment and does not prevent sibling
// widgets from rendering.
type BehaviorError struct {
	Widget string
	Err    error
}

func (e *BehaviorError) Error() string {
	return fmt.Sprintf("fragment %q: behavior failed: %v", e.Widget, e.Err)
}

func (e *BehaviorError) Unwrap() []error { return []error{ErrFragmentBehavior, e.Err} }

// IsValueError returns true if err is or wraps a ValueError.
func IsValueError(err error) bool {
	var ve *ValueError
	return errors.As(err, &ve)
}

// IsHandlerError returns true if err is or wraps a HandlerError.
func IsHandlerError(err error) bool {
	var he *HandlerError
	return errors.As(err, &he)
}

// IsBehaviorError returns true if err is or wraps a BehaviorError.
func IsBehaviorError(err error) bool {
	var be *BehaviorError
	return errors.As(err, &be)
}

// panicError wraps a recovered panic value; used by the executor and the
// WithRecovery middleware.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
