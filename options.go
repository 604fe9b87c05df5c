package toolbake

import (
	"context"
	"time"
)

// toolOptions hold optional per-tool settings.
type toolOptions struct {
	timeout time.Duration
	tags    []string
	version string
}

// ToolOption configures a ToolDefinition (e.g. WithTimeout, WithTags).
type ToolOption func(*toolOptions)

// WithTimeout sets a per-tool invocation timeout, overriding the platform
// default for instances of this tool.
func WithTimeout(d time.Duration) ToolOption {
	return func(o *toolOptions) {
		o.timeout = d
	}
}

// WithTags sets tool tags (metadata for discovery in the shell).
func WithTags(tags ...string) ToolOption {
	return func(o *toolOptions) {
		o.tags = tags
	}
}

// WithVersion sets the tool version.
func WithVersion(version string) ToolOption {
	return func(o *toolOptions) {
		o.version = version
	}
}

// PlatformOption configures a Platform.
type PlatformOption func(*platformOptions)

type platformOptions struct {
	timeout       time.Duration
	recoverPanics bool
	onBefore      func(ctx context.Context, instanceID string, inv Invocation)
	onAfter       func(ctx context.Context, summary InvocationSummary, dur time.Duration)
	onFailure     func(ctx context.Context, err error)
}

// WithDefaultTimeout sets the default invocation timeout for all tools.
// Zero disables the timeout; a long-running codec operation is then only
// bounded by instance teardown (cooperative cancellation).
func WithDefaultTimeout(d time.Duration) PlatformOption {
	return func(o *platformOptions) {
		o.timeout = d
	}
}

// WithRecoverPanics enables panic recovery in the executor (panics surface as
// HandlerError through the failure hook). Enabled by default.
func WithRecoverPanics(enable bool) PlatformOption {
	return func(o *platformOptions) {
		o.recoverPanics = enable
	}
}

// WithOnBeforeInvoke sets a hook called before each handler invocation.
func WithOnBeforeInvoke(fn func(ctx context.Context, instanceID string, inv Invocation)) PlatformOption {
	return func(o *platformOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterInvoke sets a hook called after each handler invocation settles,
// success or failure, with the final InvocationSummary.
func WithOnAfterInvoke(fn func(ctx context.Context, summary InvocationSummary, dur time.Duration)) PlatformOption {
	return func(o *platformOptions) {
		o.onAfter = fn
	}
}

// WithOnFailure sets the uniform failure channel: handler failures, rejected
// result applies, and fragment behavior errors are all delivered here for the
// shell to render as a notification. Nothing delivered here is fatal; the
// instance returns to idle.
func WithOnFailure(fn func(ctx context.Context, err error)) PlatformOption {
	return func(o *platformOptions) {
		o.onFailure = fn
	}
}

// InstanceOption configures one opened Instance.
type InstanceOption func(*instanceOptions)

type instanceOptions struct {
	load   LoadFunc
	runner ScriptRunner
}

// WithLoader sets the dependency load function for this instance. Acquire
// calls on the instance's Env delegate to it; results are memoized per
// instance, never across instances.
func WithLoader(load LoadFunc) InstanceOption {
	return func(o *instanceOptions) {
		o.load = load
	}
}

// WithScriptRunner sets the evaluator for Fragment.Script behaviors. Without
// one, mounting a script fragment reports a BehaviorError. Hosts embedding a
// real interpreter bind it here; the Attach form needs no runner.
func WithScriptRunner(runner ScriptRunner) InstanceOption {
	return func(o *instanceOptions) {
		o.runner = runner
	}
}
