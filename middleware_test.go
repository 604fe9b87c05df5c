package toolbake

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triggerOnly(id string) []WidgetDefinition {
	return []WidgetDefinition{{ID: id, Kind: KindBool}}
}

// openUsing builds a platform, installs middlewares before the instance is
// opened, and wires the summary channel.
func openUsing(t *testing.T, def *ToolDefinition, mws []Middleware, popts ...PlatformOption) (*Platform, *Instance, chan InvocationSummary) {
	t.Helper()
	afterOpt, summaries := waitSummaries()
	p := NewPlatform(append([]PlatformOption{afterOpt}, popts...)...)
	p.Use(mws...)
	p.Register(def)
	inst, err := p.Open(def.Name())
	require.NoError(t, err)
	t.Cleanup(inst.Close)
	return p, inst, summaries
}

func TestWithLogging(t *testing.T) {
	var mu sync.Mutex
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&syncWriter{w: &buf, mu: &mu}, nil))

	def, err := NewToolDefinition("noisy", "d", triggerOnly("run"), func(_ *Env) Handler {
		return func(_ context.Context, _ Invocation, _ func(Values) error) (Result, error) {
			return Result{}, nil
		}
	})
	require.NoError(t, err)
	p, inst, summaries := openUsing(t, def, []Middleware{WithLogging(logger)})

	require.NoError(t, inst.Init())
	recvSummary(t, summaries)
	require.NoError(t, inst.Trigger("run"))
	recvSummary(t, summaries)

	mu.Lock()
	out := buf.String()
	mu.Unlock()
	assert.Contains(t, out, "invocation start")
	assert.Contains(t, out, "invocation end")
	assert.Contains(t, out, "trigger=<init>")
	assert.Contains(t, out, "trigger=run")
	shutdown(t, p)
}

func TestWithLogging_Error(t *testing.T) {
	var mu sync.Mutex
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&syncWriter{w: &buf, mu: &mu}, nil))

	def, err := NewToolDefinition("broken", "d", triggerOnly("run"), func(_ *Env) Handler {
		return func(_ context.Context, _ Invocation, _ func(Values) error) (Result, error) {
			return Result{}, assert.AnError
		}
	})
	require.NoError(t, err)
	p, inst, summaries := openUsing(t, def, []Middleware{WithLogging(logger)})

	require.NoError(t, inst.Trigger("run"))
	s := recvSummary(t, summaries)
	require.Error(t, s.Err)

	mu.Lock()
	out := buf.String()
	mu.Unlock()
	assert.Contains(t, out, "invocation error")
	shutdown(t, p)
}

func TestWithRecovery(t *testing.T) {
	def, err := NewToolDefinition("panicky", "d", triggerOnly("run"), func(_ *Env) Handler {
		return func(_ context.Context, _ Invocation, _ func(Values) error) (Result, error) {
			panic("boom")
		}
	})
	require.NoError(t, err)

	// Platform recovery off; the middleware alone keeps the run loop alive.
	p, inst, summaries := openUsing(t, def, []Middleware{WithRecovery()}, WithRecoverPanics(false))

	require.NoError(t, inst.Trigger("run"))
	s := recvSummary(t, summaries)
	require.Error(t, s.Err)
	assert.Contains(t, s.Err.Error(), "boom")
	shutdown(t, p)
}

func TestWithTimeoutMiddleware(t *testing.T) {
	def, err := NewToolDefinition("slow", "d", triggerOnly("run"), func(_ *Env) Handler {
		return func(ctx context.Context, _ Invocation, _ func(Values) error) (Result, error) {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(5 * time.Second):
				return Result{}, nil
			}
		}
	})
	require.NoError(t, err)
	p, inst, summaries := openUsing(t, def, []Middleware{WithTimeoutMiddleware(30 * time.Millisecond)})

	require.NoError(t, inst.Trigger("run"))
	s := recvSummary(t, summaries)
	require.Error(t, s.Err)
	assert.ErrorIs(t, s.Err, context.DeadlineExceeded)
	shutdown(t, p)
}

// Chains apply outermost-first: the first middleware given to Use wraps
// closest to the caller, the last closest to the handler.
func TestMiddlewareOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	tag := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, inv Invocation, push func(Values) error) (Result, error) {
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				return next(ctx, inv, push)
			}
		}
	}

	def, err := NewToolDefinition("ordered", "d", triggerOnly("run"), func(_ *Env) Handler {
		return func(_ context.Context, _ Invocation, _ func(Values) error) (Result, error) {
			mu.Lock()
			order = append(order, "handler")
			mu.Unlock()
			return Result{}, nil
		}
	})
	require.NoError(t, err)
	p, inst, summaries := openUsing(t, def, []Middleware{tag("outer"), tag("inner")})

	require.NoError(t, inst.Trigger("run"))
	recvSummary(t, summaries)

	mu.Lock()
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
	mu.Unlock()
	shutdown(t, p)
}

type syncWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
