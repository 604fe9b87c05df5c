package toolbake

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueError_WrapsSentinel(t *testing.T) {
	err := error(&ValueError{Widget: "n", Reason: "kind mismatch", Err: ErrInvalidWidgetValue})
	assert.ErrorIs(t, err, ErrInvalidWidgetValue)
	assert.True(t, IsValueError(err))
	assert.Contains(t, err.Error(), `"n"`)

	notFound := error(&ValueError{Widget: "x", Reason: "no such widget", Err: ErrWidgetNotFound})
	assert.ErrorIs(t, notFound, ErrWidgetNotFound)
	assert.NotErrorIs(t, notFound, ErrInvalidWidgetValue)
}

func TestHandlerError_UnwrapsBothWays(t *testing.T) {
	cause := errors.New("codec exploded")
	err := error(&HandlerError{Tool: "convert", Err: cause})
	assert.ErrorIs(t, err, ErrHandlerFailed)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsHandlerError(err))
	assert.Contains(t, err.Error(), "codec exploded")

	var he *HandlerError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "convert", he.Tool)
}

func TestLoadError_UnwrapsBothWays(t *testing.T) {
	cause := errors.New("network down")
	err := error(&LoadError{Module: "ffmpeg", Err: cause})
	assert.ErrorIs(t, err, ErrDependencyLoad)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `"ffmpeg"`)
}

func TestBehaviorError_UnwrapsBothWays(t *testing.T) {
	cause := errors.New("attach blew up")
	err := error(&BehaviorError{Widget: "preview", Err: cause})
	assert.ErrorIs(t, err, ErrFragmentBehavior)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsBehaviorError(err))
}

func TestPanicError_Message(t *testing.T) {
	err := error(&panicError{p: "boom"})
	assert.Equal(t, "panic: boom", err.Error())
}
