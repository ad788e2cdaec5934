package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = stderrors.New("store down")

func TestTracerFromError(t *testing.T) {
	tracer := TracerFromError(errSentinel)

	assert.Equal(t, "store down", tracer.Error())
	assert.True(t, stderrors.Is(tracer, errSentinel))
	assert.NotNil(t, tracer.StackTrace())
}

func TestWrapTracer(t *testing.T) {
	tracer := WrapTracer(errSentinel, "scan trades")

	assert.Equal(t, "scan trades: store down", tracer.Error())
	assert.ErrorIs(t, tracer, errSentinel)
}

func TestWrap_KeepsExistingStack(t *testing.T) {
	inner := TracerFromError(errSentinel)
	outer := NewTracer("outer").Wrap(inner)

	assert.Same(t, inner, outer.Unwrap())
	assert.Equal(t, inner.StackTrace(), outer.StackTrace())
}

func TestBaseError(t *testing.T) {
	base := NewBaseError()
	assert.False(t, base.HasDetails())
	assert.False(t, base.IsAllCodeEqual(string(InvalidConfigError)))

	base.AddErrorDetails(
		NewErrorDetails("chunk size must be positive", string(InvalidConfigError), "chunk_size"),
		NewErrorDetails("parallelism must be positive", string(InvalidConfigError), "parallelism"),
		NewErrorDetails("chunk size must be positive", string(InvalidConfigError), "chunk_size"),
	)

	require.True(t, base.HasDetails())
	assert.True(t, base.IsAllCodeEqual(string(InvalidConfigError)))
	assert.True(t, base.IsAnyCodeEqual(string(InvalidConfigError)))
	assert.False(t, base.IsAnyCodeEqual(string(EmptyInputError)))
	assert.Equal(t, []string{"chunk_size", "parallelism"}, base.Fields())
	assert.Contains(t, base.Error(), "code: invalid_config_error; error: parallelism must be positive; field: parallelism")
}

func TestErrorCodeEquals(t *testing.T) {
	details := NewErrorDetails("boom", string(StoreUnavailableError), "")

	assert.True(t, ErrorCodeEquals(details, string(StoreUnavailableError)))
	assert.False(t, ErrorCodeEquals(details, string(EmptyInputError)))
	assert.False(t, ErrorCodeEquals(errSentinel, string(StoreUnavailableError)))
}
