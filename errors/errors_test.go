package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestIs(t *testing.T) {
	err1 := New("error 1")
	err2 := New("error 2")
	wrapped := Wrap(err1, "wrapped")

	assert.True(t, Is(wrapped, err1))
	assert.False(t, Is(wrapped, err2))
	assert.False(t, Is(nil, err1))
}

type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}

func TestAs(t *testing.T) {
	original := &customError{msg: "custom"}
	wrapped := Wrap(original, "wrapped")

	var target *customError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "custom", target.msg)
}

func TestIsRollbackInfrastructure(t *testing.T) {
	assert.False(t, IsRollbackInfrastructure(nil))
	assert.False(t, IsRollbackInfrastructure(New("plain failure")))

	err := WrapRollbackInfrastructure(New("connection refused"), "fetching stable archive")
	assert.True(t, IsRollbackInfrastructure(err))
	assert.Contains(t, err.Error(), "fetching stable archive")
}

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrEmptyRelease, "after extraction")
	assert.True(t, Is(err, ErrEmptyRelease))
}
