package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := NewCircuitBreaker("embed")

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, "embed", cb.Name())
	assert.Zero(t, cb.Failures())
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("embed", WithMaxFailures(3))
	boom := errors.New("endpoint down")

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return boom })
		require.ErrorIs(t, err, boom)
	}

	assert.Equal(t, StateOpen, cb.State())

	// Open circuit rejects without calling fn.
	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker("embed", WithMaxFailures(3))

	require.Error(t, cb.Execute(func() error { return errors.New("x") }))
	require.Error(t, cb.Execute(func() error { return errors.New("x") }))
	require.NoError(t, cb.Execute(func() error { return nil }))

	assert.Zero(t, cb.Failures())
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	cb := NewCircuitBreaker("embed",
		WithMaxFailures(1),
		WithResetTimeout(10*time.Millisecond))

	require.Error(t, cb.Execute(func() error { return errors.New("x") }))
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	// One successful probe closes the circuit again.
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("embed",
		WithMaxFailures(1),
		WithResetTimeout(10*time.Millisecond))

	require.Error(t, cb.Execute(func() error { return errors.New("x") }))
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	require.Error(t, cb.Execute(func() error { return errors.New("still down") }))
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitExecute_ReturnsValue(t *testing.T) {
	cb := NewCircuitBreaker("embed")

	got, err := CircuitExecute(cb, func() ([]float32, error) {
		return []float32{1, 0}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, got)
}
