package circuit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := New("status", WithFailureThreshold(3))

	assert.Equal(t, StateChange{}, b.Record(errBoom))
	assert.Equal(t, StateChange{}, b.Record(errBoom))
	assert.False(t, b.IsOpen())

	assert.Equal(t, StateChange{Opened: true}, b.Record(errBoom))
	assert.True(t, b.IsOpen())
	assert.Equal(t, "open", b.State().String())

	assert.Equal(t, StateChange{}, b.Record(errBoom), "already open")
	assert.Equal(t, 4, b.Failures())
}

func TestBreakerSuccessResetsFailureRun(t *testing.T) {
	b := New("status", WithFailureThreshold(2))

	b.Record(errBoom)
	b.Record(nil)
	assert.Equal(t, StateChange{}, b.Record(errBoom))
	assert.False(t, b.IsOpen())
}

func TestBreakerClosesAfterSuccesses(t *testing.T) {
	b := New("status", WithFailureThreshold(1), WithSuccessThreshold(2))
	b.Record(errBoom)
	assert.True(t, b.IsOpen())

	assert.Equal(t, StateChange{}, b.Record(nil))
	assert.Equal(t, StateChange{Closed: true}, b.Record(nil))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerReset(t *testing.T) {
	b := New("status", WithFailureThreshold(1))
	b.Record(errBoom)
	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Zero(t, b.Failures())
	assert.Equal(t, "status", b.Name())
}
