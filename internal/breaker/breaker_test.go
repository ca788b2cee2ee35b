package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func TestNew_TripsOnConsecutiveFailures(t *testing.T) {
	s := DefaultSettings()
	s.ConsecutiveFailures = 3
	cb := New("test", s, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, errUpstream })
		require.ErrorIs(t, err, errUpstream)
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	assert.True(t, IsOpen(err), "expected open-state rejection, got %v", err)
}

func TestNew_HalfOpenRecovers(t *testing.T) {
	s := DefaultSettings()
	s.ConsecutiveFailures = 1
	s.OpenTimeout = 20 * time.Millisecond
	cb := New("test", s, zerolog.Nop())

	_, _ = cb.Execute(func() (interface{}, error) { return nil, errUpstream })
	require.Equal(t, gobreaker.StateOpen, cb.State())

	time.Sleep(40 * time.Millisecond)

	res, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestIsOpen(t *testing.T) {
	assert.True(t, IsOpen(gobreaker.ErrOpenState))
	assert.True(t, IsOpen(gobreaker.ErrTooManyRequests))
	assert.False(t, IsOpen(errUpstream))
	assert.False(t, IsOpen(nil))
}
