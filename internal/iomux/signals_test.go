package iomux

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalsDrainReturnsForwardedSignal(t *testing.T) {
	s, err := NewSignals()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGHUP))

	require.Eventually(t, func() bool {
		e, err := New()
		require.NoError(t, err)
		defer e.Close()
		require.NoError(t, e.Add(s.Fd()))
		r, err := e.Wait(0)
		require.NoError(t, err)
		return len(r.Ready) == 1
	}, time.Second, 10*time.Millisecond, "the eventfd should become readable once SIGHUP is forwarded")

	signals := s.Drain()
	require.Len(t, signals, 1)
	assert.Equal(t, syscall.SIGHUP, signals[0])
}

func TestSignalsDrainIsEmptyWithoutASignal(t *testing.T) {
	s, err := NewSignals()
	require.NoError(t, err)
	defer s.Close()

	assert.Empty(t, s.Drain())
}
