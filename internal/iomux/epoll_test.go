package iomux

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpollWaitReportsReadyDescriptor(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	defer e.Close()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	require.NoError(t, e.Add(int(r.Fd())))

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	readiness, err := e.Wait(1000)
	require.NoError(t, err)
	assert.Equal(t, []int{int(r.Fd())}, readiness.Ready)
	assert.Empty(t, readiness.Hup)
	assert.Empty(t, readiness.Err)
}

func TestEpollWaitTimesOutWhenNothingIsReady(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	defer e.Close()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	require.NoError(t, e.Add(int(r.Fd())))

	start := time.Now()
	readiness, err := e.Wait(50)
	require.NoError(t, err)
	assert.True(t, readiness.Empty())
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestEpollWaitReportsHupOnClosedWriteEnd(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	defer e.Close()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, e.Add(int(r.Fd())))
	require.NoError(t, w.Close())

	readiness, err := e.Wait(1000)
	require.NoError(t, err)
	assert.Contains(t, readiness.Hup, int(r.Fd()))
}

func TestEpollRemoveStopsReporting(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	defer e.Close()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	require.NoError(t, e.Add(int(r.Fd())))
	require.NoError(t, e.Remove(int(r.Fd())))

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	readiness, err := e.Wait(50)
	require.NoError(t, err)
	assert.True(t, readiness.Empty())
}
