package controlfifo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFifoForWriting(t *testing.T, path string) *os.File {
	t.Helper()
	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func TestFifoPollParsesACompleteLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evsieve-control")
	fifo, err := Create(path)
	require.NoError(t, err)
	defer fifo.Close()

	w := openFifoForWriting(t, path)
	_, err = w.WriteString("toggle\n")
	require.NoError(t, err)

	var commands []Command
	require.Eventually(t, func() bool {
		cmds, err := fifo.Poll()
		require.NoError(t, err)
		commands = append(commands, cmds...)
		return len(commands) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, CommandToggle, commands[0].Kind)
}

func TestFifoPollBuffersPartialLineAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evsieve-control")
	fifo, err := Create(path)
	require.NoError(t, err)
	defer fifo.Close()

	w := openFifoForWriting(t, path)

	_, err = w.WriteString("tog")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		cmds, err := fifo.Poll()
		require.NoError(t, err)
		return len(cmds) == 0
	}, time.Second, 10*time.Millisecond)

	_, err = w.WriteString("gle\n")
	require.NoError(t, err)

	var commands []Command
	require.Eventually(t, func() bool {
		cmds, err := fifo.Poll()
		require.NoError(t, err)
		commands = append(commands, cmds...)
		return len(commands) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, CommandToggle, commands[0].Kind)
}

func TestFifoPollSkipsUnparsableLineButKeepsGoing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evsieve-control")
	fifo, err := Create(path)
	require.NoError(t, err)
	defer fifo.Close()

	w := openFifoForWriting(t, path)
	_, err = w.WriteString("frobnicate\ntoggle\n")
	require.NoError(t, err)

	var commands []Command
	require.Eventually(t, func() bool {
		cmds, err := fifo.Poll()
		require.NoError(t, err)
		commands = append(commands, cmds...)
		return len(commands) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, CommandToggle, commands[0].Kind)
}
