package subprocess

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrySpawnRunsAndReapsSuccessfulCommand(t *testing.T) {
	require.NoError(t, TrySpawn("true", nil))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processes) == 0
	}, time.Second, 10*time.Millisecond, "the reaped process should be removed from the tracked list")
}

func TestTrySpawnReturnsErrorForMissingProgram(t *testing.T) {
	err := TrySpawn("this-program-does-not-exist-evsieve", nil)
	assert.Error(t, err)
}

func TestTerminateAllSignalsRunningChildren(t *testing.T) {
	require.NoError(t, TrySpawn("sleep", []string{"5"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processes) == 1
	}, time.Second, 10*time.Millisecond)

	TerminateAll()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processes) == 0
	}, 2*time.Second, 10*time.Millisecond, "the sleep process should exit once it is signalled")
}

func TestPrintableCommandQuotesArgsWithSpaces(t *testing.T) {
	got := printableCommand("echo", []string{"hello world", "plain"})
	assert.Equal(t, `echo "hello world" plain`, got)
}
