package cliarg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evsieve/evsieve-go/internal/config"
	"github.com/evsieve/evsieve-go/internal/evmodel"
)

func TestCompileOutputDefaults(t *testing.T) {
	g, err := ParseGroup([]string{"--output"}, []string{"repeat"}, []string{"create-link", "name", "repeat"}, false, true)
	require.NoError(t, err)

	device, err := compileOutput(g)
	require.NoError(t, err)
	assert.Equal(t, defaultOutputName, device.name)
	assert.Equal(t, config.RepeatPassive, device.repeatMode)
	assert.Empty(t, device.symlinkPath)
}

func TestCompileOutputBareRepeatFlagMeansEnable(t *testing.T) {
	g, err := ParseGroup([]string{"--output", "repeat"}, []string{"repeat"}, []string{"create-link", "name", "repeat"}, false, true)
	require.NoError(t, err)

	device, err := compileOutput(g)
	require.NoError(t, err)
	assert.Equal(t, config.RepeatEnable, device.repeatMode)
}

func TestCompileOutputRejectsEmptyName(t *testing.T) {
	g, err := ParseGroup([]string{"--output", "name="}, []string{"repeat"}, []string{"create-link", "name", "repeat"}, false, true)
	require.NoError(t, err)

	_, err = compileOutput(g)
	assert.Error(t, err)
}

func TestCompileOutputCapturesCreateLink(t *testing.T) {
	g, err := ParseGroup([]string{"--output", "create-link=/dev/input/by-id/evsieve"}, []string{"repeat"}, []string{"create-link", "name", "repeat"}, false, true)
	require.NoError(t, err)

	device, err := compileOutput(g)
	require.NoError(t, err)
	assert.Equal(t, "/dev/input/by-id/evsieve", device.symlinkPath)
}

func TestCompileOutputKeyMatchesBothUserAndYieldedNamespace(t *testing.T) {
	g, err := ParseGroup([]string{"--output", "key:a"}, []string{"repeat"}, []string{"create-link", "name", "repeat"}, false, true)
	require.NoError(t, err)

	device, err := compileOutput(g)
	require.NoError(t, err)
	require.Len(t, device.keys, 2)

	code := evmodel.NewEventCode(evmodel.EvKey, 30)
	userEvent := evmodel.Event{Code: code, Namespace: evmodel.NamespaceUser, Value: 1}
	yieldedEvent := evmodel.Event{Code: code, Namespace: evmodel.NamespaceYielded, Value: 1}
	assert.True(t, device.keys[0].Matches(userEvent) || device.keys[1].Matches(userEvent))
	assert.True(t, device.keys[0].Matches(yieldedEvent) || device.keys[1].Matches(yieldedEvent))
}
