package cliarg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evsieve/evsieve-go/internal/transform"
)

func TestCompileToggleDefaultsToConsistentMode(t *testing.T) {
	g, err := ParseGroup([]string{"--toggle", "key:a", "key:b", "key:c"}, nil, []string{"id", "mode"}, false, true)
	require.NoError(t, err)

	toggle, err := compileToggle(g)
	require.NoError(t, err)
	assert.Equal(t, transform.ToggleModeConsistent, toggle.mode)
	assert.Equal(t, 2, toggle.size())
	assert.False(t, toggle.hasID)
}

func TestCompileToggleRejectsSingleKey(t *testing.T) {
	g, err := ParseGroup([]string{"--toggle", "key:a"}, nil, []string{"id", "mode"}, false, true)
	require.NoError(t, err)

	_, err = compileToggle(g)
	assert.Error(t, err)
}

func TestCompileToggleRejectsUnknownMode(t *testing.T) {
	g, err := ParseGroup([]string{"--toggle", "key:a", "key:b", "mode=bogus"}, nil, []string{"id", "mode"}, false, true)
	require.NoError(t, err)

	_, err = compileToggle(g)
	assert.Error(t, err)
}

func TestCompileToggleRejectsColonInID(t *testing.T) {
	g, err := ParseGroup([]string{"--toggle", "key:a", "key:b", "id=foo:bar"}, nil, []string{"id", "mode"}, false, true)
	require.NoError(t, err)

	_, err = compileToggle(g)
	assert.Error(t, err)
}

func TestCompileToggleCapturesID(t *testing.T) {
	g, err := ParseGroup([]string{"--toggle", "key:a", "key:b", "id=myToggle"}, nil, []string{"id", "mode"}, false, true)
	require.NoError(t, err)

	toggle, err := compileToggle(g)
	require.NoError(t, err)
	assert.True(t, toggle.hasID)
	assert.Equal(t, "myToggle", toggle.id)
}
