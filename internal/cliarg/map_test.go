package cliarg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evsieve/evsieve-go/internal/evmodel"
)

func TestCompileMapParsesInputAndOutputKeys(t *testing.T) {
	g, err := ParseGroup([]string{"--map", "key:a", "key:b"}, []string{"yield"}, nil, false, true)
	require.NoError(t, err)

	m, err := compileMap(g, false)
	require.NoError(t, err)

	a := evmodel.NewEventCode(evmodel.EvKey, 30)
	b := evmodel.NewEventCode(evmodel.EvKey, 48)
	assert.True(t, m.InputKey.Matches(evmodel.Event{Code: a, Namespace: evmodel.NamespaceUser, Value: 1}))
	require.Len(t, m.OutputKeys, 1)
	assert.True(t, m.OutputKeys[0].Matches(evmodel.Event{Code: b, Namespace: evmodel.NamespaceUser, Value: 1}))
}

func TestCompileMapRequiresAtLeastOneKey(t *testing.T) {
	g, err := ParseGroup([]string{"--map"}, []string{"yield"}, nil, false, true)
	require.NoError(t, err)

	_, err = compileMap(g, false)
	assert.Error(t, err)
}

func TestCompileMapYieldFlagSendsOutputToYieldedNamespace(t *testing.T) {
	g, err := ParseGroup([]string{"--map", "key:a", "key:b", "yield"}, []string{"yield"}, nil, false, true)
	require.NoError(t, err)

	m, err := compileMap(g, false)
	require.NoError(t, err)
	require.Len(t, m.OutputKeys, 1)

	b := evmodel.NewEventCode(evmodel.EvKey, 48)
	assert.False(t, m.OutputKeys[0].Matches(evmodel.Event{Code: b, Namespace: evmodel.NamespaceUser, Value: 1}))
	assert.True(t, m.OutputKeys[0].Matches(evmodel.Event{Code: b, Namespace: evmodel.NamespaceYielded, Value: 1}))
}

func TestCompileMapCopyPrependsIdentityCopyKey(t *testing.T) {
	g, err := ParseGroup([]string{"--copy", "key:a"}, []string{"yield"}, nil, false, true)
	require.NoError(t, err)

	m, err := compileMap(g, true)
	require.NoError(t, err)
	require.Len(t, m.OutputKeys, 1)

	// the copy key matches absolutely everything, since it carries no
	// constraints of its own.
	assert.True(t, m.OutputKeys[0].Matches(evmodel.Event{}))
}

func TestCompileBlockDefaultsToWildcardKey(t *testing.T) {
	g, err := ParseGroup([]string{"--block"}, nil, nil, false, true)
	require.NoError(t, err)

	maps, err := compileBlock(g)
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Empty(t, maps[0].OutputKeys)
}

func TestCompileBlockProducesOneMapPerKey(t *testing.T) {
	g, err := ParseGroup([]string{"--block", "key:a", "key:b"}, nil, nil, false, true)
	require.NoError(t, err)

	maps, err := compileBlock(g)
	require.NoError(t, err)
	assert.Len(t, maps, 2)
}
