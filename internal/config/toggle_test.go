package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evsieve/evsieve-go/internal/stream"
)

func TestParseToggleActionBareFlag(t *testing.T) {
	action, err := ParseToggleAction(true, nil)
	require.NoError(t, err)

	state := stream.NewState()
	toggleState, err := stream.NewToggleState(3)
	require.NoError(t, err)
	index := state.PushToggle(toggleState)

	effects, err := action.Implement(state, map[string]stream.ToggleIndex{})
	require.NoError(t, err)
	require.Len(t, effects, 1)

	effects[0](state)
	assert.Equal(t, 1, state.Toggle(index).Value())
}

func TestParseToggleActionByIDWithIndex(t *testing.T) {
	action, err := ParseToggleAction(false, []string{"kb:2"})
	require.NoError(t, err)

	state := stream.NewState()
	toggleState, err := stream.NewToggleState(3)
	require.NoError(t, err)
	index := state.PushToggle(toggleState)

	effects, err := action.Implement(state, map[string]stream.ToggleIndex{"kb": index})
	require.NoError(t, err)
	require.Len(t, effects, 1)

	effects[0](state)
	assert.Equal(t, 1, state.Toggle(index).Value()) // "2" is 1-indexed, so position 1
}

func TestParseToggleActionRejectsIndexZero(t *testing.T) {
	_, err := ParseToggleAction(false, []string{"kb:0"})
	assert.Error(t, err)
}

func TestParseToggleActionRejectsDuplicateGlobalClause(t *testing.T) {
	_, err := ParseToggleAction(false, []string{":1", ":2"})
	assert.Error(t, err)
}

func TestParseToggleActionRejectsUnknownID(t *testing.T) {
	action, err := ParseToggleAction(false, []string{"nope:1"})
	require.NoError(t, err)

	state := stream.NewState()
	_, err = action.Implement(state, map[string]stream.ToggleIndex{})
	assert.Error(t, err)
}

func TestParseToggleActionRejectsOutOfRangeIndex(t *testing.T) {
	action, err := ParseToggleAction(false, []string{"kb:5"})
	require.NoError(t, err)

	state := stream.NewState()
	toggleState, err := stream.NewToggleState(2)
	require.NoError(t, err)
	index := state.PushToggle(toggleState)

	_, err = action.Implement(state, map[string]stream.ToggleIndex{"kb": index})
	assert.Error(t, err)
}
