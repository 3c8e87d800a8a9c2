package transform

import (
	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
	"github.com/evsieve/evsieve-go/internal/stream"
)

// ToggleMode selects how a Toggle decides which output key applies to a
// given key-up event once the active position has changed since the
// matching key-down.
type ToggleMode int

const (
	// ToggleModePassive always routes to whatever output key is currently
	// active, even if it has changed since a key was pressed.
	ToggleModePassive ToggleMode = iota
	// ToggleModeConsistent remembers, per channel, which output key a
	// key-down was routed to and routes the matching key-up the same way.
	ToggleModeConsistent
)

// Toggle cycles between several output keys each time --toggle's control
// key activates elsewhere (or this argument's own effect() is invoked),
// routing events matching InputKey to whichever output key is currently
// selected.
type Toggle struct {
	InputKey   keyfilter.Key
	OutputKeys []keyfilter.Key
	Mode       ToggleMode
	StateIndex stream.ToggleIndex
}

// NewToggle registers (or reuses, if predeterminedIndex is set) a toggle
// state slot sized to len(outputKeys) and returns the configured Toggle.
func NewToggle(inputKey keyfilter.Key, outputKeys []keyfilter.Key, mode ToggleMode, state *stream.State, predeterminedIndex *stream.ToggleIndex) (Toggle, error) {
	numOutputs := len(outputKeys)
	var index stream.ToggleIndex
	if predeterminedIndex != nil {
		if state.Toggle(*predeterminedIndex).Size() != numOutputs {
			return Toggle{}, evserror.NewInternal("the toggle's index size does not match up with the toggle")
		}
		index = *predeterminedIndex
	} else {
		toggleState, err := stream.NewToggleState(numOutputs)
		if err != nil {
			return Toggle{}, err
		}
		index = state.PushToggle(toggleState)
	}
	return Toggle{InputKey: inputKey, OutputKeys: outputKeys, Mode: mode, StateIndex: index}, nil
}

func (t Toggle) activeOutputKey(state *stream.State) keyfilter.Key {
	return t.OutputKeys[state.Toggle(t.StateIndex).Value()]
}

func (t Toggle) activeOutputKeyForEvent(event evmodel.Event, state *stream.State) keyfilter.Key {
	if t.Mode == ToggleModePassive {
		return t.activeOutputKey(state)
	}
	if index, ok := state.Toggle(t.StateIndex).Memory[event.Channel()]; ok {
		return t.OutputKeys[index]
	}
	return t.activeOutputKey(state)
}

// remember records, in Consistent mode, which output key a pressed key
// was routed through, so the matching release follows the same key even
// if the active position changes in between. Must run after
// activeOutputKeyForEvent so it doesn't erase the memory that call reads.
func (t Toggle) remember(event evmodel.Event, state *stream.State) {
	if t.Mode != ToggleModeConsistent || !event.Code.Type.IsKey() || !t.InputKey.Matches(event) {
		return
	}
	toggleState := state.Toggle(t.StateIndex)
	channel := event.Channel()
	if event.Value == 0 {
		delete(toggleState.Memory, channel)
	} else if _, ok := toggleState.Memory[channel]; !ok {
		toggleState.Memory[channel] = toggleState.Value()
	}
}

func (t Toggle) ApplyToAll(events []evmodel.Event, out *[]evmodel.Event, state *stream.State, _ *loopback.Loopback) {
	for _, event := range events {
		t.apply(event, out, state)
	}
}

func (t Toggle) apply(event evmodel.Event, out *[]evmodel.Event, state *stream.State) {
	if !t.InputKey.Matches(event) {
		*out = append(*out, event)
		return
	}
	activeOutput := t.activeOutputKeyForEvent(event, state)
	t.remember(event, state)
	*out = append(*out, activeOutput.Merge(event))
}

func (t Toggle) ApplyToAllCaps(caps []capset.Capability) []capset.Capability {
	asMap := Map{InputKey: t.InputKey, OutputKeys: t.OutputKeys}
	return asMap.ApplyToAllCaps(caps)
}

// Advance moves this toggle's active position to the next output key,
// wrapping around. Called by the control FIFO's "toggle" command and by
// a hook's send-toggle effect.
func (t Toggle) Advance(state *stream.State) {
	state.Toggle(t.StateIndex).Advance()
}
