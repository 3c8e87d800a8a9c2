// Package stream implements the transformer chain: the double-buffered
// pipeline that feeds one ingested event through every configured stage in
// order, plus the State shared across stages for memory that must persist
// between events (currently, toggle position memory).
package stream

import (
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
)

// ToggleIndex identifies one toggle's state slot inside a State.
type ToggleIndex int

// ToggleState is the runtime memory of one --toggle argument: which of its
// N outputs is currently selected, and, for toggles running in Consistent
// mode, which output each distinct channel was last routed to.
type ToggleState struct {
	value  int
	size   int
	Memory map[evmodel.Channel]int
}

// NewToggleState builds a ToggleState with size possible positions,
// starting at position 0.
func NewToggleState(size int) (*ToggleState, error) {
	if size <= 0 {
		return nil, evserror.NewInternal("a toggle requires at least one state")
	}
	return &ToggleState{size: size, Memory: make(map[evmodel.Channel]int)}, nil
}

func (t *ToggleState) Advance() {
	t.value = (t.value + 1) % t.size
}

func (t *ToggleState) Value() int { return t.value }

func (t *ToggleState) SetValueWrapped(value int) {
	t.value = ((value % t.size) + t.size) % t.size
}

func (t *ToggleState) Size() int { return t.size }

// State is the memory shared by every stage of one chain across the
// events that flow through it.
type State struct {
	toggles []*ToggleState
}

func NewState() *State {
	return &State{}
}

// PushToggle registers a new toggle's state and returns the index other
// stages use to look it up later.
func (s *State) PushToggle(t *ToggleState) ToggleIndex {
	s.toggles = append(s.toggles, t)
	return ToggleIndex(len(s.toggles) - 1)
}

// Toggle returns the toggle state previously registered at index.
func (s *State) Toggle(index ToggleIndex) *ToggleState {
	return s.toggles[index]
}

// TogglesExcept iterates every toggle state except the ones listed,
// used by --toggle's default "advance every other toggle on this key"
// shorthand.
func (s *State) TogglesExcept(excluded []ToggleIndex) []*ToggleState {
	out := make([]*ToggleState, 0, len(s.toggles))
	for i, t := range s.toggles {
		skip := false
		for _, e := range excluded {
			if int(e) == i {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, t)
		}
	}
	return out
}
