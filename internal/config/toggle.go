package config

import (
	"strconv"
	"strings"

	"github.com/evsieve/evsieve-go/internal/evserror"
	"github.com/evsieve/evsieve-go/internal/hook"
	"github.com/evsieve/evsieve-go/internal/stream"
)

// toggleShiftKind distinguishes "advance to the next position" from
// "jump to a specific position" for one toggle= clause.
type toggleShiftKind int

const (
	toggleShiftNext toggleShiftKind = iota
	toggleShiftToIndex
)

type toggleShift struct {
	kind  toggleShiftKind
	index int // only meaningful when kind == toggleShiftToIndex
}

// ToggleAction is the aggregate effect of a --hook's toggle flag and
// toggle=[id][:index] clauses, or of a single control-FIFO `toggle`
// command line, before it has been resolved against a particular set of
// live toggle states.
type ToggleAction struct {
	global *toggleShift
	byID   map[string]toggleShift
}

// ParseToggleAction builds a ToggleAction from a bare --hook toggle flag
// and/or a list of toggle=[id][:index] clause bodies (or, for a control
// FIFO command, the whitespace-split arguments after "toggle").
func ParseToggleAction(hasToggleFlag bool, clauses []string) (ToggleAction, error) {
	action := ToggleAction{byID: make(map[string]toggleShift)}
	if hasToggleFlag {
		next := toggleShift{kind: toggleShiftNext}
		action.global = &next
	}

	for _, clause := range clauses {
		id, indexStr, hasIndex := strings.Cut(clause, ":")
		var shift toggleShift
		if !hasIndex {
			shift = toggleShift{kind: toggleShiftNext}
		} else {
			value, err := strconv.Atoi(indexStr)
			if err != nil {
				return ToggleAction{}, evserror.NewArgument("cannot interpret %q as an integer", indexStr)
			}
			if value == 0 {
				return ToggleAction{}, evserror.NewArgument("cannot use toggle index 0: toggle indices start at 1")
			}
			shift = toggleShift{kind: toggleShiftToIndex, index: value - 1}
		}

		if id == "" {
			if action.global != nil {
				return ToggleAction{}, evserror.NewArgument("a hook cannot have multiple unspecified toggle clauses")
			}
			global := shift
			action.global = &global
		} else {
			if _, exists := action.byID[id]; exists {
				return ToggleAction{}, evserror.NewArgument("a toggle=%s clause has been specified multiple times", id)
			}
			action.byID[id] = shift
		}
	}

	return action, nil
}

// Implement resolves this action against a concrete toggle-id table and
// returns the effects it needs to run on activation. toggleIndexByID must
// contain every id referenced in a byID clause, but need not contain
// toggles that have no id.
func (a ToggleAction) Implement(state *stream.State, toggleIndexByID map[string]stream.ToggleIndex) ([]hook.Effect, error) {
	var effects []hook.Effect
	var specified []stream.ToggleIndex

	for id, shift := range a.byID {
		index, ok := toggleIndexByID[id]
		if !ok {
			return nil, evserror.NewArgument("no toggle with the id %q exists", id)
		}
		if shift.kind == toggleShiftToIndex && shift.index >= state.Toggle(index).Size() {
			return nil, evserror.NewArgument("the index %d is out of range for the toggle with id %q", shift.index+1, id)
		}
		shift := shift
		index := index
		specified = append(specified, index)
		effects = append(effects, func(state *stream.State) {
			applyShift(state.Toggle(index), shift)
		})
	}

	if a.global != nil {
		shift := *a.global
		effects = append(effects, func(state *stream.State) {
			for _, toggle := range state.TogglesExcept(specified) {
				applyShift(toggle, shift)
			}
		})
	}

	return effects, nil
}

func applyShift(toggle *stream.ToggleState, shift toggleShift) {
	switch shift.kind {
	case toggleShiftNext:
		toggle.Advance()
	case toggleShiftToIndex:
		toggle.SetValueWrapped(shift.index)
	}
}
