package cliarg

import (
	"strings"

	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/transform"
)

// toggleArg is a compiled --toggle argument, not yet bound to a
// stream.State toggle slot: id-bound toggles get their slot reserved up
// front so --hook arguments earlier on the command line can reference an
// id that is only defined later.
type toggleArg struct {
	inputKey   keyfilter.Key
	outputKeys []keyfilter.Key
	id         string
	hasID      bool
	mode       transform.ToggleMode
}

func (t toggleArg) size() int { return len(t.outputKeys) }

func compileToggle(g Group) (toggleArg, error) {
	var result toggleArg

	modeStr, ok, err := g.UniqueClause("mode")
	if err != nil {
		return toggleArg{}, err
	}
	result.mode = transform.ToggleModeConsistent
	if ok {
		switch modeStr {
		case "consistent":
			result.mode = transform.ToggleModeConsistent
		case "passive":
			result.mode = transform.ToggleModePassive
		default:
			return toggleArg{}, evserror.NewArgument("invalid toggle mode specified: %q", modeStr)
		}
	}

	keyStrs, err := g.RequireKeys()
	if err != nil {
		return toggleArg{}, err
	}
	if len(keyStrs) < 2 {
		return toggleArg{}, evserror.NewArgument("a --toggle argument requires an input key and at least one output key")
	}

	result.inputKey, err = (keyfilter.Parser{
		AllowTransitions: true,
		AllowRanges:      true,
		Namespace:        evmodel.NamespaceUser,
	}).Parse(keyStrs[0])
	if err != nil {
		return toggleArg{}, err
	}

	result.outputKeys, err = (keyfilter.Parser{Namespace: evmodel.NamespaceUser}).ParseAll(keyStrs[1:])
	if err != nil {
		return toggleArg{}, err
	}

	if id, ok, err := g.UniqueClause("id"); err != nil {
		return toggleArg{}, err
	} else if ok {
		if strings.Contains(id, ":") {
			return toggleArg{}, evserror.NewArgument("a toggle's id cannot contain any colons; offending id: %q", id)
		}
		result.id = id
		result.hasID = true
	}

	return result, nil
}
