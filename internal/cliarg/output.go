package cliarg

import (
	"github.com/evsieve/evsieve-go/internal/config"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
)

const defaultOutputName = "Evsieve Virtual Device"

// outputDevice is a compiled --output argument.
type outputDevice struct {
	symlinkPath string
	name        string
	keys        []keyfilter.Key
	repeatMode  config.RepeatMode
}

func compileOutput(g Group) (outputDevice, error) {
	var result outputDevice

	repeatValue, hasRepeat, err := g.UniqueClauseOrDefaultIfFlag("repeat", "enable")
	if err != nil {
		return outputDevice{}, err
	}
	result.repeatMode = config.RepeatPassive
	if hasRepeat {
		switch repeatValue {
		case "enable":
			result.repeatMode = config.RepeatEnable
		case "disable":
			result.repeatMode = config.RepeatDisable
		case "passive":
			result.repeatMode = config.RepeatPassive
		default:
			return outputDevice{}, evserror.NewArgument("invalid repeat mode %q", repeatValue)
		}
	}

	name, ok, err := g.UniqueClause("name")
	if err != nil {
		return outputDevice{}, err
	}
	if !ok {
		name = defaultOutputName
	}
	if name == "" {
		return outputDevice{}, evserror.NewArgument("output device name cannot be empty")
	}
	result.name = name

	if link, ok, err := g.UniqueClause("create-link"); err != nil {
		return outputDevice{}, err
	} else if ok {
		result.symlinkPath = link
	}

	keyStrs := g.KeysOrEmptyKey()
	for _, namespace := range []evmodel.Namespace{evmodel.NamespaceUser, evmodel.NamespaceYielded} {
		parser := keyfilter.Parser{AllowRanges: true, AllowTransitions: true, Namespace: namespace}
		keys, err := parser.ParseAll(keyStrs)
		if err != nil {
			return outputDevice{}, err
		}
		result.keys = append(result.keys, keys...)
	}

	return result, nil
}
