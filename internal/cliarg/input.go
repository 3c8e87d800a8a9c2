package cliarg

import (
	"strings"

	"github.com/evsieve/evsieve-go/internal/config"
	"github.com/evsieve/evsieve-go/internal/evdevio"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
)

// inputDevice is a compiled --input argument, one per path it names.
type inputDevice struct {
	paths       []string
	domain      *evmodel.Domain
	grabMode    evdevio.GrabMode
	persistMode config.PersistMode
}

func compileInput(g Group, domains *evmodel.NamedDomains) (inputDevice, error) {
	var result inputDevice

	if domainStr, ok, err := g.UniqueClause("domain"); err != nil {
		return inputDevice{}, err
	} else if ok {
		if strings.HasPrefix(domainStr, "@") {
			return inputDevice{}, evserror.NewArgument(
				"there must be no @ in the domain name from \"domain=%s\"; \"@%s\" represents a filter meaning \"any event with domain %s\"; try specifying \"domain=%s\" instead",
				domainStr, domainStr[1:], domainStr[1:], domainStr[1:],
			)
		}
		if domainStr == "" {
			return inputDevice{}, evserror.NewArgument("the domain= clause of an input argument cannot be empty")
		}
		d := domains.Resolve(domainStr)
		result.domain = &d
	}

	grabValue, hasGrab, err := g.UniqueClauseOrDefaultIfFlag("grab", "auto")
	if err != nil {
		return inputDevice{}, err
	}
	result.grabMode = evdevio.GrabNone
	if hasGrab {
		switch grabValue {
		case "auto":
			result.grabMode = evdevio.GrabAuto
		case "force":
			result.grabMode = evdevio.GrabForce
		default:
			return inputDevice{}, evserror.NewArgument("invalid grab mode specified: %q", grabValue)
		}
	}

	if persistValue, ok, err := g.UniqueClause("persist"); err != nil {
		return inputDevice{}, err
	} else if ok {
		switch persistValue {
		case "reopen":
			result.persistMode = config.PersistReopen
		case "none":
			result.persistMode = config.PersistNone
		case "exit":
			result.persistMode = config.PersistExit
		case "full":
			result.persistMode = config.PersistFull
		default:
			return inputDevice{}, evserror.NewArgument("invalid persist mode specified: %q", persistValue)
		}
	} else {
		result.persistMode = config.PersistNone
	}

	paths, err := g.RequirePaths()
	if err != nil {
		return inputDevice{}, err
	}
	result.paths = paths

	if result.persistMode == config.PersistReopen || result.persistMode == config.PersistFull {
		for _, path := range paths {
			if isDirectEventDevice(path) {
				logWarning("it is a bad idea to enable persistence on paths like /dev/input/event* because the kernel does not guarantee that the number of each event device remains constant; identify event devices through their links in /dev/input/by-id/ instead")
				break
			}
		}
	}

	return result, nil
}

// isDirectEventDevice reports whether path has the form
// /dev/input/event[0-9]+, the unstable device-numbering scheme persist
// modes should avoid relying on.
func isDirectEventDevice(path string) bool {
	rest := strings.TrimPrefix(path, "/dev/input/event")
	if rest == path || rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
