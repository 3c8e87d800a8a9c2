// Package cliarg compiles the command line into a config.Pipeline: it
// classifies the tokens following each --flag into paths, keys, clauses
// and bare flags, then hands them to one compiler per argument kind.
package cliarg

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/evsieve/evsieve-go/internal/evserror"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
)

// devIDDir is where evsieve looks for a non-absolute path the user
// probably meant as a symlink under /dev/input/by-id.
const devIDDir = "/dev/input/by-id"

// Group is one "--flag token token token..." run, already sorted into
// its constituent paths, keys, bare flags and name=value clauses.
type Group struct {
	// Name is the flag that started this group, e.g. "--input".
	Name string

	flags   []string
	clauses []clause
	Keys    []string
	Paths   []string
}

type clause struct {
	name  string
	value string
}

// ParseGroup classifies every token in args[1:] against the flag/clause
// vocabulary an argument kind declares it accepts. args[0] is the flag
// name itself and is never classified.
func ParseGroup(args []string, supportedFlags, supportedClauses []string, supportsPaths, supportsKeys bool) (Group, error) {
	if len(args) == 0 {
		return Group{}, evserror.NewInternal("created an argument group out of no arguments")
	}
	g := Group{Name: args[0]}

	for _, arg := range args[1:] {
		if isPath(arg) {
			if !supportsPaths {
				return Group{}, evserror.NewArgument("the %s argument doesn't take any paths: %q", g.Name, arg)
			}
			g.Paths = append(g.Paths, arg)
			continue
		}

		if keyfilter.ResemblesKey(arg) {
			if !supportsKeys {
				return Group{}, evserror.NewArgument("the %s argument doesn't take any keys: %q", g.Name, arg)
			}
			g.Keys = append(g.Keys, arg)
			continue
		}

		name, value, hasValue := strings.Cut(arg, "=")

		if hasValue {
			if contains(supportedClauses, name) {
				g.clauses = append(g.clauses, clause{name: name, value: value})
				continue
			}
			if contains(supportedFlags, name) {
				return Group{}, evserror.NewArgument(
					"the %s argument's %s flag doesn't accept a value; try removing the \"=%s\" part",
					g.Name, name, value,
				)
			}
			return Group{}, evserror.NewArgument("the %s argument doesn't accept a %s clause: %q", g.Name, name, arg)
		}

		if contains(supportedFlags, name) {
			if contains(g.flags, name) {
				return Group{}, evserror.NewArgument("the %s flag has been provided multiple times", name)
			}
			g.flags = append(g.flags, name)
			continue
		}

		// The argument is invalid: diagnose the most likely mistake.
		if contains(supportedClauses, name) {
			return Group{}, evserror.NewArgument("the %s argument's %s clause requires some value: \"%s=something\"", g.Name, name, name)
		}
		if absPath, ok := resemblesNonabsolutePath(arg); ok {
			if supportsPaths {
				return Group{}, evserror.NewArgument(
					"%q looks like it is a path; paths must be provided in absolute form starting with a /, try %q instead",
					arg, absPath,
				)
			}
			return Group{}, evserror.NewArgument("%q looks like it is a path, but the %s argument doesn't take any paths", arg, g.Name)
		}
		return Group{}, evserror.NewArgument("the %s argument doesn't take a %s flag", g.Name, name)
	}

	return g, nil
}

func (g Group) HasFlag(name string) bool { return contains(g.flags, name) }

// Clauses returns every value given to a name=value clause with the given
// name, in the order they appeared.
func (g Group) Clauses(name string) []string {
	var values []string
	for _, c := range g.clauses {
		if c.name == name {
			values = append(values, c.value)
		}
	}
	return values
}

// UniqueClause returns the single value given to a clause that may appear
// at most once, erroring if it was given more than once.
func (g Group) UniqueClause(name string) (string, bool, error) {
	values := g.Clauses(name)
	switch len(values) {
	case 0:
		return "", false, nil
	case 1:
		return values[0], true, nil
	default:
		return "", false, evserror.NewArgument("multiple copies of the %s= clause have been provided to %s", name, g.Name)
	}
}

// RequireUniqueClause is UniqueClause but requires the clause to be
// present at all.
func (g Group) RequireUniqueClause(name string) (string, error) {
	value, ok, err := g.UniqueClause(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", evserror.NewArgument("the %s argument requires a %s= clause", g.Name, name)
	}
	return value, nil
}

// UniqueClauseOrDefaultIfFlag resolves a clause/flag pair that share a
// name, e.g. "grab" and "grab=force": returns the clause's value, or
// defaultIfFlag if only the bare flag was given, or ok=false if neither
// was given. It is an error to give both the flag and the clause.
func (g Group) UniqueClauseOrDefaultIfFlag(name, defaultIfFlag string) (string, bool, error) {
	hasFlag := g.HasFlag(name)
	values := g.Clauses(name)
	if hasFlag && len(values) > 0 {
		return "", false, evserror.NewArgument("cannot specify both the %s flag and a %s clause", name, name)
	}
	value, ok, err := g.UniqueClause(name)
	if err != nil {
		return "", false, err
	}
	if ok {
		return value, true, nil
	}
	if hasFlag {
		return defaultIfFlag, true, nil
	}
	return "", false, nil
}

// RequirePaths returns every path given, erroring if none were.
func (g Group) RequirePaths() ([]string, error) {
	if len(g.Paths) == 0 {
		return nil, evserror.NewArgument("the %s argument requires a path; remember that all paths must be provided as absolute paths", g.Name)
	}
	return g.Paths, nil
}

// RequireKeys returns every key given, erroring if none were.
func (g Group) RequireKeys() ([]string, error) {
	if len(g.Keys) == 0 {
		return nil, evserror.NewArgument("the %s argument requires a key", g.Name)
	}
	return g.Keys, nil
}

// KeysOrEmptyKey returns every key given, or a single "" key (which
// matches everything) if none were, used by arguments where an absent
// key list means "apply to every event".
func (g Group) KeysOrEmptyKey() []string {
	if len(g.Keys) == 0 {
		return []string{""}
	}
	return g.Keys
}

func isPath(s string) bool { return strings.HasPrefix(s, "/") }

// resemblesNonabsolutePath checks whether arg resolves to an existing file
// under the current directory or /dev/input/by-id when joined as a
// relative path, to steer a likely typo ("my-keyboard" instead of
// "/dev/input/by-id/my-keyboard") toward a helpful suggestion.
func resemblesNonabsolutePath(arg string) (string, bool) {
	startingPoints := []string{devIDDir}
	if cwd, err := os.Getwd(); err == nil {
		startingPoints = append(startingPoints, cwd)
	}
	for _, start := range startingPoints {
		candidate := filepath.Join(start, arg)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
