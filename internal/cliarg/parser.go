package cliarg

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evsieve/evsieve-go/internal/config"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
	"github.com/evsieve/evsieve-go/internal/hook"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/stream"
	"github.com/evsieve/evsieve-go/internal/transform"
)

// Version is set from the build at link time, following the original's
// CARGO_PKG_VERSION convention; left blank for source builds.
var Version string

const usage = `Usage: evsieve [--input PATH... [domain=DOMAIN] [grab[=auto|force]] [persist=none|reopen|exit|full]]...
               [--map SOURCE [DEST...] [yield]]...
               [--copy SOURCE [DEST...] [yield]]...
               [--block [SOURCE...]]...
               [--toggle SOURCE DEST... [id=ID] [mode=consistent|passive]]...
               [--hook KEY... [exec-shell=COMMAND]... [send-key=KEY]... [send-event=KEY]... [toggle[=[ID][:INDEX]]]... [breaks-on=KEY]... [period=SECONDS] [sequential]]...
               [--withhold [KEY...]]...
               [--merge [KEY...]]...
               [--delay [KEY...] period=SECONDS]...
               [--scale [KEY...] factor=FACTOR]...
               [--oscillate [KEY...] period=SECONDS]...
               [--abs-to-rel SOURCE [DEST] [reset=KEY]...]...
               [--rel-to-abs SOURCE [DEST] min=MIN max=MAX [wrap]]...
               [--print [EVENTS...] [format=default|direct]]...
               [--control-fifo PATH]...
               [--output [EVENTS...] [create-link=PATH] [name=NAME] [repeat[=MODE]]]...`

// argSpec declares which flags/clauses/paths/keys ParseGroup accepts for
// one argument kind, keyed by the leading --flag string.
type argSpec struct {
	flags            []string
	clauses          []string
	supportsPaths    bool
	supportsKeys     bool
}

var specs = map[string]argSpec{
	"--input":        {flags: []string{"grab"}, clauses: []string{"domain", "grab", "persist"}, supportsPaths: true},
	"--output":       {flags: []string{"repeat"}, clauses: []string{"create-link", "name", "repeat"}, supportsKeys: true},
	"--map":          {flags: []string{"yield"}, supportsKeys: true},
	"--copy":         {flags: []string{"yield"}, supportsKeys: true},
	"--block":        {supportsKeys: true},
	"--toggle":       {clauses: []string{"id", "mode"}, supportsKeys: true},
	"--hook":         {flags: []string{"sequential", "toggle"}, clauses: []string{"exec-shell", "toggle", "period", "send-key", "send-event", "breaks-on"}, supportsKeys: true},
	"--withhold":     {supportsKeys: true},
	"--merge":        {supportsKeys: true},
	"--delay":        {clauses: []string{"period"}, supportsKeys: true},
	"--scale":        {clauses: []string{"factor"}, supportsKeys: true},
	"--oscillate":    {clauses: []string{"period"}, supportsKeys: true},
	"--abs-to-rel":   {clauses: []string{"reset"}, supportsKeys: true},
	"--rel-to-abs":   {flags: []string{"wrap"}, clauses: []string{"min", "max"}, supportsKeys: true},
	"--print":        {clauses: []string{"format"}, supportsKeys: true},
	"--control-fifo": {supportsPaths: true},
}

// rawGroup is one --flag-prefixed token span off the command line, still
// paired with the flag name so Compile can dispatch on it after grouping.
type rawGroup struct {
	name string
	args []string
}

// split partitions args (without the program name) into one rawGroup per
// --flag, erroring on anything before the first flag or any token that
// does not start with "--".
func split(args []string) ([]rawGroup, error) {
	var groups []rawGroup
	i := 0
	for i < len(args) {
		name := args[i]
		if !strings.HasPrefix(name, "--") {
			return nil, evserror.NewArgument("expected an argument starting with --, encountered %q", name)
		}
		i++
		g := rawGroup{name: name}
		for i < len(args) && !strings.HasPrefix(args[i], "--") {
			g.args = append(g.args, args[i])
			i++
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// parseGroups runs split followed by ParseGroup on every resulting span,
// against the flag/clause grammar declared in specs.
func parseGroups(args []string) ([]Group, error) {
	rawGroups, err := split(args)
	if err != nil {
		return nil, err
	}
	groups := make([]Group, 0, len(rawGroups))
	for _, rg := range rawGroups {
		spec, ok := specs[rg.name]
		if !ok {
			return nil, evserror.NewArgument("encountered unknown argument: %s", rg.name)
		}
		g, err := ParseGroup(append([]string{rg.name}, rg.args...), spec.flags, spec.clauses, spec.supportsPaths, spec.supportsKeys)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// PrintUsage writes the usage string to stdout, e.g. for -h/--help.
func PrintUsage() {
	fmt.Println(usage)
}

// PrintVersion writes the build version, or "unknown" if none was linked
// in, to stdout.
func PrintVersion() {
	if Version == "" {
		fmt.Println("unknown")
		return
	}
	fmt.Println(Version)
}

// Parse checks for -h/--help/-?/--version and, barring those, groups argv
// (excluding the program name) into one Group per --flag argument.
func Parse(argv []string) ([]Group, error) {
	if len(argv) == 0 || contains(argv, "-?") || contains(argv, "-h") || contains(argv, "--help") {
		PrintUsage()
		return nil, evserror.NewInterrupt()
	}
	if contains(argv, "--version") {
		PrintVersion()
		return nil, evserror.NewInterrupt()
	}
	return parseGroups(argv)
}

// Compile turns a parsed argument list into a runnable config.Pipeline.
func Compile(groups []Group) (*config.Pipeline, error) {
	domains := evmodel.NewNamedDomains()
	state := stream.NewState()

	pipeline := &config.Pipeline{
		ToggleIndexByID: make(map[string]stream.ToggleIndex),
	}

	toggleArgs := make(map[int]toggleArg)
	for i, g := range groups {
		if g.Name != "--toggle" {
			continue
		}
		t, err := compileToggle(g)
		if err != nil {
			return nil, err
		}
		toggleArgs[i] = t
		if t.hasID {
			if _, exists := pipeline.ToggleIndexByID[t.id]; exists {
				return nil, evserror.NewArgument("two toggles cannot have the same id: %q", t.id)
			}
			toggleState, err := stream.NewToggleState(t.size())
			if err != nil {
				return nil, err
			}
			pipeline.ToggleIndexByID[t.id] = state.PushToggle(toggleState)
		}
	}

	inputRealPaths := make(map[string]bool)
	outputSymlinks := make(map[string]bool)
	var precedingHookTriggers []*hook.Trigger

	for i, g := range groups {
		switch g.Name {
		case "--input":
			device, err := compileInput(g, domains)
			if err != nil {
				return nil, err
			}
			for _, path := range device.paths {
				realPath, err := filepath.EvalSymlinks(path)
				if err != nil {
					return nil, evserror.NewArgument("the input device %q does not exist", path)
				}
				if inputRealPaths[realPath] {
					return nil, evserror.NewArgument("the input device %q has been opened multiple times", path)
				}
				inputRealPaths[realPath] = true

				sourceDomain := evmodel.AllocateDomain()
				targetDomain := domains.Resolve(path)
				if device.domain != nil {
					targetDomain = *device.domain
				}

				pipeline.InputDevices = append(pipeline.InputDevices, config.PreInputDevice{
					Path:        path,
					Domain:      sourceDomain,
					GrabMode:    device.grabMode,
					PersistMode: device.persistMode,
				})
				pipeline.Stages = append(pipeline.Stages, transform.NewDomainShift(
					sourceDomain, evmodel.NamespaceInput,
					targetDomain, evmodel.NamespaceUser,
				))
			}

		case "--output":
			device, err := compileOutput(g)
			if err != nil {
				return nil, err
			}
			if device.symlinkPath != "" {
				if outputSymlinks[device.symlinkPath] {
					return nil, evserror.NewArgument("multiple output devices cannot create a link at the same location: %q", device.symlinkPath)
				}
				outputSymlinks[device.symlinkPath] = true
			}
			targetDomain := evmodel.AllocateDomain()
			pipeline.OutputDevices = append(pipeline.OutputDevices, config.PreOutputDevice{
				Domain:      targetDomain,
				Name:        device.name,
				SymlinkPath: device.symlinkPath,
				RepeatMode:  device.repeatMode,
			})
			for _, key := range device.keys {
				pipeline.Stages = append(pipeline.Stages, transform.Map{
					InputKey:   key,
					OutputKeys: []keyfilter.Key{keyfilter.FromDomainAndNamespace(targetDomain, evmodel.NamespaceOutput)},
				})
			}

		case "--map":
			m, err := compileMap(g, false)
			if err != nil {
				return nil, err
			}
			pipeline.Stages = append(pipeline.Stages, m)

		case "--copy":
			m, err := compileMap(g, true)
			if err != nil {
				return nil, err
			}
			pipeline.Stages = append(pipeline.Stages, m)

		case "--block":
			maps, err := compileBlock(g)
			if err != nil {
				return nil, err
			}
			for _, m := range maps {
				pipeline.Stages = append(pipeline.Stages, m)
			}

		case "--toggle":
			t := toggleArgs[i]
			var predetermined *stream.ToggleIndex
			if t.hasID {
				idx := pipeline.ToggleIndexByID[t.id]
				predetermined = &idx
			}
			toggle, err := transform.NewToggle(t.inputKey, t.outputKeys, t.mode, state, predetermined)
			if err != nil {
				return nil, err
			}
			pipeline.Stages = append(pipeline.Stages, toggle)

		case "--hook":
			ha, err := compileHook(g)
			if err != nil {
				return nil, err
			}
			actuator := hook.NewHookActuator(ha.dispatcher)
			for _, cmd := range ha.execShell {
				actuator.AddCommand("/bin/sh", []string{"-c", cmd})
			}
			action, err := config.ParseToggleAction(ha.toggleFlag, ha.toggleClause)
			if err != nil {
				return nil, err
			}
			effects, err := action.Implement(state, pipeline.ToggleIndexByID)
			if err != nil {
				return nil, err
			}
			for _, effect := range effects {
				actuator.AddEffect(effect)
			}
			h := hook.New(ha.trigger, actuator)
			pipeline.Stages = append(pipeline.Stages, h)
			pipeline.WakeupHandlers = append(pipeline.WakeupHandlers, h)
			precedingHookTriggers = append(precedingHookTriggers, ha.trigger)

		case "--withhold":
			w, err := compileWithhold(g, precedingHookTriggers)
			if err != nil {
				return nil, err
			}
			pipeline.Stages = append(pipeline.Stages, w)
			pipeline.WakeupHandlers = append(pipeline.WakeupHandlers, w)

		case "--merge":
			m, err := compileMerge(g)
			if err != nil {
				return nil, err
			}
			pipeline.Stages = append(pipeline.Stages, m)

		case "--delay":
			d, err := compileDelay(g)
			if err != nil {
				return nil, err
			}
			pipeline.Stages = append(pipeline.Stages, d)
			pipeline.WakeupHandlers = append(pipeline.WakeupHandlers, d)

		case "--scale":
			s, err := compileScale(g)
			if err != nil {
				return nil, err
			}
			pipeline.Stages = append(pipeline.Stages, s)

		case "--oscillate":
			o, err := compileOscillate(g)
			if err != nil {
				return nil, err
			}
			pipeline.Stages = append(pipeline.Stages, o)
			pipeline.WakeupHandlers = append(pipeline.WakeupHandlers, o)

		case "--abs-to-rel":
			a, err := compileAbsToRel(g)
			if err != nil {
				return nil, err
			}
			pipeline.Stages = append(pipeline.Stages, a)

		case "--rel-to-abs":
			r, err := compileRelToAbs(g)
			if err != nil {
				return nil, err
			}
			pipeline.Stages = append(pipeline.Stages, r)

		case "--print":
			p, err := compilePrint(g, domains)
			if err != nil {
				return nil, err
			}
			pipeline.Stages = append(pipeline.Stages, p)

		case "--control-fifo":
			paths, err := compileControlFifo(g)
			if err != nil {
				return nil, err
			}
			pipeline.ControlFifoPaths = append(pipeline.ControlFifoPaths, paths...)

		default:
			return nil, evserror.NewArgument("encountered unknown argument: %s", g.Name)
		}
	}

	if len(pipeline.InputDevices) == 0 {
		return nil, evserror.NewArgument("at least one --input argument is required")
	}

	pipeline.State = state

	return pipeline, nil
}

