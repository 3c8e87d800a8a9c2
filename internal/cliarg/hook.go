package cliarg

import (
	"time"

	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
	"github.com/evsieve/evsieve-go/internal/hook"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/withhold"
)

// hookKeyParser matches the original's trigger-key grammar: a hook key
// defaults to "any positive value" and may range, but may not use a value
// transition.
var hookKeyParser = keyfilter.Parser{
	DefaultValue: "1~",
	AllowRanges:  true,
	Namespace:    evmodel.NamespaceUser,
}

// eventDispatcherArg accumulates --hook's send-key=/send-event= clauses in
// the order the original builds them: send-key appends to onPress and
// prepends to onRelease (so multiple send-keys release in reverse
// activation order), send-event only ever appends to onPress.
type eventDispatcherArg struct {
	onPress   []keyfilter.Key
	onRelease []keyfilter.Key
}

func (d *eventDispatcherArg) addSendKey(pressKey, releaseKey keyfilter.Key) {
	d.onPress = append(d.onPress, pressKey)
	d.onRelease = append([]keyfilter.Key{releaseKey}, d.onRelease...)
}

func (d *eventDispatcherArg) addSendEvent(key keyfilter.Key) {
	d.onPress = append(d.onPress, key)
}

func (d *eventDispatcherArg) compile() *hook.EventDispatcher {
	return hook.NewEventDispatcher(d.onPress, d.onRelease)
}

// hookArg is a compiled --hook argument, not yet turned into a stream
// stage: a --withhold immediately following it needs its Trigger before
// the final Hook and HookActuator are assembled, and its toggle= clauses
// need every --toggle argument's id reserved first.
type hookArg struct {
	trigger      *hook.Trigger
	dispatcher   *hook.EventDispatcher
	execShell    []string
	toggleFlag   bool
	toggleClause []string
}

func compileHook(g Group) (hookArg, error) {
	keyStrs, err := g.RequireKeys()
	if err != nil {
		return hookArg{}, err
	}
	keys, err := hookKeyParser.ParseAll(keyStrs)
	if err != nil {
		return hookArg{}, err
	}

	breaksOn, err := hookKeyParser.ParseAll(g.Clauses("breaks-on"))
	if err != nil {
		return hookArg{}, err
	}

	var period time.Duration
	hasPeriod := false
	if periodStr, ok, err := g.UniqueClause("period"); err != nil {
		return hookArg{}, err
	} else if ok {
		period, err = ParsePeriod(periodStr)
		if err != nil {
			return hookArg{}, err
		}
		hasPeriod = true
	}

	trigger := hook.NewTrigger(keys, breaksOn, period, hasPeriod, g.HasFlag("sequential"))

	var dispatcherArg eventDispatcherArg
	for _, sendKey := range g.Clauses("send-key") {
		// allow_values=false in the original: the bare key carries no
		// value of its own, since press and release always fire 1 and 0
		// regardless of what activated the trigger.
		pressKey, err := (keyfilter.Parser{DefaultValue: "1", Namespace: evmodel.NamespaceUser}).Parse(sendKey)
		if err != nil {
			return hookArg{}, err
		}
		releaseKey, err := (keyfilter.Parser{DefaultValue: "0", Namespace: evmodel.NamespaceUser}).Parse(sendKey)
		if err != nil {
			return hookArg{}, err
		}
		dispatcherArg.addSendKey(pressKey, releaseKey)
	}
	for _, sendEvent := range g.Clauses("send-event") {
		key, err := (keyfilter.Parser{Namespace: evmodel.NamespaceUser}).Parse(sendEvent)
		if err != nil {
			return hookArg{}, err
		}
		if !key.HasValue() {
			return hookArg{}, evserror.NewArgument(
				"all events sent by the send-event clause must have their event value specified, e.g. %q", sendEvent+":1",
			)
		}
		dispatcherArg.addSendEvent(key)
	}

	return hookArg{
		trigger:      trigger,
		dispatcher:   dispatcherArg.compile(),
		execShell:    g.Clauses("exec-shell"),
		toggleFlag:   g.HasFlag("toggle"),
		toggleClause: g.Clauses("toggle"),
	}, nil
}

// compileWithhold resolves one --withhold argument against the triggers of
// every --hook argument that precedes it on the command line.
func compileWithhold(g Group, precedingHookTriggers []*hook.Trigger) (*withhold.Withhold, error) {
	if len(precedingHookTriggers) == 0 {
		return nil, evserror.NewArgument("a --withhold argument must be preceded by at least one --hook argument")
	}
	keys, err := (keyfilter.Parser{Namespace: evmodel.NamespaceUser}).ParseAll(g.KeysOrEmptyKey())
	if err != nil {
		return nil, err
	}
	return withhold.New(keys, precedingHookTriggers), nil
}
