// Package hook implements --hook's trigger/actuator split: a Trigger
// tracks whether every key it watches is currently held (optionally
// within a time window, optionally in a fixed order), and a HookActuator
// runs effects and emits send-key events whenever the trigger activates
// or releases.
package hook

import (
	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
)

type expirationKind int

const (
	expirationNever expirationKind = iota
	expirationUntil
)

type expiration struct {
	kind  expirationKind
	token loopback.Token
}

type trackerState int

const (
	trackerInactive trackerState = iota
	trackerActive
	trackerInvalid
)

// tracker watches one key of a --hook argument, tracking whether it is
// currently held down (its value lies within range) and, if the hook has
// a period= clause, when its activation expires.
type tracker struct {
	key   keyfilter.Key
	rng   capset.Interval
	state trackerState
	exp   expiration
}

func newTracker(key keyfilter.Key) tracker {
	rng, ok := key.PopValue()
	if !ok {
		rng = capset.Interval{Min: 1, Max: capset.MaxValue}
	}
	return tracker{key: key, rng: rng, state: trackerInactive}
}

func (t *tracker) matches(event evmodel.Event) bool {
	return t.key.Matches(event)
}

func (t *tracker) matchesChannel(channel evmodel.Channel) bool {
	return t.key.MatchesChannel(channel)
}

func (t *tracker) activatesBy(event evmodel.Event) bool {
	return t.rng.Contains(event.Value)
}

func (t *tracker) isActive() bool {
	return t.state == trackerActive
}

func (t *tracker) cloneEmpty() tracker {
	return tracker{key: t.key, rng: t.rng, state: trackerInactive}
}
