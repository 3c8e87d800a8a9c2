package hook

import (
	"time"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
)

// TriggerResponse reports what effect an event had on a Trigger.
type TriggerResponse int

const (
	// TriggerNone means the event does not interact with this trigger at all.
	TriggerNone TriggerResponse = iota
	// TriggerInteracts means the event may have changed a tracker's state,
	// but the trigger itself did not activate or release.
	TriggerInteracts
	// TriggerActivates means every tracker is now held and the hook's
	// effects should run.
	TriggerActivates
	// TriggerReleases means the trigger was active and is no longer.
	TriggerReleases
)

type triggerState int

const (
	triggerStateInactive triggerState = iota
	triggerStateActive
)

// Trigger watches a set of keys and reports when all of them are held down
// simultaneously, optionally within a time window (period) or only when
// held down in the order given (sequential), and optionally resets when
// one of a set of breaks-on keys fires.
type Trigger struct {
	period     time.Duration
	hasPeriod  bool
	sequential bool
	breaksOn   []keyfilter.Key

	trackers []tracker
	state    triggerState
}

// NewTrigger builds a Trigger over one tracker per key. hasPeriod false
// means no period= clause was given, so trackers never expire on their own.
func NewTrigger(keys []keyfilter.Key, breaksOn []keyfilter.Key, period time.Duration, hasPeriod bool, sequential bool) *Trigger {
	trackers := make([]tracker, len(keys))
	for i, k := range keys {
		trackers[i] = newTracker(k)
	}
	return &Trigger{
		period:     period,
		hasPeriod:  hasPeriod,
		sequential: sequential,
		breaksOn:   breaksOn,
		trackers:   trackers,
		state:      triggerStateInactive,
	}
}

func (t *Trigger) acquireExpiration(lb *loopback.Loopback) expiration {
	if !t.hasPeriod {
		return expiration{kind: expirationNever}
	}
	token := lb.ScheduleWakeupIn(t.period)
	return expiration{kind: expirationUntil, token: token}
}

// Apply feeds one event through every tracker and reports how it affected
// this trigger's activation state.
func (t *Trigger) Apply(event evmodel.Event, lb *loopback.Loopback) TriggerResponse {
	anyTrackerMatched := false

	for i := range t.trackers {
		tr := &t.trackers[i]
		if !tr.matches(event) {
			continue
		}
		anyTrackerMatched = true

		if tr.activatesBy(event) {
			if tr.state == trackerInactive {
				// This activation may get invalidated below if this
				// trigger is sequential.
				tr.state = trackerActive
				tr.exp = t.acquireExpiration(lb)
			}
		} else {
			tr.state = trackerInactive
		}
	}

	if !anyTrackerMatched {
		if !t.matchesBreaksOn(event) {
			return TriggerNone
		}
		anyInvalidated := false
		for i := range t.trackers {
			tr := &t.trackers[i]
			if tr.state == trackerActive {
				tr.state = trackerInvalid
				anyInvalidated = true
			}
		}
		if !anyInvalidated {
			return TriggerNone
		}
	}

	if t.sequential {
		// Invalidate every tracker that activated out of order: skip the
		// consecutively-active prefix, invalidate any tracker active
		// after that.
		skipping := true
		for i := range t.trackers {
			tr := &t.trackers[i]
			if skipping {
				if tr.isActive() {
					continue
				}
				skipping = false
			}
			if tr.isActive() {
				tr.state = trackerInvalid
			}
		}
	}

	allActive := true
	for i := range t.trackers {
		if !t.trackers[i].isActive() {
			allActive = false
			break
		}
	}

	switch {
	case t.state == triggerStateInactive && allActive:
		t.state = triggerStateActive
		for i := range t.trackers {
			t.trackers[i].state = trackerActive
			t.trackers[i].exp = expiration{kind: expirationNever}
		}
		return TriggerActivates
	case t.state == triggerStateActive && !allActive:
		t.state = triggerStateInactive
		return TriggerReleases
	default:
		return TriggerInteracts
	}
}

func (t *Trigger) matchesBreaksOn(event evmodel.Event) bool {
	for _, key := range t.breaksOn {
		if key.Matches(event) {
			return true
		}
	}
	return false
}

// Wakeup invalidates any tracker whose expiration token just fired,
// reporting whether any tracker actually expired.
func (t *Trigger) Wakeup(token loopback.Token) bool {
	expired := false
	for i := range t.trackers {
		tr := &t.trackers[i]
		if tr.state != trackerActive || tr.exp.kind != expirationUntil {
			continue
		}
		if tr.exp.token == token {
			tr.state = trackerInvalid
			expired = true
		}
	}
	return expired
}

// HasActiveTrackerMatchingChannel reports whether any currently-active
// tracker could have been activated by an event on the given channel.
func (t *Trigger) HasActiveTrackerMatchingChannel(channel evmodel.Channel) bool {
	for i := range t.trackers {
		if t.trackers[i].isActive() && t.trackers[i].matchesChannel(channel) {
			return true
		}
	}
	return false
}

// HasTrackerMatchingChannel reports whether any tracker, active or not,
// could be affected by an event on the given channel.
func (t *Trigger) HasTrackerMatchingChannel(channel evmodel.Channel) bool {
	for i := range t.trackers {
		if t.trackers[i].matchesChannel(channel) {
			return true
		}
	}
	return false
}

// Keys returns the key each tracker watches, in order.
func (t *Trigger) Keys() []keyfilter.Key {
	keys := make([]keyfilter.Key, len(t.trackers))
	for i, tr := range t.trackers {
		keys[i] = tr.key
	}
	return keys
}

// MatchesCap reports whether any of this trigger's tracker keys might match
// the given capability, and if so the interval of values that triggered
// the match, used to estimate which values a send-key clause might
// generate.
func (t *Trigger) MatchesCap(cap_ capset.Capability) (capset.Certainty, capset.Interval) {
	best := capset.CertaintyNo
	for _, tr := range t.trackers {
		certainty := tr.key.MatchesCap(cap_)
		if certainty == capset.CertaintyNo {
			continue
		}
		if certainty == capset.CertaintyAlways {
			best = capset.CertaintyAlways
		} else if best == capset.CertaintyNo {
			best = capset.CertaintyMaybe
		}
	}
	if best == capset.CertaintyNo {
		return capset.CertaintyNo, capset.Interval{}
	}
	return best, cap_.ValueInterval
}

// CloneEmpty returns a Trigger with the same configuration but no runtime
// state, used to give a template hook its own independent tracking state
// when instantiated per target domain.
func (t *Trigger) CloneEmpty() *Trigger {
	trackers := make([]tracker, len(t.trackers))
	for i, tr := range t.trackers {
		trackers[i] = tr.cloneEmpty()
	}
	return &Trigger{
		period:     t.period,
		hasPeriod:  t.hasPeriod,
		sequential: t.sequential,
		breaksOn:   t.breaksOn,
		trackers:   trackers,
		state:      triggerStateInactive,
	}
}
