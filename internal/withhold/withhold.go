// Package withhold implements --withhold: it suppresses a key-down event
// as long as some --hook argument downstream has an active tracker on
// that same channel, releasing it once none of them do anymore, so a
// multi-key hook sequence doesn't also deliver its prefix keys verbatim.
package withhold

import (
	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/hook"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
	"github.com/evsieve/evsieve-go/internal/stream"
)

type channelStateKind int

const (
	channelWithheld channelStateKind = iota
	channelResidual
)

type channelState struct {
	kind          channelStateKind
	withheldEvent evmodel.Event
}

// Withhold holds back key-down events on channels a watched hook is
// currently tracking, per the state machine documented below.
//
// For each channel, at most one event can be withheld, always a key-down.
// Further key-downs on a withheld channel are dropped. The event stays
// withheld as long as some trigger reports an active tracker matching its
// channel. Once a trigger that has a tracker on that channel activates,
// the channel moves to Residual, meaning its next key-up is dropped and a
// further key-down cancels the Residual state back to Withheld.
type Withhold struct {
	triggers []*hook.Trigger
	keys     []keyfilter.Key

	channels map[evmodel.Channel]channelState
}

// New builds a Withhold that mirrors the activation state of each of the
// given triggers, independent of the hooks those triggers belong to.
func New(keys []keyfilter.Key, triggers []*hook.Trigger) *Withhold {
	clones := make([]*hook.Trigger, len(triggers))
	for i, t := range triggers {
		clones[i] = t.CloneEmpty()
	}
	return &Withhold{
		keys:     keys,
		triggers: clones,
		channels: make(map[evmodel.Channel]channelState),
	}
}

func (w *Withhold) matchesAny(event evmodel.Event) bool {
	for _, key := range w.keys {
		if key.Matches(event) {
			return true
		}
	}
	return false
}

func (w *Withhold) ApplyToAll(events []evmodel.Event, out *[]evmodel.Event, state *stream.State, lb *loopback.Loopback) {
	for _, event := range events {
		w.apply(event, out, lb)
	}
}

func (w *Withhold) apply(event evmodel.Event, out *[]evmodel.Event, lb *loopback.Loopback) {
	var activated []*hook.Trigger
	anyTrackerActiveOnChannel := false
	anyTrackerMatches := false

	for _, trigger := range w.triggers {
		switch trigger.Apply(event, lb) {
		case hook.TriggerNone:
		case hook.TriggerInteracts, hook.TriggerReleases:
			anyTrackerMatches = true
		case hook.TriggerActivates:
			activated = append(activated, trigger)
			anyTrackerMatches = true
		}
		if trigger.HasActiveTrackerMatchingChannel(event.Channel()) {
			anyTrackerActiveOnChannel = true
		}
	}

	if !anyTrackerMatches {
		*out = append(*out, event)
		return
	}

	var finalEvent *evmodel.Event

	if w.matchesAny(event) {
		channel := event.Channel()
		current, hasCurrent := w.channels[channel]

		if anyTrackerActiveOnChannel {
			if event.Value == 1 {
				switch {
				case !hasCurrent:
					w.channels[channel] = channelState{kind: channelWithheld, withheldEvent: event}
				case current.kind == channelResidual:
					w.channels[channel] = channelState{kind: channelWithheld, withheldEvent: event}
				}
				// Already Withheld: drop the duplicate key-down.
			}
			// All other values on a tracked channel are dropped too.
		} else {
			if event.Value == 0 {
				if hasCurrent && current.kind == channelResidual {
					delete(w.channels, channel)
				} else {
					finalEvent = &event
				}
			} else {
				finalEvent = &event
			}
		}
	} else {
		finalEvent = &event
	}

	for channel, cs := range w.channels {
		if cs.kind != channelWithheld {
			continue
		}
		for _, trigger := range activated {
			if trigger.HasTrackerMatchingChannel(channel) {
				w.channels[channel] = channelState{kind: channelResidual}
				break
			}
		}
	}

	w.releaseEvents(out)

	if finalEvent != nil {
		*out = append(*out, *finalEvent)
	}
}

func (w *Withhold) Wakeup(token loopback.Token, out *[]evmodel.Event, _ *stream.State, _ *loopback.Loopback) {
	someExpired := false
	for _, trigger := range w.triggers {
		if trigger.Wakeup(token) {
			someExpired = true
		}
	}
	if !someExpired {
		return
	}
	w.releaseEvents(out)
}

// releaseEvents emits every withheld event whose channel no longer has any
// trigger with an active tracker, dropping it from the withheld set.
func (w *Withhold) releaseEvents(out *[]evmodel.Event) {
	for channel, cs := range w.channels {
		if cs.kind != channelWithheld {
			continue
		}
		stillWithheld := false
		for _, trigger := range w.triggers {
			if trigger.HasActiveTrackerMatchingChannel(channel) {
				stillWithheld = true
				break
			}
		}
		if !stillWithheld {
			*out = append(*out, cs.withheldEvent)
			delete(w.channels, channel)
		}
	}
}

func (w *Withhold) ApplyToAllCaps(caps []capset.Capability) []capset.Capability {
	return stream.PassthroughCaps(caps)
}
