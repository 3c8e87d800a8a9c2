package hook

import (
	"github.com/sirupsen/logrus"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
)

// EventDispatcher implements --hook's send-key= clause: extra events fired
// on activation (onPress) and release (onRelease), merged from the key
// that activated the hook. Kept separate from HookActuator because the
// rest of the actuator only cares about running side-effecting effects,
// while this only ever emits events.
type EventDispatcher struct {
	onPress   []keyfilter.Key
	onRelease []keyfilter.Key

	activatingEvent    evmodel.Event
	haveActivatingEvent bool
}

func NewEventDispatcher(onPress, onRelease []keyfilter.Key) *EventDispatcher {
	return &EventDispatcher{onPress: onPress, onRelease: onRelease}
}

// mapEvent appends event (unchanged) to out, plus whatever extra events
// the send-key= clause generates given how the trigger responded to it.
func (d *EventDispatcher) mapEvent(event evmodel.Event, response TriggerResponse, out *[]evmodel.Event) {
	switch response {
	case TriggerActivates:
		*out = append(*out, event)
		d.activatingEvent = event
		d.haveActivatingEvent = true
		for _, key := range d.onPress {
			*out = append(*out, key.Merge(event))
		}
	case TriggerReleases:
		activating := event
		if d.haveActivatingEvent {
			activating = d.activatingEvent
		} else {
			logrus.Warn("hook released without ever recording its activating event")
		}
		for _, key := range d.onRelease {
			*out = append(*out, key.Merge(activating))
		}
		*out = append(*out, event)
	default:
		*out = append(*out, event)
	}
}

// applyToAllCaps appends the base capabilities unchanged plus whatever
// additional capabilities the send-key= clause could generate.
func (d *EventDispatcher) applyToAllCaps(trigger *Trigger, caps []capset.Capability, out *[]capset.Capability) {
	*out = append(*out, caps...)
	d.generateAdditionalCaps(trigger, caps, out)
}

func (d *EventDispatcher) generateAdditionalCaps(trigger *Trigger, caps []capset.Capability, out *[]capset.Capability) {
	seen := make(map[evmodel.EventCode]capset.Capability)

	for _, capIn := range caps {
		certainty, matchingValues := trigger.MatchesCap(capIn)
		if certainty == capset.CertaintyNo {
			continue
		}
		potentiallyMatching := capIn
		potentiallyMatching.ValueInterval = matchingValues

		for _, key := range d.onPress {
			merged := key.MergeCap(potentiallyMatching)
			seen[merged.Code] = merged
		}
		for _, key := range d.onRelease {
			merged := key.MergeCap(potentiallyMatching)
			seen[merged.Code] = merged
		}
	}

	for _, c := range seen {
		*out = append(*out, c)
	}
}
