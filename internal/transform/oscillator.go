package transform

import (
	"time"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
	"github.com/evsieve/evsieve-go/internal/stream"
)

type oscillationState struct {
	appearsActive bool
	nextToken     loopback.Token
}

// Oscillator makes a key repeatedly flicker on and off in the output
// stream for as long as it is physically held, alternating ActiveTime and
// InactiveTime between each edge.
type Oscillator struct {
	Keys          []keyfilter.Key
	ActiveTime    time.Duration
	InactiveTime  time.Duration

	held map[evmodel.Channel]*oscillationState
}

func NewOscillator(keys []keyfilter.Key, activeTime, inactiveTime time.Duration) *Oscillator {
	return &Oscillator{Keys: keys, ActiveTime: activeTime, InactiveTime: inactiveTime, held: make(map[evmodel.Channel]*oscillationState)}
}

func (o *Oscillator) matchesAny(event evmodel.Event) bool {
	for _, key := range o.Keys {
		if key.Matches(event) {
			return true
		}
	}
	return false
}

func (o *Oscillator) ApplyToAll(events []evmodel.Event, out *[]evmodel.Event, _ *stream.State, lb *loopback.Loopback) {
	for _, event := range events {
		o.apply(event, out, lb)
	}
}

func (o *Oscillator) apply(event evmodel.Event, out *[]evmodel.Event, lb *loopback.Loopback) {
	if !event.Code.Type.IsKey() || !o.matchesAny(event) {
		*out = append(*out, event)
		return
	}

	channel := event.Channel()
	switch {
	case event.Value == 0:
		state, ok := o.held[channel]
		if !ok {
			return
		}
		delete(o.held, channel)
		lb.Cancel(state.nextToken)
		if state.appearsActive {
			*out = append(*out, event)
		}
	case event.Value == 1:
		if _, ok := o.held[channel]; ok {
			return
		}
		o.held[channel] = &oscillationState{appearsActive: true, nextToken: lb.ScheduleWakeupIn(o.ActiveTime)}
		*out = append(*out, event)
	default:
		if state, ok := o.held[channel]; ok && state.appearsActive {
			*out = append(*out, event)
		}
	}
}

// Wakeup flips the visible state of every channel whose token just fired
// and re-arms the oscillation for the newly active edge.
func (o *Oscillator) Wakeup(token loopback.Token, out *[]evmodel.Event, _ *stream.State, lb *loopback.Loopback) {
	for channel, state := range o.held {
		if state.nextToken != token {
			continue
		}
		makeActive := !state.appearsActive
		if makeActive {
			*out = append(*out, evmodel.Event{Code: channel.Code, Domain: channel.Domain, Value: 1, PreviousValue: 0, Namespace: evmodel.NamespaceUser})
			state.nextToken = lb.ScheduleWakeupIn(o.ActiveTime)
		} else {
			*out = append(*out, evmodel.Event{Code: channel.Code, Domain: channel.Domain, Value: 0, PreviousValue: 1, Namespace: evmodel.NamespaceUser})
			state.nextToken = lb.ScheduleWakeupIn(o.InactiveTime)
		}
		state.appearsActive = makeActive
	}
}

func (o *Oscillator) ApplyToAllCaps(caps []capset.Capability) []capset.Capability {
	return caps
}
