package stream

import (
	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/loopback"
)

// Stage is one entry of the transformer chain. Every configured map,
// toggle, hook, withhold clause and print directive implements it.
type Stage interface {
	// ApplyToAll consumes the events produced by the previous stage and
	// appends whatever events this stage produces to out. A stage that
	// only observes events (Hook, Print) simply copies its input to out
	// unchanged.
	ApplyToAll(events []evmodel.Event, out *[]evmodel.Event, state *State, lb *loopback.Loopback)

	// ApplyToAllCaps runs the capability-propagation analogue of
	// ApplyToAll: it must accept the same kinds of inputs that
	// ApplyToAll's events would produce and predict the possible
	// downstream capabilities without any runtime state. Stages that do
	// not transform events (Hook, Print) return caps unchanged.
	ApplyToAllCaps(caps []capset.Capability) []capset.Capability
}

// Chain is a configured, ordered sequence of Stages sharing one State and
// Loopback for the lifetime of the pipeline.
type Chain struct {
	Stages []Stage
}

// RunEvent feeds one ingested event through every stage in order and
// returns the events that reached the Output namespace at the end of the
// chain, ready to be routed to a virtual device.
func (c *Chain) RunEvent(event evmodel.Event, state *State, lb *loopback.Loopback) []evmodel.Event {
	events := []evmodel.Event{event}
	for _, stage := range c.Stages {
		var next []evmodel.Event
		stage.ApplyToAll(events, &next, state, lb)
		events = next
	}

	out := make([]evmodel.Event, 0, len(events))
	for _, e := range events {
		if e.Namespace == evmodel.NamespaceOutput {
			out = append(out, e)
		}
	}
	return out
}

// RunCaps is the capability-propagation analogue of RunEvent: it predicts,
// without any event actually flowing, which capabilities the chain could
// possibly emit at Output namespace given a set of input capabilities.
func (c *Chain) RunCaps(capabilities []capset.Capability) []capset.Capability {
	caps := capabilities
	for _, stage := range c.Stages {
		caps = stage.ApplyToAllCaps(caps)
		caps = aggregateByCode(caps)
	}
	return caps
}

// aggregateByCode merges capabilities that differ only in value interval,
// keeping the propagation computation from blowing up combinatorially as
// it passes through many stages.
func aggregateByCode(caps []capset.Capability) []capset.Capability {
	merged := capset.NewCapabilities()
	for _, c := range caps {
		merged.Add(c)
	}
	out := make([]capset.Capability, 0, len(merged.ByCode))
	for _, c := range merged.ByCode {
		out = append(out, c)
	}
	return out
}

// PassthroughCaps is the identity ApplyToAllCaps implementation shared by
// stages that never change an event's code or value range (Hook, Print).
func PassthroughCaps(caps []capset.Capability) []capset.Capability {
	return caps
}

// WakeupHandler is implemented by stages that schedule their own wakeups
// through the Loopback (Delay, the hook actuator, the oscillator) and
// need to react whenever one of their tokens fires.
type WakeupHandler interface {
	Wakeup(token loopback.Token, out *[]evmodel.Event, state *State, lb *loopback.Loopback)
}

// RunWakeups delivers every token that fired this tick to each stage that
// schedules wakeups, in chain order, and feeds whatever events a stage
// releases through the remainder of the chain (but never back through
// earlier stages, which would risk an infinite loop).
func (c *Chain) RunWakeups(tokens []loopback.Token, state *State, lb *loopback.Loopback) []evmodel.Event {
	var finalOut []evmodel.Event
	for i, stage := range c.Stages {
		handler, ok := stage.(WakeupHandler)
		if !ok {
			continue
		}
		var released []evmodel.Event
		for _, token := range tokens {
			handler.Wakeup(token, &released, state, lb)
		}
		if len(released) == 0 {
			continue
		}

		events := released
		for _, downstream := range c.Stages[i+1:] {
			var next []evmodel.Event
			downstream.ApplyToAll(events, &next, state, lb)
			events = next
		}
		for _, e := range events {
			if e.Namespace == evmodel.NamespaceOutput {
				finalOut = append(finalOut, e)
			}
		}
	}
	return finalOut
}
