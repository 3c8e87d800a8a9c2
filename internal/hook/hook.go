package hook

import (
	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/loopback"
	"github.com/evsieve/evsieve-go/internal/stream"
)

// Hook ties a Trigger to a HookActuator and is otherwise a plain tuple of
// the two: it implements stream.Stage and stream.WakeupHandler.
//
// apply must do nothing but the two calls below. withhold.Withhold drives
// its own clones of a hook's Trigger directly and assumes that is all
// tracking a hook amounts to; adding anything else here would silently not
// run under a Withhold.
type Hook struct {
	Trigger  *Trigger
	Actuator *HookActuator
}

func New(trigger *Trigger, actuator *HookActuator) *Hook {
	return &Hook{Trigger: trigger, Actuator: actuator}
}

func (h *Hook) apply(event evmodel.Event, out *[]evmodel.Event, state *stream.State, lb *loopback.Loopback) {
	response := h.Trigger.Apply(event, lb)
	h.Actuator.applyResponse(response, event, out, state)
}

func (h *Hook) ApplyToAll(events []evmodel.Event, out *[]evmodel.Event, state *stream.State, lb *loopback.Loopback) {
	for _, event := range events {
		h.apply(event, out, state, lb)
	}
}

func (h *Hook) Wakeup(token loopback.Token, out *[]evmodel.Event, state *stream.State, lb *loopback.Loopback) {
	h.Trigger.Wakeup(token)
}

func (h *Hook) ApplyToAllCaps(caps []capset.Capability) []capset.Capability {
	var out []capset.Capability
	h.Actuator.dispatcher.applyToAllCaps(h.Trigger, caps, &out)
	return out
}
