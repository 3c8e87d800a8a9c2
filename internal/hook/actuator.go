package hook

import (
	"github.com/sirupsen/logrus"

	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/stream"
	"github.com/evsieve/evsieve-go/internal/subprocess"
)

// Effect is a side-effecting action a hook runs on activation or release,
// e.g. flipping a toggle's state or spawning a command.
type Effect func(state *stream.State)

// HookActuator holds everything a Hook does besides tracking activation:
// the effects to run, the effects to run on release, and the send-key=
// event dispatcher.
type HookActuator struct {
	effects        []Effect
	releaseEffects []Effect
	dispatcher     *EventDispatcher
}

func NewHookActuator(dispatcher *EventDispatcher) *HookActuator {
	return &HookActuator{dispatcher: dispatcher}
}

// AddEffect makes this hook run effect when it activates.
func (a *HookActuator) AddEffect(effect Effect) {
	a.effects = append(a.effects, effect)
}

// AddReleaseEffect makes this hook run effect when it releases.
func (a *HookActuator) AddReleaseEffect(effect Effect) {
	a.releaseEffects = append(a.releaseEffects, effect)
}

// AddCommand makes this hook spawn program with args when it activates.
func (a *HookActuator) AddCommand(program string, args []string) {
	a.AddEffect(func(*stream.State) {
		// A failed spawn is reported but never fatal: the rest of the
		// pipeline keeps running.
		if err := subprocess.TrySpawn(program, args); err != nil {
			logrus.Warn(err)
		}
	})
}

func (a *HookActuator) applyResponse(response TriggerResponse, event evmodel.Event, out *[]evmodel.Event, state *stream.State) {
	a.dispatcher.mapEvent(event, response, out)

	switch response {
	case TriggerActivates:
		for _, effect := range a.effects {
			effect(state)
		}
	case TriggerReleases:
		for _, effect := range a.releaseEffects {
			effect(state)
		}
	}
}
