package transform

import (
	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
	"github.com/evsieve/evsieve-go/internal/stream"
)

// Merge collapses repeated key-downs and key-ups on one channel (e.g. the
// same key arriving from several devices mapped into one domain) into a
// single key-down/key-up pair: it keeps a press count per channel, emits
// the key-down when the count goes from 0 to 1 and the key-up when it
// returns to 0. Other values pass through.
type Merge struct {
	Keys []keyfilter.Key

	downCount map[evmodel.Channel]int
}

func NewMerge(keys []keyfilter.Key) *Merge {
	return &Merge{Keys: keys, downCount: make(map[evmodel.Channel]int)}
}

func (m *Merge) matchesAny(event evmodel.Event) bool {
	for _, key := range m.Keys {
		if key.Matches(event) {
			return true
		}
	}
	return false
}

func (m *Merge) ApplyToAll(events []evmodel.Event, out *[]evmodel.Event, _ *stream.State, _ *loopback.Loopback) {
	for _, event := range events {
		m.apply(event, out)
	}
}

func (m *Merge) apply(event evmodel.Event, out *[]evmodel.Event) {
	if !m.matchesAny(event) {
		*out = append(*out, event)
		return
	}

	channel := event.Channel()
	switch event.Value {
	case 1:
		m.downCount[channel]++
	case 0:
		m.downCount[channel]--
	default:
		*out = append(*out, event)
		return
	}

	count := m.downCount[channel]
	if (count == 0 && event.Value == 0) || (count == 1 && event.Value == 1) {
		*out = append(*out, event)
	}
}

func (m *Merge) ApplyToAllCaps(caps []capset.Capability) []capset.Capability {
	return caps
}
