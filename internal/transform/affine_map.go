package transform

import (
	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
	"github.com/evsieve/evsieve-go/internal/stream"
)

// AffineMap is a Map whose output value is computed by an AffineFactor
// expression (e.g. "abs:z:30-4x+d") instead of a plain value-range clamp.
type AffineMap struct {
	InputKey  keyfilter.Key
	OutputKey keyfilter.Key
	Factor    AffineFactor
}

func (m AffineMap) ApplyToAll(events []evmodel.Event, out *[]evmodel.Event, _ *stream.State, _ *loopback.Loopback) {
	for _, event := range events {
		m.apply(event, out)
	}
}

func (m AffineMap) apply(event evmodel.Event, out *[]evmodel.Event) {
	if !m.InputKey.Matches(event) {
		*out = append(*out, event)
		return
	}
	eventOut := m.OutputKey.Merge(event)
	eventOut = m.Factor.Merge(eventOut)
	*out = append(*out, eventOut)
}

func (m AffineMap) ApplyToAllCaps(caps []capset.Capability) []capset.Capability {
	var out []capset.Capability
	for _, c := range caps {
		certainty := m.InputKey.MatchesCap(c)
		generated := m.Factor.MergeCap(m.OutputKey.MergeCap(c))
		switch certainty {
		case capset.CertaintyAlways:
			out = append(out, generated)
		case capset.CertaintyMaybe:
			out = append(out, c, generated)
		case capset.CertaintyNo:
			out = append(out, c)
		}
	}
	return out
}
