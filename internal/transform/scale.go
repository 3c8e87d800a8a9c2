package transform

import (
	"math"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
	"github.com/evsieve/evsieve-go/internal/stream"
)

// Scale multiplies the value of every matching event by Factor, carrying
// the fractional remainder forward per channel so repeated small motions
// (e.g. mouse wheel clicks) don't get rounded away entirely.
type Scale struct {
	InputKeys []keyfilter.Key
	Factor    float64

	residuals map[evmodel.Channel]float64
}

func NewScale(inputKeys []keyfilter.Key, factor float64) *Scale {
	return &Scale{InputKeys: inputKeys, Factor: factor, residuals: make(map[evmodel.Channel]float64)}
}

func (s *Scale) matchesAny(event evmodel.Event) bool {
	for _, key := range s.InputKeys {
		if key.Matches(event) {
			return true
		}
	}
	return false
}

func (s *Scale) ApplyToAll(events []evmodel.Event, out *[]evmodel.Event, _ *stream.State, _ *loopback.Loopback) {
	for _, event := range events {
		s.apply(event, out)
	}
}

func (s *Scale) apply(event evmodel.Event, out *[]evmodel.Event) {
	if !s.matchesAny(event) {
		*out = append(*out, event)
		return
	}

	channel := event.Channel()
	residual := s.residuals[channel]
	desired := float64(event.Value)*s.Factor + residual
	rounded := math.Floor(desired)

	event.Value = int32(rounded)
	s.residuals[channel] = desired - rounded
	*out = append(*out, event)
}

func (s *Scale) ApplyToAllCaps(caps []capset.Capability) []capset.Capability {
	return caps
}
