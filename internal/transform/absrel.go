package transform

import (
	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
	"github.com/evsieve/evsieve-go/internal/stream"
)

// AbsToRel turns successive absolute positions into relative deltas,
// dropping the very first sample after startup or after any event
// matching a reset key, since there is no prior position to take a delta
// against.
type AbsToRel struct {
	InputKey  keyfilter.Key
	OutputKey keyfilter.Key
	ResetKeys []keyfilter.Key

	reset bool
}

func NewAbsToRel(inputKey, outputKey keyfilter.Key, resetKeys []keyfilter.Key) *AbsToRel {
	return &AbsToRel{InputKey: inputKey, OutputKey: outputKey, ResetKeys: resetKeys, reset: true}
}

func (a *AbsToRel) ApplyToAll(events []evmodel.Event, out *[]evmodel.Event, _ *stream.State, _ *loopback.Loopback) {
	for _, event := range events {
		a.apply(event, out)
	}
}

func (a *AbsToRel) apply(event evmodel.Event, out *[]evmodel.Event) {
	for _, key := range a.ResetKeys {
		if key.Matches(event) {
			a.reset = true
			break
		}
	}

	if !a.InputKey.Matches(event) {
		*out = append(*out, event)
		return
	}
	if a.reset {
		a.reset = false
		return
	}

	eventOut := a.OutputKey.Merge(event)
	eventOut.Value = event.Delta()
	*out = append(*out, eventOut)
}

func (a *AbsToRel) ApplyToAllCaps(caps []capset.Capability) []capset.Capability {
	var out []capset.Capability
	for _, c := range caps {
		a.applyCap(c, &out)
	}
	return out
}

func (a *AbsToRel) applyCap(cap_ capset.Capability, out *[]capset.Capability) {
	certainty := a.InputKey.MatchesCap(cap_)

	generated := a.OutputKey.MergeCap(cap_)
	generated.ValueInterval = capset.Unbounded

	switch certainty {
	case capset.CertaintyAlways:
		*out = append(*out, generated)
	case capset.CertaintyMaybe:
		*out = append(*out, cap_, generated)
	case capset.CertaintyNo:
		*out = append(*out, cap_)
	}
}

// RelToAbs is the dual of AbsToRel: it accumulates incoming relative
// deltas into a running absolute position bounded to an interval, wrapping
// or clamping at the edges depending on Wrap.
type RelToAbs struct {
	InputKey  keyfilter.Key
	OutputKey keyfilter.Key
	Bounds    capset.Interval
	Wrap      bool

	position int32
}

func NewRelToAbs(inputKey, outputKey keyfilter.Key, bounds capset.Interval, wrap bool) *RelToAbs {
	return &RelToAbs{InputKey: inputKey, OutputKey: outputKey, Bounds: bounds, Wrap: wrap, position: bounds.Min}
}

func (r *RelToAbs) ApplyToAll(events []evmodel.Event, out *[]evmodel.Event, _ *stream.State, _ *loopback.Loopback) {
	for _, event := range events {
		r.apply(event, out)
	}
}

func (r *RelToAbs) apply(event evmodel.Event, out *[]evmodel.Event) {
	if !r.InputKey.Matches(event) {
		*out = append(*out, event)
		return
	}

	next := int64(r.position) + int64(event.Value)
	span := int64(r.Bounds.Max) - int64(r.Bounds.Min) + 1
	if r.Wrap && span > 0 {
		next = int64(r.Bounds.Min) + ((next-int64(r.Bounds.Min))%span+span)%span
	} else {
		if next < int64(r.Bounds.Min) {
			next = int64(r.Bounds.Min)
		}
		if next > int64(r.Bounds.Max) {
			next = int64(r.Bounds.Max)
		}
	}
	r.position = int32(next)

	eventOut := r.OutputKey.Merge(event)
	eventOut.Value = r.position
	*out = append(*out, eventOut)
}

func (r *RelToAbs) ApplyToAllCaps(caps []capset.Capability) []capset.Capability {
	var out []capset.Capability
	for _, c := range caps {
		certainty := r.InputKey.MatchesCap(c)
		generated := r.OutputKey.MergeCap(c)
		generated.ValueInterval = r.Bounds
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
