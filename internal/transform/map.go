// Package transform implements the simple, stateless-or-nearly-stateless
// stages of the chain: Map, Toggle, Merge, Delay, Scale, AbsToRel/RelToAbs,
// Oscillator, Affine and Print.
package transform

import (
	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
	"github.com/evsieve/evsieve-go/internal/stream"
)

// Map matches events against an input key and, for every one that
// matches, emits one event per output key; events with no match pass
// through unchanged. An empty OutputKeys list implements --block.
type Map struct {
	InputKey   keyfilter.Key
	OutputKeys []keyfilter.Key
}

// NewBlock returns a Map that drops every event matching inputKey.
func NewBlock(inputKey keyfilter.Key) Map {
	return Map{InputKey: inputKey}
}

// NewDomainShift returns the internal Map every input device's events pass
// through once on ingestion, moving them from the Input to the User
// namespace under the device's allocated domain.
func NewDomainShift(sourceDomain evmodel.Domain, sourceNamespace evmodel.Namespace, targetDomain evmodel.Domain, targetNamespace evmodel.Namespace) Map {
	return Map{
		InputKey:   keyfilter.FromDomainAndNamespace(sourceDomain, sourceNamespace),
		OutputKeys: []keyfilter.Key{keyfilter.FromDomainAndNamespace(targetDomain, targetNamespace)},
	}
}

func (m Map) ApplyToAll(events []evmodel.Event, out *[]evmodel.Event, _ *stream.State, _ *loopback.Loopback) {
	for _, event := range events {
		m.apply(event, out)
	}
}

func (m Map) apply(event evmodel.Event, out *[]evmodel.Event) {
	if !m.InputKey.Matches(event) {
		*out = append(*out, event)
		return
	}
	for _, key := range m.OutputKeys {
		*out = append(*out, key.Merge(event))
	}
}

func (m Map) ApplyToAllCaps(caps []capset.Capability) []capset.Capability {
	var out []capset.Capability
	for _, c := range caps {
		m.applyCap(c, &out)
	}
	return out
}

func (m Map) applyCap(cap_ capset.Capability, out *[]capset.Capability) {
	certainty := m.InputKey.MatchesCap(cap_)

	switch certainty {
	case capset.CertaintyAlways:
		for _, key := range m.OutputKeys {
			*out = append(*out, key.MergeCap(cap_))
		}
	case capset.CertaintyMaybe:
		*out = append(*out, cap_)
		for _, key := range m.OutputKeys {
			*out = append(*out, key.MergeCap(cap_))
		}
	case capset.CertaintyNo:
		*out = append(*out, cap_)
	}
}
