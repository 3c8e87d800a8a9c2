// Package keyfilter implements the predicate-based event and capability
// matcher used by every component of the pipeline that accepts a "key"
// argument: a conjunction of property constraints (event type, code,
// domain, namespace, value range, previous-value range) that can both test
// whether an event matches and project an event or capability onto the
// properties it names.
package keyfilter

import (
	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
)

// propertyKind distinguishes the fields a Key can constrain.
type propertyKind int

const (
	propEvtype propertyKind = iota
	propCode
	propDomain
	propNamespace
	propValue
	propPreviousValue
)

type property struct {
	kind      propertyKind
	evtype    evmodel.EventType
	code      evmodel.EventCode
	domain    evmodel.Domain
	namespace evmodel.Namespace
	valRange  capset.Interval
}

// Key is a conjunction of property constraints. The zero Key matches every
// event and every capability.
type Key struct {
	properties []property
}

// Copy returns a Key with no properties: it matches everything, used where
// --copy needs to duplicate events verbatim.
func Copy() Key {
	return Key{}
}

// FromDomainAndNamespace returns a Key that matches exactly the events
// carrying the given domain and namespace, used to select the events that
// just arrived from one particular input device.
func FromDomainAndNamespace(domain evmodel.Domain, namespace evmodel.Namespace) Key {
	var k Key
	k.properties = append(k.properties,
		property{kind: propNamespace, namespace: namespace},
		property{kind: propDomain, domain: domain},
	)
	return k
}

func (k *Key) add(p property) {
	k.properties = append(k.properties, p)
}

// Matches reports whether every property constraint holds for event.
func (k Key) Matches(event evmodel.Event) bool {
	for _, p := range k.properties {
		if !p.matches(event) {
			return false
		}
	}
	return true
}

func (p property) matches(event evmodel.Event) bool {
	switch p.kind {
	case propEvtype:
		return event.Code.Type == p.evtype
	case propCode:
		return event.Code == p.code
	case propDomain:
		return event.Domain == p.domain
	case propNamespace:
		return event.Namespace == p.namespace
	case propValue:
		return p.valRange.Contains(event.Value)
	case propPreviousValue:
		return p.valRange.Contains(event.PreviousValue)
	default:
		return true
	}
}

// Merge returns the closest event to the one given that satisfies every
// property constraint this key names, overwriting the named fields and
// clamping the named value ranges.
func (k Key) Merge(event evmodel.Event) evmodel.Event {
	for _, p := range k.properties {
		event = p.merge(event)
	}
	return event
}

func (p property) merge(event evmodel.Event) evmodel.Event {
	switch p.kind {
	case propEvtype:
		event.Code.Type = p.evtype
	case propCode:
		event.Code = p.code
	case propDomain:
		event.Domain = p.domain
	case propNamespace:
		event.Namespace = p.namespace
	case propValue:
		event.Value = p.valRange.Bound(event.Value)
	case propPreviousValue:
		event.PreviousValue = p.valRange.Bound(event.PreviousValue)
	}
	return event
}

// MatchesCap reports whether this key is certain to match, certain not to
// match, or might match some event a capability with the given code and
// value interval could emit.
func (k Key) MatchesCap(cap_ capset.Capability) capset.Certainty {
	worst := capset.CertaintyAlways
	for _, p := range k.properties {
		worst = weakerOf(worst, p.matchesCap(cap_))
	}
	return worst
}

func weakerOf(a, b capset.Certainty) capset.Certainty {
	if a > b {
		return a
	}
	return b
}

func (p property) matchesCap(cap_ capset.Capability) capset.Certainty {
	switch p.kind {
	case propEvtype:
		return boolCertainty(cap_.Code.Type == p.evtype)
	case propCode:
		return boolCertainty(cap_.Code == p.code)
	case propDomain:
		// Capabilities carry no domain of their own; domain constraints
		// are resolved structurally by whichever transformer owns this
		// capability, so treat them as indeterminate here.
		return capset.CertaintyMaybe
	case propNamespace:
		return capset.CertaintyMaybe
	case propValue:
		if cap_.ValueInterval.IsSubsetOf(p.valRange) {
			return capset.CertaintyAlways
		}
		if cap_.ValueInterval.IsDisjointWith(p.valRange) {
			return capset.CertaintyNo
		}
		return capset.CertaintyMaybe
	case propPreviousValue:
		return capset.CertaintyMaybe
	default:
		return capset.CertaintyAlways
	}
}

func boolCertainty(b bool) capset.Certainty {
	if b {
		return capset.CertaintyAlways
	}
	return capset.CertaintyNo
}

// MergeCap projects a capability through this key's property constraints,
// narrowing its value interval and overwriting its code where the key
// names one.
func (k Key) MergeCap(cap_ capset.Capability) capset.Capability {
	for _, p := range k.properties {
		cap_ = p.mergeCap(cap_)
	}
	return cap_
}

func (p property) mergeCap(cap_ capset.Capability) capset.Capability {
	switch p.kind {
	case propEvtype:
		cap_.Code.Type = p.evtype
	case propCode:
		cap_.Code = p.code
	case propValue:
		cap_.ValueInterval = p.valRange.BoundInterval(cap_.ValueInterval)
	}
	return cap_
}

// MatchesChannel reports whether a channel (code + domain, with no value
// or namespace of its own) could be produced by an event this key
// matches, checking only the Evtype/Code/Domain constraints.
func (k Key) MatchesChannel(channel evmodel.Channel) bool {
	for _, p := range k.properties {
		switch p.kind {
		case propEvtype:
			if channel.Code.Type != p.evtype {
				return false
			}
		case propCode:
			if channel.Code != p.code {
				return false
			}
		case propDomain:
			if channel.Domain != p.domain {
				return false
			}
		}
	}
	return true
}

// HasValue reports whether this key names an explicit Value constraint,
// used by --hook's send-event clause to require its events carry one.
func (k Key) HasValue() bool {
	for _, p := range k.properties {
		if p.kind == propValue {
			return true
		}
	}
	return false
}

// PopValue removes and returns this key's Value property, if present,
// decoupling the channel being matched from the value being matched so
// hook triggers can test the value separately from the key's identity.
func (k *Key) PopValue() (capset.Interval, bool) {
	for i, p := range k.properties {
		if p.kind == propValue {
			k.properties = append(k.properties[:i], k.properties[i+1:]...)
			return p.valRange, true
		}
	}
	return capset.Interval{}, false
}
