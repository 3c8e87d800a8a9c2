// Package evmodel implements the event and capability data model described
// by the pipeline core: a typed event record, the domain/namespace tags
// that track an event's life cycle, and the channel identity that lets
// transformers recognise "the same logical key" across the chain.
package evmodel

import "fmt"

// EventType is the high bits of an evdev event code pair (EV_KEY, EV_ABS, ...).
type EventType uint16

// EventCode pairs a type with a code, e.g. (EV_KEY, KEY_A).
type EventCode struct {
	Type EventType
	Code uint16
}

func NewEventCode(evType EventType, code uint16) EventCode {
	return EventCode{Type: evType, Code: code}
}

func (c EventCode) String() string {
	return fmt.Sprintf("(%d,%d)", c.Type, c.Code)
}

// Well-known event types the core must recognise explicitly; the full
// table of type/code name lookups lives outside the core (§1 non-goals).
const (
	EvSyn EventType = 0x00
	EvKey EventType = 0x01
	EvRel EventType = 0x02
	EvAbs EventType = 0x03
	EvRep EventType = 0x14
)

func (t EventType) IsKey() bool { return t == EvKey }
func (t EventType) IsAbs() bool { return t == EvAbs }
func (t EventType) IsRel() bool { return t == EvRel }
func (t EventType) IsRep() bool { return t == EvRep }
func (t EventType) IsSyn() bool { return t == EvSyn }

// Namespace is the phase bit distinguishing Input/User/Yielded/Output
// stages of an event's life inside the chain. Input exists only at
// ingestion and is rewritten to User immediately by a domain-shift Map;
// Output is the only namespace that is routable to a virtual device.
type Namespace int

const (
	NamespaceInput Namespace = iota
	NamespaceUser
	NamespaceYielded
	NamespaceOutput
)

func (n Namespace) String() string {
	switch n {
	case NamespaceInput:
		return "input"
	case NamespaceUser:
		return "user"
	case NamespaceYielded:
		return "yielded"
	case NamespaceOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Domain is an opaque tag identifying the logical origin or destination of
// an event. Domains are allocated from a monotonically increasing counter
// and are otherwise meaningless to the core.
type Domain uint64

// Channel is the pair (code, domain): the unit at which key-up/down events
// are balanced and at which transformer state (toggle memory, tracker
// activity, withhold buffering) is indexed.
type Channel struct {
	Code   EventCode
	Domain Domain
}

// Event is the immutable-by-convention record that flows through the
// pipeline. Transformers that want to change a field produce a new Event
// rather than mutating the one they were given, preserving the fan-out
// ordering guarantee of the chain.
type Event struct {
	Code          EventCode
	Value         int32
	PreviousValue int32
	Domain        Domain
	Namespace     Namespace
}

func (e Event) Channel() Channel {
	return Channel{Code: e.Code, Domain: e.Domain}
}

func (e Event) IsSyn() bool {
	return e.Code.Type.IsSyn()
}

// Delta returns the saturating difference between the event's current and
// previous value, used by AbsToRel and similar stateful transformers.
func (e Event) Delta() int32 {
	return saturatingSub(e.Value, e.PreviousValue)
}

func saturatingSub(a, b int32) int32 {
	diff := int64(a) - int64(b)
	switch {
	case diff > int64(int32Max):
		return int32Max
	case diff < int64(int32Min):
		return int32Min
	default:
		return int32(diff)
	}
}

const (
	int32Max = int32(1<<31 - 1)
	int32Min = -int32Max - 1
)

// WithValue returns a copy of the event with a new current value and the
// old current value moved into PreviousValue, as happens whenever an event
// is observed arriving on an input device.
func (e Event) WithValue(value int32) Event {
	e.PreviousValue = e.Value
	e.Value = value
	return e
}
