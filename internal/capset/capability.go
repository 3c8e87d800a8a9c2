package capset

import "github.com/evsieve/evsieve-go/internal/evmodel"

// Certainty expresses how sure a capability computation is that a given
// channel will actually be emitted, used when merging capabilities across
// branches of the pipeline that may or may not fire at runtime.
type Certainty int

const (
	CertaintyAlways Certainty = iota
	CertaintyMaybe
	CertaintyNo
)

// weaker returns the lower of the two certainties, i.e. the one that
// dominates when a channel is reachable through more than one path.
func weaker(a, b Certainty) Certainty {
	if a > b {
		return a
	}
	return b
}

// AbsMeta mirrors the fields of struct input_absinfo that matter to
// capability computation and advertisement: the value range plus the
// fuzz/flat/resolution hints. The output side writes the range, fuzz and
// flat into uinput_user_dev; Resolution is kept but not advertised.
type AbsMeta struct {
	ValueInterval Interval
	Fuzz          int32
	Flat          int32
	Resolution    int32
}

// RepeatInfo mirrors a device's EV_REP values: the delay before a
// held key starts auto-repeating and the interval between repeats.
type RepeatInfo struct {
	Delay  int32
	Period int32
}

// KernelDefaultRepeatInfo is the delay/period pair the kernel uses for a
// newly created input device that never receives an explicit EVIOCSREP.
var KernelDefaultRepeatInfo = RepeatInfo{Delay: 250, Period: 33}

// Capability describes everything an output device must advertise for one
// (type, code) pair: the set of values it may emit, and for EV_ABS codes
// the accompanying absinfo metadata.
type Capability struct {
	Code          evmodel.EventCode
	ValueInterval Interval
	Abs           *AbsMeta
}

// Capabilities is the full capability set of one device: every code it can
// emit plus the device-wide EV_REP policy, if any.
type Capabilities struct {
	ByCode map[evmodel.EventCode]Capability
	Repeat *RepeatInfo
}

func NewCapabilities() *Capabilities {
	return &Capabilities{ByCode: make(map[evmodel.EventCode]Capability)}
}

// Clone returns a deep-enough copy that callers may mutate independently.
func (c *Capabilities) Clone() *Capabilities {
	out := NewCapabilities()
	for code, cap_ := range c.ByCode {
		capCopy := cap_
		if cap_.Abs != nil {
			absCopy := *cap_.Abs
			capCopy.Abs = &absCopy
		}
		out.ByCode[code] = capCopy
	}
	if c.Repeat != nil {
		r := *c.Repeat
		out.Repeat = &r
	}
	return out
}

// Add inserts or widens a capability's value interval to additionally
// cover cap_.ValueInterval, and replaces the Abs metadata with cap_.Abs
// when that is non-nil.
func (c *Capabilities) Add(cap_ Capability) {
	existing, ok := c.ByCode[cap_.Code]
	if !ok {
		c.ByCode[cap_.Code] = cap_
		return
	}
	existing.ValueInterval = existing.ValueInterval.Merge(cap_.ValueInterval)
	if cap_.Abs != nil {
		existing.Abs = cap_.Abs
	}
	c.ByCode[cap_.Code] = existing
}

// Has reports whether code is present at all, regardless of value range.
func (c *Capabilities) Has(code evmodel.EventCode) bool {
	_, ok := c.ByCode[code]
	return ok
}

// Aggregate merges a list of capability sets produced by independent
// branches of the pipeline (e.g. the input arms of a Merge) into the union
// capability set a downstream transformer could possibly observe.
func Aggregate(sets ...*Capabilities) *Capabilities {
	out := NewCapabilities()
	for _, set := range sets {
		if set == nil {
			continue
		}
		for _, cap_ := range set.ByCode {
			out.Add(cap_)
		}
		if set.Repeat != nil {
			out.Repeat = set.Repeat
		}
	}
	return out
}

// Codes returns the set of codes this capability set advertises, in no
// particular order.
func (c *Capabilities) Codes() []evmodel.EventCode {
	codes := make([]evmodel.EventCode, 0, len(c.ByCode))
	for code := range c.ByCode {
		codes = append(codes, code)
	}
	return codes
}
