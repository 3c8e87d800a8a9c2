package capset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evsieve/evsieve-go/internal/evmodel"
)

func TestCapabilitiesAddInsertsNewCode(t *testing.T) {
	c := NewCapabilities()
	code := evmodel.NewEventCode(evmodel.EvKey, 30)
	c.Add(Capability{Code: code, ValueInterval: NewInterval(0, 1)})

	require.True(t, c.Has(code))
	assert.Equal(t, NewInterval(0, 1), c.ByCode[code].ValueInterval)
}

func TestCapabilitiesAddWidensExistingInterval(t *testing.T) {
	c := NewCapabilities()
	code := evmodel.NewEventCode(evmodel.EvAbs, 0)
	c.Add(Capability{Code: code, ValueInterval: NewInterval(0, 10)})
	c.Add(Capability{Code: code, ValueInterval: NewInterval(5, 20)})

	assert.Equal(t, NewInterval(0, 20), c.ByCode[code].ValueInterval)
}

func TestCapabilitiesAddKeepsNewerAbsMetadata(t *testing.T) {
	c := NewCapabilities()
	code := evmodel.NewEventCode(evmodel.EvAbs, 0)
	c.Add(Capability{Code: code, ValueInterval: NewInterval(0, 10)})
	c.Add(Capability{Code: code, ValueInterval: NewInterval(0, 10), Abs: &AbsMeta{Fuzz: 2}})

	require.NotNil(t, c.ByCode[code].Abs)
	assert.EqualValues(t, 2, c.ByCode[code].Abs.Fuzz)
}

func TestCapabilitiesHasReportsMissingCode(t *testing.T) {
	c := NewCapabilities()
	assert.False(t, c.Has(evmodel.NewEventCode(evmodel.EvKey, 30)))
}

func TestCapabilitiesCloneIsIndependentOfOriginal(t *testing.T) {
	c := NewCapabilities()
	code := evmodel.NewEventCode(evmodel.EvAbs, 0)
	c.Add(Capability{Code: code, ValueInterval: NewInterval(0, 10), Abs: &AbsMeta{Fuzz: 1}})
	c.Repeat = &RepeatInfo{Delay: 250, Period: 33}

	clone := c.Clone()
	clone.ByCode[code] = Capability{Code: code, ValueInterval: NewInterval(0, 1)}
	clone.Repeat.Delay = 999

	assert.Equal(t, NewInterval(0, 10), c.ByCode[code].ValueInterval)
	assert.EqualValues(t, 250, c.Repeat.Delay)
}

func TestAggregateMergesAcrossMultipleSets(t *testing.T) {
	code := evmodel.NewEventCode(evmodel.EvKey, 30)
	a := NewCapabilities()
	a.Add(Capability{Code: code, ValueInterval: NewInterval(0, 1)})
	b := NewCapabilities()
	b.Add(Capability{Code: code, ValueInterval: NewInterval(1, 2)})

	merged := Aggregate(a, b, nil)
	assert.Equal(t, NewInterval(0, 2), merged.ByCode[code].ValueInterval)
}

func TestAggregateSkipsNilSets(t *testing.T) {
	merged := Aggregate(nil, nil)
	assert.Empty(t, merged.ByCode)
}

func TestCapabilitiesCodesReturnsEveryCode(t *testing.T) {
	c := NewCapabilities()
	a := evmodel.NewEventCode(evmodel.EvKey, 30)
	b := evmodel.NewEventCode(evmodel.EvKey, 48)
	c.Add(Capability{Code: a, ValueInterval: NewInterval(0, 1)})
	c.Add(Capability{Code: b, ValueInterval: NewInterval(0, 1)})

	assert.ElementsMatch(t, []evmodel.EventCode{a, b}, c.Codes())
}
