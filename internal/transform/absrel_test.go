package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
)

func TestAbsToRelDropsFirstSampleAfterStartup(t *testing.T) {
	a := NewAbsToRel(keyFor(t, "abs:x"), keyFor(t, "rel:x"), nil)
	first := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvAbs, 0), Value: 100, PreviousValue: 0}

	var out []evmodel.Event
	a.ApplyToAll([]evmodel.Event{first}, &out, nil, nil)
	assert.Empty(t, out)
}

func TestAbsToRelEmitsDeltaOnSubsequentSamples(t *testing.T) {
	a := NewAbsToRel(keyFor(t, "abs:x"), keyFor(t, "rel:x"), nil)
	first := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvAbs, 0), Value: 100, PreviousValue: 0}
	second := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvAbs, 0), Value: 130, PreviousValue: 100}

	var out []evmodel.Event
	a.ApplyToAll([]evmodel.Event{first, second}, &out, nil, nil)
	require.Len(t, out, 1)
	assert.EqualValues(t, 30, out[0].Value)
}

func TestAbsToRelResetKeyForcesNextSampleToBeDropped(t *testing.T) {
	a := NewAbsToRel(keyFor(t, "abs:x"), keyFor(t, "rel:x"), []keyfilter.Key{keyFor(t, "key:a")})
	first := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvAbs, 0), Value: 100, PreviousValue: 0}
	second := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvAbs, 0), Value: 130, PreviousValue: 100}
	resetEvent := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvKey, 30), Value: 1}

	var out []evmodel.Event
	a.ApplyToAll([]evmodel.Event{first, second}, &out, nil, nil)
	require.Len(t, out, 1)

	out = nil
	a.ApplyToAll([]evmodel.Event{resetEvent, second}, &out, nil, nil)
	// the reset key itself passes through unmatched by InputKey, then the
	// next abs sample is swallowed because reset was just requested.
	require.Len(t, out, 1)
	assert.Equal(t, resetEvent, out[0])
}

func TestRelToAbsClampsAtBoundsWithoutWrap(t *testing.T) {
	r := NewRelToAbs(keyFor(t, "rel:x"), keyFor(t, "abs:x"), capset.NewInterval(0, 10), false)
	event := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvRel, 0), Value: 50}

	var out []evmodel.Event
	r.ApplyToAll([]evmodel.Event{event}, &out, nil, nil)
	require.Len(t, out, 1)
	assert.EqualValues(t, 10, out[0].Value)
}

func TestRelToAbsWrapsAroundBounds(t *testing.T) {
	r := NewRelToAbs(keyFor(t, "rel:x"), keyFor(t, "abs:x"), capset.NewInterval(0, 9), true)
	event := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvRel, 0), Value: 12}

	var out []evmodel.Event
	r.ApplyToAll([]evmodel.Event{event}, &out, nil, nil)
	require.Len(t, out, 1)
	assert.EqualValues(t, 2, out[0].Value)
}

func TestRelToAbsStartsAtLowerBound(t *testing.T) {
	r := NewRelToAbs(keyFor(t, "rel:x"), keyFor(t, "abs:x"), capset.NewInterval(5, 15), false)
	event := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvRel, 0), Value: 0}

	var out []evmodel.Event
	r.ApplyToAll([]evmodel.Event{event}, &out, nil, nil)
	require.Len(t, out, 1)
	assert.EqualValues(t, 5, out[0].Value)
}
