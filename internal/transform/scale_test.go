package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
)

func TestScaleMultipliesValue(t *testing.T) {
	s := NewScale([]keyfilter.Key{keyFor(t, "rel:x")}, 2.0)
	event := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvRel, 0), Value: 3}

	var out []evmodel.Event
	s.ApplyToAll([]evmodel.Event{event}, &out, nil, nil)
	require.Len(t, out, 1)
	assert.EqualValues(t, 6, out[0].Value)
}

func TestScaleCarriesFractionalResidualBetweenEvents(t *testing.T) {
	s := NewScale([]keyfilter.Key{keyFor(t, "rel:x")}, 0.5)
	event := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvRel, 0), Value: 1}

	var out []evmodel.Event
	s.ApplyToAll([]evmodel.Event{event}, &out, nil, nil)
	require.Len(t, out, 1)
	assert.EqualValues(t, 0, out[0].Value, "0.5 rounds down to 0 but the residual carries forward")

	out = nil
	s.ApplyToAll([]evmodel.Event{event}, &out, nil, nil)
	require.Len(t, out, 1)
	assert.EqualValues(t, 1, out[0].Value, "the carried 0.5 residual plus another 0.5 rounds up to 1")
}

func TestScalePassesThroughNonMatchingEvents(t *testing.T) {
	s := NewScale([]keyfilter.Key{keyFor(t, "rel:x")}, 2.0)
	other := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvRel, 1), Value: 5}

	var out []evmodel.Event
	s.ApplyToAll([]evmodel.Event{other}, &out, nil, nil)
	assert.Equal(t, []evmodel.Event{other}, out)
}
