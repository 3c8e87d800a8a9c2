package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
)

func TestOscillatorPressFiresDownAndSchedulesWakeup(t *testing.T) {
	lb := loopback.New()
	o := NewOscillator([]keyfilter.Key{keyFor(t, "key:a")}, time.Second, time.Second)
	down := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvKey, 30), Value: 1}

	var out []evmodel.Event
	o.ApplyToAll([]evmodel.Event{down}, &out, nil, lb)
	require.Len(t, out, 1)
	assert.EqualValues(t, 1, out[0].Value)
	require.Len(t, o.held, 1)
}

func TestOscillatorWakeupFlipsActiveStateAndReschedules(t *testing.T) {
	lb := loopback.New()
	o := NewOscillator([]keyfilter.Key{keyFor(t, "key:a")}, time.Second, 2*time.Second)
	down := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvKey, 30), Value: 1}

	var out []evmodel.Event
	o.ApplyToAll([]evmodel.Event{down}, &out, nil, lb)

	channel := down.Channel()
	state := o.held[channel]
	require.NotNil(t, state)
	require.True(t, state.appearsActive)
	firstToken := state.nextToken

	out = nil
	o.Wakeup(firstToken, &out, nil, lb)
	require.Len(t, out, 1)
	assert.EqualValues(t, 0, out[0].Value)
	assert.False(t, state.appearsActive)
	assert.NotEqual(t, firstToken, state.nextToken)
}

func TestOscillatorReleaseCancelsWakeupAndDropsState(t *testing.T) {
	lb := loopback.New()
	o := NewOscillator([]keyfilter.Key{keyFor(t, "key:a")}, time.Second, time.Second)
	down := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvKey, 30), Value: 1}

	var out []evmodel.Event
	o.ApplyToAll([]evmodel.Event{down}, &out, nil, lb)

	up := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvKey, 30), Value: 0}
	out = nil
	o.ApplyToAll([]evmodel.Event{up}, &out, nil, lb)
	require.Len(t, out, 1, "the key appeared active, so its release must be forwarded")
	assert.Empty(t, o.held)
}

func TestOscillatorRepeatEventOnlyForwardedWhileAppearingActive(t *testing.T) {
	lb := loopback.New()
	o := NewOscillator([]keyfilter.Key{keyFor(t, "key:a")}, time.Second, time.Second)
	down := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvKey, 30), Value: 1}
	var out []evmodel.Event
	o.ApplyToAll([]evmodel.Event{down}, &out, nil, lb)

	repeat := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvKey, 30), Value: 2}
	out = nil
	o.ApplyToAll([]evmodel.Event{repeat}, &out, nil, lb)
	assert.Len(t, out, 1)
}

func TestOscillatorPassesThroughNonMatchingEvents(t *testing.T) {
	lb := loopback.New()
	o := NewOscillator([]keyfilter.Key{keyFor(t, "key:a")}, time.Second, time.Second)
	other := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvKey, 48), Value: 1}

	var out []evmodel.Event
	o.ApplyToAll([]evmodel.Event{other}, &out, nil, lb)
	assert.Equal(t, []evmodel.Event{other}, out)
}
