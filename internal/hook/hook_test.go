package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evsieve/evsieve-go/internal/ecodes"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
	"github.com/evsieve/evsieve-go/internal/stream"
)

func hookTestKey(t *testing.T, codeName string) (keyfilter.Key, evmodel.EventCode) {
	t.Helper()
	code, ok := ecodes.EventCode("key", codeName)
	require.True(t, ok)
	key, err := (keyfilter.Parser{Namespace: evmodel.NamespaceUser}).Parse("key:" + codeName)
	require.NoError(t, err)
	return key, code
}

func hookKeyDown(code evmodel.EventCode) evmodel.Event {
	return evmodel.Event{Code: code, Value: 1, Namespace: evmodel.NamespaceUser}
}

func hookKeyUp(code evmodel.EventCode) evmodel.Event {
	return evmodel.Event{Code: code, Value: 0, PreviousValue: 1, Namespace: evmodel.NamespaceUser}
}

func TestTriggerActivatesOnceAllKeysAreHeld(t *testing.T) {
	keyA, codeA := hookTestKey(t, "a")
	keyB, codeB := hookTestKey(t, "b")
	trigger := NewTrigger([]keyfilter.Key{keyA, keyB}, nil, 0, false, false)
	lb := loopback.New()

	assert.Equal(t, TriggerInteracts, trigger.Apply(hookKeyDown(codeA), lb))
	assert.Equal(t, TriggerActivates, trigger.Apply(hookKeyDown(codeB), lb))
	assert.Equal(t, TriggerReleases, trigger.Apply(hookKeyUp(codeA), lb))
}

func TestTriggerSequentialRejectsOutOfOrderActivation(t *testing.T) {
	keyA, codeA := hookTestKey(t, "a")
	keyB, codeB := hookTestKey(t, "b")
	trigger := NewTrigger([]keyfilter.Key{keyA, keyB}, nil, 0, false, true)
	lb := loopback.New()

	// b before a: b's tracker activates out of the required sequence and
	// must be invalidated, so the trigger never reaches TriggerActivates.
	assert.Equal(t, TriggerInteracts, trigger.Apply(hookKeyDown(codeB), lb))
	resp := trigger.Apply(hookKeyDown(codeA), lb)
	assert.NotEqual(t, TriggerActivates, resp)
}

func TestTriggerWakeupExpiresTracker(t *testing.T) {
	keyA, codeA := hookTestKey(t, "a")
	keyB, _ := hookTestKey(t, "b")
	trigger := NewTrigger([]keyfilter.Key{keyA, keyB}, nil, 0, true, false)
	lb := loopback.New()

	trigger.Apply(hookKeyDown(codeA), lb)
	tokens := lb.Poll()
	require.Len(t, tokens, 1, "a zero period is already due")
	assert.True(t, trigger.Wakeup(tokens[0]))
}

func TestHookRunsEffectOnActivation(t *testing.T) {
	keyA, codeA := hookTestKey(t, "a")
	trigger := NewTrigger([]keyfilter.Key{keyA}, nil, 0, false, false)
	actuator := NewHookActuator(NewEventDispatcher(nil, nil))

	ran := false
	actuator.AddEffect(func(*stream.State) { ran = true })

	h := New(trigger, actuator)
	lb := loopback.New()
	state := stream.NewState()

	var out []evmodel.Event
	h.ApplyToAll([]evmodel.Event{hookKeyDown(codeA)}, &out, state, lb)

	assert.True(t, ran)
	require.Len(t, out, 1)
	assert.Equal(t, codeA, out[0].Code)
}

func TestHookSendKeyEmitsExtraEventOnActivation(t *testing.T) {
	keyA, codeA := hookTestKey(t, "a")
	keyC, codeC := hookTestKey(t, "c")
	trigger := NewTrigger([]keyfilter.Key{keyA}, nil, 0, false, false)
	actuator := NewHookActuator(NewEventDispatcher([]keyfilter.Key{keyC}, nil))

	h := New(trigger, actuator)
	lb := loopback.New()
	state := stream.NewState()

	var out []evmodel.Event
	h.ApplyToAll([]evmodel.Event{hookKeyDown(codeA)}, &out, state, lb)

	require.Len(t, out, 2)
	assert.Equal(t, codeA, out[0].Code)
	assert.Equal(t, codeC, out[1].Code)
}
