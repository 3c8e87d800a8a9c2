package withhold

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evsieve/evsieve-go/internal/ecodes"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/hook"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
	"github.com/evsieve/evsieve-go/internal/stream"
)

func withholdTestKey(t *testing.T, typeName, codeName string) (keyfilter.Key, evmodel.EventCode) {
	t.Helper()
	code, ok := ecodes.EventCode(typeName, codeName)
	require.True(t, ok)
	key, err := (keyfilter.Parser{Namespace: evmodel.NamespaceUser}).Parse("key:" + codeName)
	require.NoError(t, err)
	return key, code
}

func keyDown(code evmodel.EventCode) evmodel.Event {
	return evmodel.Event{Code: code, Value: 1, Namespace: evmodel.NamespaceUser}
}

func keyUp(code evmodel.EventCode) evmodel.Event {
	return evmodel.Event{Code: code, Value: 0, PreviousValue: 1, Namespace: evmodel.NamespaceUser}
}

// A --hook a b --withhold a sequence: pressing a alone should withhold the
// key-down while the trigger still has an active tracker waiting for b,
// and deliver it once the trigger's wait expires and releases its tracker.
func TestWithholdReleasesOnTriggerExpiry(t *testing.T) {
	keyA, codeA := withholdTestKey(t, "key", "a")
	keyB, _ := withholdTestKey(t, "key", "b")

	trigger := hook.NewTrigger([]keyfilter.Key{keyA, keyB}, nil, 50*time.Millisecond, true, false)
	w := New([]keyfilter.Key{keyA}, []*hook.Trigger{trigger})

	lb := loopback.New()
	state := stream.NewState()

	var out []evmodel.Event
	w.ApplyToAll([]evmodel.Event{keyDown(codeA)}, &out, state, lb)
	assert.Empty(t, out, "the key-down should be withheld while the trigger is tracking it")

	tokens := lb.Poll()
	assert.Empty(t, tokens, "the period has not elapsed yet")

	time.Sleep(60 * time.Millisecond)
	tokens = lb.Poll()
	require.Len(t, tokens, 1)
	out = nil
	w.Wakeup(tokens[0], &out, state, lb)
	assert.Equal(t, []evmodel.Event{keyDown(codeA)}, out, "the withheld key-down is released once the tracker expires")
}

// A key that no --hook argument is tracking at all passes straight through.
func TestWithholdPassesThroughUnmatchedKey(t *testing.T) {
	keyA, codeA := withholdTestKey(t, "key", "a")
	_, codeC := withholdTestKey(t, "key", "c")

	trigger := hook.NewTrigger([]keyfilter.Key{keyA}, nil, 0, false, false)
	w := New([]keyfilter.Key{keyA}, []*hook.Trigger{trigger})

	lb := loopback.New()
	state := stream.NewState()

	var out []evmodel.Event
	event := keyDown(codeC)
	w.ApplyToAll([]evmodel.Event{event}, &out, state, lb)
	require.Len(t, out, 1)
	assert.Equal(t, event, out[0])
}

func TestWithholdApplyToAllCapsIsPassthrough(t *testing.T) {
	w := New(nil, nil)
	caps := w.ApplyToAllCaps(nil)
	assert.Nil(t, caps)
}
