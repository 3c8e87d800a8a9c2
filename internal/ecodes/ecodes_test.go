package ecodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evsieve/evsieve-go/internal/evmodel"
)

func TestEventCodeResolvesKeyName(t *testing.T) {
	code, ok := EventCode("key", "a")
	require.True(t, ok)
	assert.Equal(t, evmodel.NewEventCode(evmodel.EvKey, 30), code)
}

func TestEventCodeIsCaseInsensitive(t *testing.T) {
	code, ok := EventCode("KEY", "A")
	require.True(t, ok)
	assert.Equal(t, evmodel.NewEventCode(evmodel.EvKey, 30), code)
}

func TestEventCodeKeyAndBtnShareNumericSpace(t *testing.T) {
	middle, ok := EventCode("btn", "middle")
	require.True(t, ok)

	// "middle" is only listed in the btn: table, yet also resolves under
	// key: since both families share one numeric space and EventCode falls
	// back to the other table.
	fallback, ok := EventCode("key", "middle")
	require.True(t, ok)
	assert.Equal(t, middle, fallback)
}

func TestEventCodeRejectsUnknownType(t *testing.T) {
	_, ok := EventCode("nope", "a")
	assert.False(t, ok)
}

func TestEventCodeRejectsUnknownName(t *testing.T) {
	_, ok := EventCode("key", "nonexistent")
	assert.False(t, ok)
}

func TestEventTypeResolvesBtnAsKeySynonym(t *testing.T) {
	typ, ok := EventType("btn")
	require.True(t, ok)
	assert.Equal(t, evmodel.EvKey, typ)
}

func TestIsAbsMTOnlyMatchesMultitouchRange(t *testing.T) {
	assert.True(t, IsAbsMT(evmodel.NewEventCode(evmodel.EvAbs, 0x35)))
	assert.False(t, IsAbsMT(evmodel.NewEventCode(evmodel.EvAbs, 0x00)))
	assert.False(t, IsAbsMT(evmodel.NewEventCode(evmodel.EvKey, 0x35)))
}

func TestEventNameFallsBackToNumericStringForUnknownCode(t *testing.T) {
	unknown := evmodel.NewEventCode(evmodel.EventType(99), 9999)
	name := EventName(unknown)
	assert.Equal(t, unknown.String(), name)
}

func TestEventNameRendersKnownCode(t *testing.T) {
	name := EventName(evmodel.NewEventCode(evmodel.EvKey, 30))
	assert.Equal(t, "key:a", name)
}

func TestCodesForTypeIncludesBothKeyAndBtnSpaces(t *testing.T) {
	codes := CodesForType(evmodel.EvKey)
	assert.Contains(t, codes, uint16(30))   // KEY_A
	assert.Contains(t, codes, uint16(0x110)) // BTN_LEFT
}
