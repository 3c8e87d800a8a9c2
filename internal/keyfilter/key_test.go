package keyfilter

import (
	"testing"

	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParser() Parser {
	return Parser{
		DefaultValue:     "",
		AllowTransitions: true,
		AllowRanges:      true,
		Namespace:        evmodel.NamespaceUser,
	}
}

func TestParseSimpleKey(t *testing.T) {
	key, err := testParser().Parse("key:a")
	require.NoError(t, err)

	codeA, ok := ecodesEventCode(t, "key", "a")
	require.True(t, ok)

	event := evmodel.Event{Code: codeA, Value: 1, Namespace: evmodel.NamespaceUser}
	assert.True(t, key.Matches(event))

	other := evmodel.Event{Code: codeA, Value: 1, Namespace: evmodel.NamespaceInput}
	assert.False(t, key.Matches(other))
}

func TestParseValueRange(t *testing.T) {
	key, err := testParser().Parse("key:a:1~2")
	require.NoError(t, err)

	codeA, _ := ecodesEventCode(t, "key", "a")
	assert.True(t, key.Matches(evmodel.Event{Code: codeA, Value: 1, Namespace: evmodel.NamespaceUser}))
	assert.True(t, key.Matches(evmodel.Event{Code: codeA, Value: 2, Namespace: evmodel.NamespaceUser}))
	assert.False(t, key.Matches(evmodel.Event{Code: codeA, Value: 3, Namespace: evmodel.NamespaceUser}))
}

func TestParseTransition(t *testing.T) {
	key, err := testParser().Parse("key:a:0..1")
	require.NoError(t, err)

	codeA, _ := ecodesEventCode(t, "key", "a")
	matching := evmodel.Event{Code: codeA, Value: 1, PreviousValue: 0, Namespace: evmodel.NamespaceUser}
	assert.True(t, key.Matches(matching))

	nonMatching := evmodel.Event{Code: codeA, Value: 1, PreviousValue: 1, Namespace: evmodel.NamespaceUser}
	assert.False(t, key.Matches(nonMatching))
}

func TestParseRejectsSyn(t *testing.T) {
	_, err := testParser().Parse("syn:report")
	assert.Error(t, err)
}

func TestParseRejectsUnknownType(t *testing.T) {
	_, err := testParser().Parse("nonsense:a")
	assert.Error(t, err)
}

func TestNoRangesDisallowed(t *testing.T) {
	p := testParser()
	p.AllowRanges = false
	_, err := p.Parse("key:a:0~1")
	assert.Error(t, err)
}

func TestNoTransitionsDisallowed(t *testing.T) {
	p := testParser()
	p.AllowTransitions = false
	_, err := p.Parse("key:a:0..1")
	assert.Error(t, err)
}

func TestPopValue(t *testing.T) {
	key, err := testParser().Parse("key:a:1")
	require.NoError(t, err)

	interval, ok := key.PopValue()
	require.True(t, ok)
	assert.Equal(t, int32(1), interval.Min)

	_, ok = key.PopValue()
	assert.False(t, ok)
}

func ecodesEventCode(t *testing.T, typeName, codeName string) (evmodel.EventCode, bool) {
	t.Helper()
	p := testParser()
	key, err := p.Parse(typeName + ":" + codeName)
	require.NoError(t, err)
	for _, prop := range key.properties {
		if prop.kind == propCode {
			return prop.code, true
		}
	}
	return evmodel.EventCode{}, false
}
