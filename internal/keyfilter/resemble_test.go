package keyfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evsieve/evsieve-go/internal/evmodel"
)

func TestResemblesKeyAcceptsWellFormedKeys(t *testing.T) {
	assert.True(t, ResemblesKey("key:a"))
	assert.True(t, ResemblesKey("abs:x:0~255"))
}

func TestResemblesKeyRejectsPaths(t *testing.T) {
	assert.False(t, ResemblesKey("/dev/input/event0"))
}

func TestResemblesKeyRejectsBareFlagsAndClauses(t *testing.T) {
	assert.False(t, ResemblesKey("grab"))
	assert.False(t, ResemblesKey("grab=force"))
}

func TestResemblesKeyAcceptsMisspelledKeysByPunctuation(t *testing.T) {
	// "key:bogus" fails to parse (unknown code) but still resembles a key
	// by punctuation, so a helpful parse error surfaces instead of it
	// being silently treated as a flag.
	assert.True(t, ResemblesKey("key:bogus"))
}

func TestParseResolvesDomainSuffix(t *testing.T) {
	p := Parser{
		Namespace: evmodel.NamespaceUser,
		ResolveDomain: func(name string) (evmodel.Domain, error) {
			if name == "kbd" {
				return evmodel.Domain(9), nil
			}
			return evmodel.Domain(0), assert.AnError
		},
	}
	key, err := p.Parse("key:a@kbd")
	require.NoError(t, err)

	matching := evmodel.Event{Code: evmodel.NewEventCode(evmodel.EvKey, 30), Domain: evmodel.Domain(9), Namespace: evmodel.NamespaceUser}
	assert.True(t, key.Matches(matching))

	wrongDomain := matching
	wrongDomain.Domain = evmodel.Domain(1)
	assert.False(t, key.Matches(wrongDomain))
}

func TestParseRejectsDomainWhenUnsupported(t *testing.T) {
	p := Parser{Namespace: evmodel.NamespaceUser}
	_, err := p.Parse("key:a@kbd")
	assert.Error(t, err)
}
