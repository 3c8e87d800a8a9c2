package cliarg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evsieve/evsieve-go/internal/evmodel"
)

func TestCompilePrintDefaultsToDetailedFormat(t *testing.T) {
	g, err := ParseGroup([]string{"--print"}, nil, []string{"format"}, false, true)
	require.NoError(t, err)

	p, err := compilePrint(g, evmodel.NewNamedDomains())
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestCompilePrintRejectsUnknownFormat(t *testing.T) {
	g, err := ParseGroup([]string{"--print", "format=bogus"}, nil, []string{"format"}, false, true)
	require.NoError(t, err)

	_, err = compilePrint(g, evmodel.NewNamedDomains())
	assert.Error(t, err)
}

func TestCompilePrintAcceptsDirectFormat(t *testing.T) {
	g, err := ParseGroup([]string{"--print", "format=direct"}, nil, []string{"format"}, false, true)
	require.NoError(t, err)

	p, err := compilePrint(g, evmodel.NewNamedDomains())
	require.NoError(t, err)
	assert.NotNil(t, p)
}
