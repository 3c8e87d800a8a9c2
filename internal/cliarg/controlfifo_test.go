package cliarg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileControlFifoReturnsGivenPaths(t *testing.T) {
	g, err := ParseGroup([]string{"--control-fifo", "/run/evsieve.fifo"}, nil, nil, true, false)
	require.NoError(t, err)

	paths, err := compileControlFifo(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"/run/evsieve.fifo"}, paths)
}

func TestCompileControlFifoRequiresAPath(t *testing.T) {
	g, err := ParseGroup([]string{"--control-fifo"}, nil, nil, true, false)
	require.NoError(t, err)

	_, err = compileControlFifo(g)
	assert.Error(t, err)
}
