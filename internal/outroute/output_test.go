package outroute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/config"
	"github.com/evsieve/evsieve-go/internal/evmodel"
)

func TestCapabilitiesForModeDisableStripsRepeat(t *testing.T) {
	caps := capset.NewCapabilities()
	caps.Repeat = &capset.RepeatInfo{Delay: 100, Period: 20}

	out := capabilitiesForMode(caps, config.RepeatDisable)
	assert.Nil(t, out.Repeat)
	// the source set is untouched
	assert.NotNil(t, caps.Repeat)
}

func TestCapabilitiesForModePassiveRetainsRepeat(t *testing.T) {
	caps := capset.NewCapabilities()
	caps.Repeat = &capset.RepeatInfo{Delay: 100, Period: 20}

	out := capabilitiesForMode(caps, config.RepeatPassive)
	assert.NotNil(t, out.Repeat)
}

func TestCapabilitiesForModeEnableFillsKernelDefault(t *testing.T) {
	caps := capset.NewCapabilities()
	caps.Add(capset.Capability{Code: evmodel.NewEventCode(evmodel.EvKey, 30), ValueInterval: capset.NewInterval(0, 1)})

	out := capabilitiesForMode(caps, config.RepeatEnable)
	require.NotNil(t, out.Repeat)
	assert.Equal(t, capset.KernelDefaultRepeatInfo, *out.Repeat)
}

func TestCapabilitiesForModeEnablePreservesExplicitRepeat(t *testing.T) {
	caps := capset.NewCapabilities()
	caps.Repeat = &capset.RepeatInfo{Delay: 42, Period: 7}

	out := capabilitiesForMode(caps, config.RepeatEnable)
	require.NotNil(t, out.Repeat)
	assert.EqualValues(t, 42, out.Repeat.Delay)
}
