// Package outroute owns the virtual output devices a running pipeline
// writes to: one uinput device per configured output domain, each
// advertising the capability set the chain can actually emit into it.
package outroute

import (
	"github.com/sirupsen/logrus"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/config"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
	"github.com/evsieve/evsieve-go/internal/uinputio"
)

// OutputSystem holds every virtual output device the pipeline writes to,
// keyed by the domain it was configured for.
type OutputSystem struct {
	devices map[evmodel.Domain]*uinputio.Device
}

// Create opens one uinput device per pre-device, advertising caps
// adjusted per device by its repeat-mode policy.
//
// capset.Capability carries no domain tag in this port, so every output
// device is given the same chain-wide capability set rather than one
// filtered down to what actually reaches its particular domain; an output
// device may therefore advertise a few more codes than it strictly needs,
// which is harmless to whatever reads it.
func Create(preDevices []config.PreOutputDevice, caps *capset.Capabilities) (*OutputSystem, error) {
	devices := make(map[evmodel.Domain]*uinputio.Device)

	cleanup := func() {
		for _, d := range devices {
			_ = d.Close()
		}
	}

	for _, pre := range preDevices {
		if _, exists := devices[pre.Domain]; exists {
			cleanup()
			return nil, evserror.NewInternal("multiple output devices with the same domain have been created")
		}

		deviceCaps := capabilitiesForMode(caps, pre.RepeatMode)
		if len(deviceCaps.ByCode) == 0 {
			logrus.Warn("an output device has been specified to which no events can possibly be routed")
		}

		device, err := uinputio.Create(pre.Name, deviceCaps)
		if err != nil {
			cleanup()
			return nil, err
		}
		device.AllowRepeat(pre.RepeatMode == config.RepeatEnable)

		if pre.SymlinkPath != "" {
			if err := device.SetLink(pre.SymlinkPath); err != nil {
				_ = device.Close()
				cleanup()
				return nil, err
			}
		}

		devices[pre.Domain] = device
	}

	return &OutputSystem{devices: devices}, nil
}

// capabilitiesForMode applies a device's repeat-mode policy to a copy of
// the chain-wide capability set: Enable ensures EV_REP is present (filling
// in the kernel's own defaults if nothing more specific was computed),
// Disable omits it, and Passive keeps whatever the chain-wide set carries;
// a passive device drops value-2 events at write time instead.
func capabilitiesForMode(caps *capset.Capabilities, mode config.RepeatMode) *capset.Capabilities {
	out := caps.Clone()
	switch mode {
	case config.RepeatDisable:
		out.Repeat = nil
	case config.RepeatEnable:
		if out.Repeat == nil {
			rep := capset.KernelDefaultRepeatInfo
			out.Repeat = &rep
		}
	}
	return out
}

// RouteEvents writes every event to the output device for its domain. An
// event whose domain has no matching output device is dropped and logged:
// the compiler is responsible for ensuring this never happens in practice.
func (s *OutputSystem) RouteEvents(events []evmodel.Event) {
	for _, event := range events {
		device, ok := s.devices[event.Domain]
		if !ok {
			logrus.Errorf("an event with unknown domain has been routed to output; event dropped, this is a bug")
			continue
		}
		device.WriteEvent(event)
	}
}

// Synchronize emits a trailing SYN on every output device that has
// written at least one event since its last SYN, since maps and merges
// may generate events without following up with one themselves.
func (s *OutputSystem) Synchronize() {
	for _, device := range s.devices {
		device.SynIfRequired()
	}
}

// Close destroys every output device and removes any symlinks it created.
func (s *OutputSystem) Close() {
	for _, device := range s.devices {
		if err := device.Close(); err != nil {
			logrus.Warn(err)
		}
	}
}
