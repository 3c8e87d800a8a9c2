// Package config holds the data the CLI front-end hands the pipeline core
// once argument parsing has finished: compiled device specs, the ordered
// transformer chain, and the control FIFO path list.
package config

import (
	"github.com/evsieve/evsieve-go/internal/evdevio"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/stream"
)

// PersistMode governs what happens to an input device once it disconnects.
type PersistMode int

const (
	// PersistNone drops the device's domain from the pipeline for good.
	PersistNone PersistMode = iota
	// PersistExit shuts the whole daemon down once this device is gone.
	PersistExit
	// PersistReopen keeps retrying to reopen the same path.
	PersistReopen
	// PersistFull is handled the same way as PersistReopen: the device is
	// handed to the persistence worker for reopening. No capability cache
	// is read or written for it.
	PersistFull
)

// PreInputDevice is a compiled --input argument: everything needed to open
// a device, and how to react if it later disconnects.
type PreInputDevice struct {
	Path        string
	Domain      evmodel.Domain
	GrabMode    evdevio.GrabMode
	PersistMode PersistMode
}

// RepeatMode governs how an output device exposes EV_REP to the kernel.
type RepeatMode int

const (
	// RepeatEnable advertises EV_REP and lets autorepeat events through.
	RepeatEnable RepeatMode = iota
	// RepeatDisable omits EV_REP entirely.
	RepeatDisable
	// RepeatPassive advertises EV_REP but drops synthesized value-2 events,
	// letting the kernel of whatever reads this device generate its own.
	RepeatPassive
)

// PreOutputDevice is a compiled --output argument.
type PreOutputDevice struct {
	Domain      evmodel.Domain
	Name        string
	SymlinkPath string
	RepeatMode  RepeatMode
}

// Pipeline is the fully compiled configuration the daemon runs: the
// transformer chain, the input/output device specs, the control FIFO
// paths, and the toggle-id table needed to resolve toggle= clauses that
// arrive later over a control FIFO.
type Pipeline struct {
	Stages           []stream.Stage
	WakeupHandlers   []stream.WakeupHandler
	InputDevices     []PreInputDevice
	OutputDevices    []PreOutputDevice
	ControlFifoPaths []string
	ToggleIndexByID  map[string]stream.ToggleIndex
	// State carries every toggle slot the compiled stages' indices refer
	// to; the host must run the chain against this exact State, not a
	// freshly constructed one.
	State *stream.State
}
