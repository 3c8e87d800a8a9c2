// Command evsieve reads events from one or more input devices, runs them
// through a configured transformer chain, and writes the result to one or
// more virtual output devices.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/cliarg"
	"github.com/evsieve/evsieve-go/internal/config"
	"github.com/evsieve/evsieve-go/internal/controlfifo"
	"github.com/evsieve/evsieve-go/internal/evdevio"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
	"github.com/evsieve/evsieve-go/internal/iomux"
	"github.com/evsieve/evsieve-go/internal/loopback"
	"github.com/evsieve/evsieve-go/internal/outroute"
	"github.com/evsieve/evsieve-go/internal/persist"
	"github.com/evsieve/evsieve-go/internal/stream"
	"github.com/evsieve/evsieve-go/internal/subprocess"
)

func main() {
	os.Exit(run())
}

func run() int {
	err := runDaemon(os.Args[1:])
	subprocess.TerminateAll()
	if err == nil {
		return 0
	}
	if _, ok := err.(*evserror.InterruptError); ok {
		return 0
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}

// fileKind distinguishes the things a pollable file descriptor belongs to,
// since the host keeps its own fd-to-owner table rather than the fd itself
// carrying a tag.
type fileKind int

const (
	kindInput fileKind = iota
	kindControlFifo
	kindSignals
	kindPersist
)

// pollable is one entry of the host's fd table.
type pollable struct {
	kind  fileKind
	input *evdevio.Device
	fifo  *controlfifo.Fifo
}

// daemon holds every piece of runtime state the main loop touches.
type daemon struct {
	pipeline *config.Pipeline
	chain    *stream.Chain
	lb       *loopback.Loopback
	epoll    *iomux.Epoll
	signals  *iomux.Signals
	output   *outroute.OutputSystem
	persist  *persist.Daemon

	byFd map[int]*pollable
}

func runDaemon(args []string) error {
	groups, err := cliarg.Parse(args)
	if err != nil {
		return err
	}
	pipeline, err := cliarg.Compile(groups)
	if err != nil {
		return err
	}

	d := &daemon{
		pipeline: pipeline,
		chain:    &stream.Chain{Stages: pipeline.Stages},
		lb:       loopback.New(),
		byFd:     make(map[int]*pollable),
	}

	epoll, err := iomux.New()
	if err != nil {
		return err
	}
	d.epoll = epoll
	defer d.epoll.Close()

	signals, err := iomux.NewSignals()
	if err != nil {
		return err
	}
	d.signals = signals
	defer d.signals.Close()
	if err := d.register(d.signals.Fd(), &pollable{kind: kindSignals}); err != nil {
		return err
	}

	inputCaps := capset.NewCapabilities()
	for _, pre := range pipeline.InputDevices {
		device, err := evdevio.Open(pre.Path, pre.Domain, pre.GrabMode)
		if err != nil {
			return err
		}
		for _, cap_ := range device.Capabilities() {
			inputCaps.Add(cap_)
		}
		if err := d.register(int(device.Fd()), &pollable{kind: kindInput, input: device}); err != nil {
			return err
		}
	}

	outputCaps := d.chain.RunCaps(capabilityList(inputCaps))
	aggregated := capset.NewCapabilities()
	for _, cap_ := range outputCaps {
		aggregated.Add(cap_)
	}
	output, err := outroute.Create(pipeline.OutputDevices, aggregated)
	if err != nil {
		return err
	}
	d.output = output
	defer d.output.Close()

	for _, path := range pipeline.ControlFifoPaths {
		fifo, err := controlfifo.Create(path)
		if err != nil {
			return err
		}
		if err := d.register(fifo.Fd(), &pollable{kind: kindControlFifo, fifo: fifo}); err != nil {
			return err
		}
	}

	if d.hasNoActivity() {
		fmt.Println("Warning: no input devices available. Evsieve will exit now.")
		return nil
	}

	return d.enterMainLoop()
}

func capabilityList(caps *capset.Capabilities) []capset.Capability {
	list := make([]capset.Capability, 0, len(caps.ByCode))
	for _, cap_ := range caps.ByCode {
		list = append(list, cap_)
	}
	return list
}

func (d *daemon) register(fd int, p *pollable) error {
	if err := d.epoll.Add(fd); err != nil {
		return err
	}
	d.byFd[fd] = p
	return nil
}

func (d *daemon) unregister(fd int) {
	_ = d.epoll.Remove(fd)
	delete(d.byFd, fd)
}

// hasNoActivity reports whether the daemon has nothing left that could
// possibly generate an event, meaning it should exit.
func (d *daemon) hasNoActivity() bool {
	for _, p := range d.byFd {
		if p.kind == kindInput || p.kind == kindPersist {
			return false
		}
	}
	return true
}

// action tells enterMainLoop what to do after handling one ready file.
type action int

const (
	actionContinue action = iota
	actionExit
)

func (d *daemon) enterMainLoop() error {
	for {
		timeout := -1
		switch delay := d.lb.TimeUntilNextWakeup(); delay.Kind {
		case loopback.DelayNow:
			d.runWakeups()
			continue
		case loopback.DelayNever:
			timeout = -1
		case loopback.DelayWait:
			timeout = int(delay.Milliseconds)
		}

		readiness, err := d.epoll.Wait(timeout)
		if err != nil {
			return err
		}

		for _, fd := range readiness.Ready {
			if act := d.handleReady(fd); act == actionExit {
				return nil
			}
		}
		for _, fd := range readiness.Hup {
			if act := d.handleBroken(fd); act == actionExit {
				return nil
			}
		}
		for _, fd := range readiness.Err {
			if act := d.handleBroken(fd); act == actionExit {
				return nil
			}
		}

		if d.hasNoActivity() {
			fmt.Println("No devices to poll events from. Evsieve will exit now.")
			return nil
		}
	}
}

func (d *daemon) runWakeups() {
	tokens := d.lb.Poll()
	events := d.chain.RunWakeups(tokens, d.pipeline.State, d.lb)
	d.output.RouteEvents(events)
	d.output.Synchronize()
}

func (d *daemon) handleReady(fd int) action {
	p, ok := d.byFd[fd]
	if !ok {
		logrus.Error("an epoll reported ready on a file descriptor that is not registered; this is a bug")
		return actionContinue
	}

	switch p.kind {
	case kindInput:
		events, err := p.input.Poll()
		if err != nil {
			logrus.Warn(evserror.FromSystemErr(err).WithContext("polling " + p.input.Path()))
			return d.handleBroken(fd)
		}
		var out []evmodel.Event
		for _, event := range events {
			out = append(out, d.chain.RunEvent(event, d.pipeline.State, d.lb)...)
		}
		d.output.RouteEvents(out)
		d.output.Synchronize()
		return actionContinue

	case kindSignals:
		// Signals only ever forwards the fixed exit-signal set, so
		// receiving anything here means it's time to shut down.
		if len(d.signals.Drain()) > 0 {
			return actionExit
		}
		return actionContinue

	case kindControlFifo:
		commands, err := p.fifo.Poll()
		if err != nil {
			logrus.Warn(err)
			return d.handleBroken(fd)
		}
		for _, cmd := range commands {
			effects, err := cmd.Toggle.Implement(d.pipeline.State, d.pipeline.ToggleIndexByID)
			if err != nil {
				logrus.Warn(err)
				continue
			}
			for _, effect := range effects {
				effect(d.pipeline.State)
			}
		}
		return actionContinue

	case kindPersist:
		var buf [8]byte
		_, _ = unix.Read(fd, buf[:])
		for {
			select {
			case report, ok := <-d.persist.Reports():
				if !ok {
					return actionContinue
				}
				if act := d.handlePersistReport(report); act == actionExit {
					return actionExit
				}
			default:
				return actionContinue
			}
		}

	default:
		return actionContinue
	}
}

func (d *daemon) handleBroken(fd int) action {
	p, ok := d.byFd[fd]
	if !ok {
		logrus.Error("epoll reported a file as broken that is not registered with it; this is a bug")
		return actionContinue
	}
	d.unregister(fd)

	switch p.kind {
	case kindInput:
		fmt.Printf("The device %s has been disconnected.\n", p.input.Path())

		releases := p.input.PressedKeyReleaseEvents()
		var out []evmodel.Event
		for _, event := range releases {
			out = append(out, d.chain.RunEvent(event, d.pipeline.State, d.lb)...)
		}
		d.output.RouteEvents(out)
		d.output.Synchronize()

		persistMode := d.persistModeForDomain(p.input.Domain())
		_ = p.input.Close()

		switch persistMode {
		case config.PersistNone:
			// Drop the device for good.
		case config.PersistExit:
			return actionExit
		case config.PersistReopen, config.PersistFull:
			if err := d.ensurePersistDaemon(); err != nil {
				logrus.Error(evserror.FromSystemErr(err).WithContext("starting the persistence subsystem"))
				break
			}
			d.persist.AddBlueprint(persist.Blueprint{
				Path:         p.input.Path(),
				Domain:       p.input.Domain(),
				GrabMode:     p.input.GrabMode(),
				Name:         p.input.Name(),
				Capabilities: p.input.CapabilitySet(),
			})
		}

	case kindControlFifo:
		logrus.Errorf("the control fifo %s is no longer available", p.fifo.Path())
		_ = p.fifo.Close()

	case kindSignals:
		logrus.Error("the signal file descriptor is broken; exiting")
		return actionExit

	case kindPersist:
		logrus.Error("the persistence subsystem has broken; evsieve may fail to reopen devices")
		d.persist = nil
	}

	if d.hasNoActivity() {
		fmt.Println("No devices remaining that can possibly generate events. Evsieve will exit now.")
		return actionExit
	}
	return actionContinue
}

func (d *daemon) persistModeForDomain(domain evmodel.Domain) config.PersistMode {
	for _, pre := range d.pipeline.InputDevices {
		if pre.Domain == domain {
			return pre.PersistMode
		}
	}
	return config.PersistNone
}

func (d *daemon) ensurePersistDaemon() error {
	if d.persist != nil {
		return nil
	}
	pd, err := persist.Launch()
	if err != nil {
		return err
	}
	d.persist = pd
	return d.register(pd.NotifyFd(), &pollable{kind: kindPersist})
}

func (d *daemon) handlePersistReport(report persist.Report) action {
	switch report.Kind {
	case persist.ReportShutdown:
		return actionContinue
	case persist.ReportBlueprintDropped:
		if d.hasNoActivity() {
			fmt.Println("No devices remaining that can possibly generate events. Evsieve will exit now.")
			return actionExit
		}
		return actionContinue
	case persist.ReportDeviceOpened:
		device := report.Device
		if err := d.register(int(device.Fd()), &pollable{kind: kindInput, input: device}); err != nil {
			logrus.Warn(evserror.FromSystemErr(err).WithContext("adding a reopened device to the epoll"))
			return actionContinue
		}
		fmt.Printf("The device %s has been reconnected.\n", device.Path())
		return actionContinue
	default:
		return actionContinue
	}
}

