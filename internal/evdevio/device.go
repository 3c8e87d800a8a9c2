// Package evdevio binds the pipeline core's input side to Linux evdev
// character devices: opening them, reading normal/sync event frames,
// grabbing/ungrabbing, and querying supported types, codes, abs-info and
// repeat-info.
package evdevio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/ecodes"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
)

// GrabMode selects when a Device acquires exclusive access to its
// underlying character device.
type GrabMode int

const (
	GrabNone GrabMode = iota
	GrabAuto
	GrabForce
)

type absInfo struct {
	Value, Minimum, Maximum, Fuzz, Flat, Resolution int32
}

const sizeofAbsInfo = uintptr(unsafe.Sizeof(absInfo{}))

type rawInputEvent struct {
	Sec, Usec  int64
	Type, Code uint16
	Value      int32
}

const sizeofInputEvent = 24 // 2*int64 + 2*uint16 + int32, matching the kernel's struct input_event on 64-bit time_t

// Device is one open evdev character device.
type Device struct {
	file     *os.File
	path     string
	domain   evmodel.Domain
	name     string
	caps     *capset.Capabilities
	state    map[evmodel.Channel]int32
	grabMode GrabMode
	grabbed  bool
}

// Open opens the evdev character device at path, queries its
// capabilities and current per-channel state, and grabs it immediately
// if grabMode is GrabForce.
func Open(path string, domain evmodel.Domain, grabMode GrabMode) (*Device, error) {
	file, err := os.OpenFile(path, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, evserror.FromSystemErr(err).WithContext(fmt.Sprintf("opening %s", path))
	}

	caps, err := queryCapabilities(file.Fd())
	if err != nil {
		file.Close()
		return nil, err
	}

	dev := &Device{
		file:     file,
		path:     path,
		domain:   domain,
		name:     queryName(file.Fd()),
		caps:     caps,
		state:    queryState(file.Fd(), caps, domain),
		grabMode: grabMode,
	}

	if err := dev.grabIfDesired(); err != nil {
		file.Close()
		return nil, err
	}
	return dev, nil
}

func (d *Device) Domain() evmodel.Domain { return d.domain }
func (d *Device) Path() string           { return d.path }
func (d *Device) Fd() uintptr            { return d.file.Fd() }
func (d *Device) Name() string           { return d.name }
func (d *Device) GrabMode() GrabMode      { return d.grabMode }

// CapabilitySet returns the capabilities queried when this device was
// opened, as a single set rather than Capabilities' flattened list, for
// building a persist.Blueprint to compare against on reconnection.
func (d *Device) CapabilitySet() *capset.Capabilities {
	return d.caps
}

// PressedKeyReleaseEvents returns a synthetic key-up event for every key
// this device currently reports as held, clearing its own state for each
// one, so a caller can release everything before a device disconnects
// without leaving a key stuck down on an output device.
func (d *Device) PressedKeyReleaseEvents() []evmodel.Event {
	var events []evmodel.Event
	for channel, value := range d.state {
		if !channel.Code.Type.IsKey() || value == 0 {
			continue
		}
		events = append(events, evmodel.Event{
			Code:          channel.Code,
			Value:         0,
			PreviousValue: value,
			Domain:        d.domain,
			Namespace:     evmodel.NamespaceInput,
		})
		d.state[channel] = 0
	}
	return events
}

// Capabilities returns the capabilities queried when this device was
// opened, as a flat list.
func (d *Device) Capabilities() []capset.Capability {
	caps := make([]capset.Capability, 0, len(d.caps.ByCode))
	for _, c := range d.caps.ByCode {
		caps = append(caps, c)
	}
	return caps
}

// Poll reads every currently-available event from the device, tagging
// each with this device's domain and the previous value of its channel.
func (d *Device) Poll() ([]evmodel.Event, error) {
	var result []evmodel.Event

	buf := make([]byte, sizeofInputEvent)
	for {
		n, err := unix.Read(int(d.file.Fd()), buf)
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			break
		}
		if err != nil {
			return result, evserror.FromSystemErr(err).WithContext(fmt.Sprintf("reading %s", d.path))
		}
		if n == 0 {
			break
		}
		if n < sizeofInputEvent {
			continue
		}

		var raw rawInputEvent
		if err := binary.Read(bytes.NewReader(buf[:n]), binary.LittleEndian, &raw); err != nil {
			return result, evserror.FromSystemErr(err).WithContext("decoding input_event")
		}

		code := evmodel.NewEventCode(evmodel.EventType(raw.Type), raw.Code)
		channel := evmodel.Channel{Code: code, Domain: d.domain}
		previous := d.state[channel]
		d.state[channel] = raw.Value

		result = append(result, evmodel.Event{
			Code:          code,
			Value:         raw.Value,
			PreviousValue: previous,
			Domain:        d.domain,
			Namespace:     evmodel.NamespaceInput,
		})
	}

	if err := d.grabIfDesired(); err != nil {
		return result, err
	}
	return result, nil
}

func (d *Device) grabIfDesired() error {
	if d.grabbed {
		return nil
	}
	switch d.grabMode {
	case GrabNone:
		return nil
	case GrabForce:
		return d.grab()
	case GrabAuto:
		for channel, value := range d.state {
			if channel.Code.Type.IsKey() && value > 0 {
				return nil
			}
		}
		return d.grab()
	default:
		return nil
	}
}

func (d *Device) grab() error {
	if err := ioctlInt(d.file.Fd(), evIOCGRAB(), 1); err != nil {
		return evserror.FromSystemErr(err).WithContext(fmt.Sprintf("grabbing %s", d.path))
	}
	d.grabbed = true
	return nil
}

func (d *Device) ungrab() error {
	if err := ioctlInt(d.file.Fd(), evIOCGRAB(), 0); err != nil {
		return evserror.FromSystemErr(err).WithContext(fmt.Sprintf("ungrabbing %s", d.path))
	}
	d.grabbed = false
	return nil
}

// Close ungrabs the device if grabbed and closes its file descriptor.
func (d *Device) Close() error {
	if d.grabbed {
		// Nothing useful can be done if this fails; the fd is closing
		// regardless.
		_ = d.ungrab()
	}
	return d.file.Close()
}

func queryCapabilities(fd uintptr) (*capset.Capabilities, error) {
	caps := capset.NewCapabilities()

	for _, evType := range ecodes.AllEventTypes() {
		if !typeBitSet(fd, evType) {
			continue
		}
		for _, code := range ecodes.CodesForType(evType) {
			ec := evmodel.NewEventCode(evType, code)
			if !codeBitSet(fd, ec) {
				continue
			}
			cap_ := capset.Capability{Code: ec, ValueInterval: capset.Unbounded}
			if evType.IsAbs() {
				info, err := queryAbsInfo(fd, code)
				if err == nil {
					cap_.ValueInterval = capset.NewInterval(info.Minimum, info.Maximum)
					cap_.Abs = &capset.AbsMeta{
						ValueInterval: cap_.ValueInterval,
						Fuzz:          info.Fuzz,
						Flat:          info.Flat,
						Resolution:    info.Resolution,
					}
				}
			}
			if evType.IsKey() {
				cap_.ValueInterval = capset.NewInterval(0, 2)
			}
			caps.Add(cap_)
		}
	}

	if delay, period, err := queryRepeatInfo(fd); err == nil {
		caps.Repeat = &capset.RepeatInfo{Delay: delay, Period: period}
	}

	return caps, nil
}

func queryState(fd uintptr, caps *capset.Capabilities, domain evmodel.Domain) map[evmodel.Channel]int32 {
	state := make(map[evmodel.Channel]int32, len(caps.ByCode))
	for code, cap_ := range caps.ByCode {
		channel := evmodel.Channel{Code: code, Domain: domain}
		if ecodes.IsAbsMT(code) {
			// libevdev documents EVIOCGABS's value field as undefined
			// for ABS_MT_* codes; use the midpoint as a placeholder.
			mid, ok := midpoint(cap_.ValueInterval)
			if ok {
				state[channel] = mid
			}
			continue
		}
		value, err := queryEventValue(fd, code)
		if err == nil {
			state[channel] = value
		}
	}
	return state
}

func midpoint(i capset.Interval) (int32, bool) {
	if i.Min == capset.MinValue || i.Max == capset.MaxValue {
		return 0, false
	}
	return i.Min + (i.Max-i.Min)/2, true
}

func typeBitSet(fd uintptr, evType evmodel.EventType) bool {
	buf := make([]byte, 4)
	if err := ioctlBuf(fd, evIOCGBIT(0, uintptr(len(buf))), buf); err != nil {
		return false
	}
	return bitSet(buf, uint(evType))
}

func codeBitSet(fd uintptr, code evmodel.EventCode) bool {
	buf := make([]byte, 128)
	if err := ioctlBuf(fd, evIOCGBIT(uintptr(code.Type), uintptr(len(buf))), buf); err != nil {
		return false
	}
	return bitSet(buf, uint(code.Code))
}

func bitSet(buf []byte, bit uint) bool {
	idx := bit / 8
	if int(idx) >= len(buf) {
		return false
	}
	return buf[idx]&(1<<(bit%8)) != 0
}

func queryAbsInfo(fd uintptr, code uint16) (absInfo, error) {
	var info absInfo
	buf := make([]byte, sizeofAbsInfo)
	if err := ioctlBuf(fd, evIOCGABS(uintptr(code)), buf); err != nil {
		return info, err
	}
	_ = binary.Read(bytes.NewReader(buf), binary.LittleEndian, &info)
	return info, nil
}

func queryRepeatInfo(fd uintptr) (int32, int32, error) {
	buf := make([]byte, 8)
	if err := ioctlBuf(fd, evIOCGREP(), buf); err != nil {
		return 0, 0, err
	}
	delay := int32(binary.LittleEndian.Uint32(buf[0:4]))
	period := int32(binary.LittleEndian.Uint32(buf[4:8]))
	return delay, period, nil
}

func queryName(fd uintptr) string {
	buf := make([]byte, 256)
	if err := ioctlBuf(fd, evIOCGNAME(uintptr(len(buf))), buf); err != nil {
		return ""
	}
	n := bytes.IndexByte(buf, 0)
	if n < 0 {
		n = len(buf)
	}
	return string(buf[:n])
}

func queryEventValue(fd uintptr, code evmodel.EventCode) (int32, error) {
	if code.Type.IsAbs() {
		info, err := queryAbsInfo(fd, code.Code)
		if err != nil {
			return 0, err
		}
		return info.Value, nil
	}
	// EVIOCGKEY/EVIOCGSW would be needed for a fully accurate initial
	// value of every type; keys and switches default to released (0)
	// until the first event updates them, matching most callers' needs.
	return 0, nil
}

func ioctlBuf(fd uintptr, request uintptr, buf []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, request, uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlInt(fd uintptr, request uintptr, value int) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, request, uintptr(value))
	if errno != 0 {
		return errno
	}
	return nil
}
