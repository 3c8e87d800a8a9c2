// Package uinputio creates and writes to Linux virtual input devices
// through /dev/uinput: advertising a capability set, writing individual
// events, and destroying the device node on shutdown.
package uinputio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/ecodes"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
)

const uinputPath = "/dev/uinput"

const (
	uinputMaxNameSize = 80
	absCount          = 64
)

type inputID struct {
	Bustype, Vendor, Product, Version uint16
}

// uinputUserDev mirrors struct uinput_user_dev from linux/uinput.h, the
// legacy creation protocol every uinput-capable kernel still accepts.
type uinputUserDev struct {
	Name         [uinputMaxNameSize]byte
	ID           inputID
	FFEffectsMax uint32
	AbsMax       [absCount]int32
	AbsMin       [absCount]int32
	AbsFuzz      [absCount]int32
	AbsFlat      [absCount]int32
}

// Device is one created /dev/uinput virtual device.
type Device struct {
	file *os.File

	devnode string
	symlink string

	shouldSyn    bool
	allowsRepeat bool
}

// Create opens /dev/uinput and creates a virtual device advertising name
// and caps. EV_REP's delay/period values cannot be configured through
// uinput; the kernel applies its own defaults regardless of what caps.Repeat
// says, a known uinput limitation the original daemon also leaves unfixed.
func Create(name string, caps *capset.Capabilities) (*Device, error) {
	file, err := os.OpenFile(uinputPath, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, evserror.FromSystemErr(err).WithContext(fmt.Sprintf("opening %s", uinputPath))
	}

	types := make(map[evmodel.EventType]bool)
	for code := range caps.ByCode {
		types[code.Type] = true
	}
	for evType := range types {
		if bit, ok := evbitRequest(evType); ok {
			if err := ioctlInt(file.Fd(), uiSetEvbit(), int(bit)); err != nil {
				file.Close()
				return nil, evserror.FromSystemErr(err).WithContext("enabling event type on uinput device")
			}
		}
	}

	var dev uinputUserDev
	copy(dev.Name[:], name)
	if len(name) >= uinputMaxNameSize {
		dev.Name[uinputMaxNameSize-1] = 0
	}

	for code, cap_ := range caps.ByCode {
		if code.Type == evmodel.EvRep {
			// Handled above via UI_SET_EVBIT only; no per-code uinput ioctl exists for EV_REP.
			continue
		}
		request, ok := setbitRequest(code.Type)
		if !ok {
			continue
		}
		if err := ioctlInt(file.Fd(), request, int(code.Code)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to enable event %s on uinput device.\n", ecodes.EventName(code))
			continue
		}
		if code.Type == evmodel.EvAbs {
			idx := code.Code
			if int(idx) < absCount && cap_.Abs != nil {
				dev.AbsMin[idx] = cap_.Abs.ValueInterval.Min
				dev.AbsMax[idx] = cap_.Abs.ValueInterval.Max
				dev.AbsFuzz[idx] = cap_.Abs.Fuzz
				dev.AbsFlat[idx] = cap_.Abs.Flat
			}
		}
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &dev); err != nil {
		file.Close()
		return nil, evserror.FromSystemErr(err).WithContext("encoding uinput_user_dev")
	}
	if _, err := file.Write(buf.Bytes()); err != nil {
		file.Close()
		return nil, evserror.FromSystemErr(err).WithContext("writing uinput_user_dev")
	}

	if err := ioctlNoArg(file.Fd(), uiDevCreate()); err != nil {
		file.Close()
		return nil, evserror.FromSystemErr(err).WithContext("creating uinput device: does evsieve have enough permissions?")
	}

	devnode, err := resolveDevnode(file.Fd())
	if err != nil {
		// A created-but-unlocatable device node is still usable for writes;
		// only --output's optional symlink creation needs the path.
		devnode = ""
	}

	return &Device{file: file, devnode: devnode, allowsRepeat: true}, nil
}

func evbitRequest(evType evmodel.EventType) (uintptr, bool) {
	switch evType {
	case evmodel.EvSyn, evmodel.EvKey, evmodel.EvRel, evmodel.EvAbs, evmodel.EvRep:
		return uintptr(evType), true
	default:
		return 0, false
	}
}

func setbitRequest(evType evmodel.EventType) (uintptr, bool) {
	switch evType {
	case evmodel.EvKey:
		return uiSetKeybit(), true
	case evmodel.EvRel:
		return uiSetRelbit(), true
	case evmodel.EvAbs:
		return uiSetAbsbit(), true
	default:
		return 0, false
	}
}

// Devnode returns the /dev/input/eventN path of this device, or "" if it
// could not be determined.
func (d *Device) Devnode() string { return d.devnode }

// AllowRepeat controls whether Write drops EV_KEY autorepeat (value 2)
// events, matching --repeat=disable/passive/enable on the owning output.
func (d *Device) AllowRepeat(allow bool) { d.allowsRepeat = allow }

// WriteEvent writes a single event to the device.
func (d *Device) WriteEvent(event evmodel.Event) {
	d.write(uint16(event.Code.Type), event.Code.Code, event.Value)
}

func (d *Device) write(evType, code uint16, value int32) {
	if !d.allowsRepeat && evType == uint16(evmodel.EvKey) && value == 2 {
		return
	}
	raw := rawInputEvent{Type: evType, Code: code, Value: value}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &raw); err == nil {
		if _, err := d.file.Write(buf.Bytes()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: an error occurred while writing an event to %s.\n", d.description())
		}
	}
	d.shouldSyn = evType != uint16(evmodel.EvSyn)
}

// SynIfRequired emits a SYN_REPORT if any non-SYN event has been written
// since the last one, letting transformers omit their own SYN events.
func (d *Device) SynIfRequired() {
	if d.shouldSyn {
		d.write(uint16(evmodel.EvSyn), 0, 0)
	}
}

func (d *Device) description() string {
	if d.symlink != "" {
		return fmt.Sprintf("the output device %q", d.symlink)
	}
	return "an output device"
}

// SetLink creates a symlink at path pointing at this device's devnode,
// replacing an existing symlink at that location but refusing to overwrite
// anything else.
func (d *Device) SetLink(path string) error {
	if d.devnode == "" {
		return evserror.NewSystem("cannot create a symlink to an output device: its device node path could not be determined")
	}
	if info, err := os.Lstat(path); err == nil {
		if info.Mode()&os.ModeSymlink == 0 {
			return evserror.NewSystem("cannot create a symlink at %q: path already exists", path)
		}
		if err := os.Remove(path); err != nil {
			return evserror.FromSystemErr(err).WithContext(fmt.Sprintf("replacing existing symlink at %q", path))
		}
	}
	if err := os.Symlink(d.devnode, path); err != nil {
		return evserror.FromSystemErr(err).WithContext(fmt.Sprintf("creating symlink at %q", path))
	}
	d.symlink = path
	return nil
}

// Close destroys the uinput device and removes its symlink, if any.
func (d *Device) Close() error {
	if d.symlink != "" {
		_ = os.Remove(d.symlink)
	}
	_ = ioctlNoArg(d.file.Fd(), uiDevDestroy())
	return d.file.Close()
}

// resolveDevnode asks the kernel for this uinput instance's sysfs name and
// locates the corresponding /dev/input/eventN node underneath it.
func resolveDevnode(fd uintptr) (string, error) {
	buf := make([]byte, 64)
	if err := ioctlBuf(fd, uiGetSysname(uintptr(len(buf))), buf); err != nil {
		return "", err
	}
	sysname := strings.TrimRight(string(buf), "\x00")
	if sysname == "" {
		return "", evserror.NewSystem("empty uinput sysname")
	}

	sysdir := filepath.Join("/sys/devices/virtual/input", sysname)
	entries, err := os.ReadDir(sysdir)
	if err != nil {
		return "", evserror.FromSystemErr(err).WithContext("reading uinput sysfs directory")
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "event") {
			return filepath.Join("/dev/input", entry.Name()), nil
		}
	}
	return "", evserror.NewSystem("no event node found under uinput sysfs directory")
}

// rawInputEvent mirrors struct input_event's wire layout (see
// internal/evdevio, which reads the same shape from the other direction).
type rawInputEvent struct {
	Sec, Usec  int64
	Type, Code uint16
	Value      int32
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

func ioctlNoArg(fd uintptr, request uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, request, 0)
	if errno != 0 {
		return errno
	}
	return nil
}
