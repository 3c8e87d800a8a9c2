// Package ecodes resolves the human-readable event type/code names used in
// key arguments ("key:a", "btn:left", "abs:x") to their numeric evdev
// values, and back. The original daemon builds this table at runtime from
// libevdev's name tables; since this module avoids cgo, the table here is
// a static transcription of linux/input-event-codes.h covering every code
// a typical remapping script touches. Unrecognised names are rejected by
// the caller as an ArgumentError, exactly as an unlisted libevdev name
// would be.
package ecodes

import (
	"strings"

	"github.com/evsieve/evsieve-go/internal/evmodel"
)

// eventTypes maps the lowercase type name used in key arguments to its
// EventType. "btn" is a synonym for "key", matching the original's special
// case for BTN_* codes.
var eventTypes = map[string]evmodel.EventType{
	"syn": evmodel.EvSyn,
	"key": evmodel.EvKey,
	"btn": evmodel.EvKey,
	"rel": evmodel.EvRel,
	"abs": evmodel.EvAbs,
	"rep": evmodel.EvRep,
}

// EventType resolves a type name to its numeric EventType.
func EventType(name string) (evmodel.EventType, bool) {
	t, ok := eventTypes[strings.ToLower(name)]
	return t, ok
}

// keyCodes holds the EV_KEY/BTN_* name table, lowercase without the KEY_/
// BTN_ prefix, as linux/input-event-codes.h defines them.
var keyCodes = map[string]uint16{
	"esc": 1, "1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9, "9": 10, "0": 11,
	"minus": 12, "equal": 13, "backspace": 14, "tab": 15, "q": 16, "w": 17, "e": 18, "r": 19,
	"t": 20, "y": 21, "u": 22, "i": 23, "o": 24, "p": 25, "leftbrace": 26, "rightbrace": 27,
	"enter": 28, "leftctrl": 29, "a": 30, "s": 31, "d": 32, "f": 33, "g": 34, "h": 35, "j": 36,
	"k": 37, "l": 38, "semicolon": 39, "apostrophe": 40, "grave": 41, "leftshift": 42,
	"backslash": 43, "z": 44, "x": 45, "c": 46, "v": 47, "b": 48, "n": 49, "m": 50, "comma": 51,
	"dot": 52, "slash": 53, "rightshift": 54, "kpasterisk": 55, "leftalt": 56, "space": 57,
	"capslock": 58, "f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64, "f7": 65,
	"f8": 66, "f9": 67, "f10": 68, "numlock": 69, "scrolllock": 70,
	"kp7": 71, "kp8": 72, "kp9": 73, "kpminus": 74, "kp4": 75, "kp5": 76, "kp6": 77,
	"kpplus": 78, "kp1": 79, "kp2": 80, "kp3": 81, "kp0": 82, "kpdot": 83,
	"f11": 87, "f12": 88, "kpenter": 96, "rightctrl": 97, "kpslash": 98, "sysrq": 99,
	"rightalt": 100, "home": 102, "up": 103, "pageup": 104, "left": 105, "right": 106,
	"end": 107, "down": 108, "pagedown": 109, "insert": 110, "delete": 111,
	"mute": 113, "volumedown": 114, "volumeup": 115, "power": 116,
	"kpequal": 117, "pause": 119, "leftmeta": 125, "rightmeta": 126, "compose": 127,
}

// btnCodes holds the BTN_* name table (mouse, joystick and other button
// families); EventCode falls back to it for key: names keyCodes lacks.
var btnCodes = map[string]uint16{
	"left": 0x110, "right": 0x111, "middle": 0x112, "side": 0x113, "extra": 0x114,
	"forward": 0x115, "back": 0x116, "task": 0x117,
	"trigger": 0x120, "thumb": 0x121, "thumb2": 0x122, "top": 0x123, "top2": 0x124,
	"pinkie": 0x125, "base": 0x126,
	"south": 0x130, "east": 0x131, "north": 0x133, "west": 0x134,
	"tl": 0x136, "tr": 0x137, "tl2": 0x138, "tr2": 0x139, "select": 0x13a,
	"start": 0x13b, "mode": 0x13c, "thumbl": 0x13d, "thumbr": 0x13e,
	"gear_down": 0x150, "gear_up": 0x151,
	"dpad_up": 0x220, "dpad_down": 0x221, "dpad_left": 0x222, "dpad_right": 0x223,
}

var relCodes = map[string]uint16{
	"x": 0x00, "y": 0x01, "z": 0x02, "rx": 0x03, "ry": 0x04, "rz": 0x05,
	"hwheel": 0x06, "dial": 0x07, "wheel": 0x08, "misc": 0x09,
	"wheel_hi_res": 0x0b, "hwheel_hi_res": 0x0c,
}

var absCodes = map[string]uint16{
	"x": 0x00, "y": 0x01, "z": 0x02, "rx": 0x03, "ry": 0x04, "rz": 0x05,
	"throttle": 0x06, "rudder": 0x07, "wheel": 0x08, "gas": 0x09, "brake": 0x0a,
	"hat0x": 0x10, "hat0y": 0x11, "hat1x": 0x12, "hat1y": 0x13, "hat2x": 0x14,
	"hat2y": 0x15, "hat3x": 0x16, "hat3y": 0x17, "pressure": 0x18, "distance": 0x19,
	"tilt_x": 0x1a, "tilt_y": 0x1b, "tool_width": 0x1c, "volume": 0x20, "misc": 0x28,
	"mt_slot": 0x2f, "mt_touch_major": 0x30, "mt_touch_minor": 0x31,
	"mt_position_x": 0x35, "mt_position_y": 0x36, "mt_tracking_id": 0x39,
}

var synCodes = map[string]uint16{
	"report": 0, "config": 1, "mt_report": 2, "dropped": 3,
}

// EventCode resolves a (type name, code name) pair to an EventCode.
func EventCode(typeName, codeName string) (evmodel.EventCode, bool) {
	t, ok := eventTypes[strings.ToLower(typeName)]
	if !ok {
		return evmodel.EventCode{}, false
	}
	name := strings.ToLower(codeName)
	var table map[string]uint16
	switch t {
	case evmodel.EvKey:
		if strings.ToLower(typeName) == "btn" {
			table = btnCodes
		} else {
			table = keyCodes
		}
	case evmodel.EvRel:
		table = relCodes
	case evmodel.EvAbs:
		table = absCodes
	case evmodel.EvSyn:
		table = synCodes
	default:
		return evmodel.EventCode{}, false
	}
	code, ok := table[name]
	if !ok && t == evmodel.EvKey {
		// key: and btn: share one numeric space; fall back to the other table.
		if strings.ToLower(typeName) == "key" {
			code, ok = btnCodes[name]
		} else {
			code, ok = keyCodes[name]
		}
	}
	if !ok {
		return evmodel.EventCode{}, false
	}
	return evmodel.NewEventCode(t, code), true
}

// AllEventTypes returns every event type this table knows a code family
// for, used to probe a device's EVIOCGBIT(0, ...) type bitmask.
func AllEventTypes() []evmodel.EventType {
	return []evmodel.EventType{evmodel.EvSyn, evmodel.EvKey, evmodel.EvRel, evmodel.EvAbs, evmodel.EvRep}
}

// CodesForType returns every numeric code this table lists under evType,
// used to probe a device's per-type EVIOCGBIT code bitmask. For EvKey this
// includes both the KEY_* and BTN_* code spaces, since both share one
// bitmask on the device.
func CodesForType(evType evmodel.EventType) []uint16 {
	switch evType {
	case evmodel.EvKey:
		codes := make([]uint16, 0, len(keyCodes)+len(btnCodes))
		for _, c := range keyCodes {
			codes = append(codes, c)
		}
		for _, c := range btnCodes {
			codes = append(codes, c)
		}
		return codes
	case evmodel.EvRel:
		return codeValues(relCodes)
	case evmodel.EvAbs:
		return codeValues(absCodes)
	case evmodel.EvSyn:
		return codeValues(synCodes)
	default:
		return nil
	}
}

func codeValues(table map[string]uint16) []uint16 {
	codes := make([]uint16, 0, len(table))
	for _, c := range table {
		codes = append(codes, c)
	}
	return codes
}

// IsAbsMT reports whether an ABS code belongs to the ABS_MT_* family, the
// codes the kernel's multitouch protocol uses that most pipelines should
// leave alone.
func IsAbsMT(code evmodel.EventCode) bool {
	if code.Type != evmodel.EvAbs {
		return false
	}
	return code.Code >= 0x2f && code.Code <= 0x3f
}

var eventNames = buildEventNames()

func buildEventNames() map[evmodel.EventCode]string {
	names := make(map[evmodel.EventCode]string)
	add := func(typeName string, table map[string]uint16, evType evmodel.EventType) {
		for name, code := range table {
			ec := evmodel.NewEventCode(evType, code)
			if _, exists := names[ec]; !exists {
				names[ec] = typeName + ":" + name
			}
		}
	}
	add("key", keyCodes, evmodel.EvKey)
	add("btn", btnCodes, evmodel.EvKey)
	add("rel", relCodes, evmodel.EvRel)
	add("abs", absCodes, evmodel.EvAbs)
	add("syn", synCodes, evmodel.EvSyn)
	return names
}

// EventName renders an EventCode back to its "type:name" form for logging
// and --print output, falling back to the bare numeric pair if the code
// isn't in the static table.
func EventName(code evmodel.EventCode) string {
	if name, ok := eventNames[code]; ok {
		return name
	}
	return code.String()
}
