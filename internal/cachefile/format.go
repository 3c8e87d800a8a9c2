// Package cachefile implements the on-disk capability cache format used by
// a Full-persist input device: encoding a device's capabilities to bytes
// and decoding them back, and resolving which directory on disk backs the
// cache for a given device path.
package cachefile

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"sort"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/evserror"
)

var magicNumber = [8]byte{0x45, 0x56, 0x53, 0x56, 0x41, 0xe7, 0x75, 0x01}

const (
	blockAbs   uint16 = 0x0001
	blockRep   uint16 = 0x0002
	blockFinal uint16 = 0xffff
)

// Encode renders caps to the on-disk capability cache format: magic bytes,
// file length, one block per supported event type listing its codes in
// ascending order, an optional EV_ABS block with five i32s per abs code in
// that same order, an optional EV_REP block, a terminator, and a trailing
// CRC32 of everything before it.
func Encode(caps *capset.Capabilities) ([]byte, error) {
	body, err := encodeBody(caps)
	if err != nil {
		return nil, err
	}

	var header bytes.Buffer
	header.Write(magicNumber[:])
	fileLength := uint32(header.Len() + 4 + len(body) + 4)
	if err := binary.Write(&header, binary.LittleEndian, fileLength); err != nil {
		return nil, evserror.NewInternal("capability cache file length overflowed a u32")
	}

	result := append(header.Bytes(), body...)
	checksum := crc32.ChecksumIEEE(result)
	var trailer [4]byte
	binary.LittleEndian.PutUint32(trailer[:], checksum)
	return append(result, trailer[:]...), nil
}

func encodeBody(caps *capset.Capabilities) ([]byte, error) {
	var body bytes.Buffer

	types := eventTypes(caps)
	if err := writeU16(&body, uint16(len(types))); err != nil {
		return nil, err
	}

	for _, evType := range types {
		codes := sortedCodesForType(caps, evType)
		if err := writeU16(&body, uint16(evType)); err != nil {
			return nil, err
		}
		if err := writeU16(&body, uint16(len(codes))); err != nil {
			return nil, err
		}
		for _, code := range codes {
			if err := writeU16(&body, code.Code); err != nil {
				return nil, err
			}
		}
	}

	if containsType(types, evmodel.EvAbs) {
		if err := writeU16(&body, blockAbs); err != nil {
			return nil, err
		}
		for _, code := range sortedCodesForType(caps, evmodel.EvAbs) {
			cap_ := caps.ByCode[code]
			if cap_.Abs == nil {
				return nil, evserror.NewInternal("capability set advertises EV_ABS code %s without abs-info", code.String())
			}
			for _, v := range []int32{cap_.Abs.ValueInterval.Min, cap_.Abs.ValueInterval.Max, cap_.Abs.Flat, cap_.Abs.Fuzz, cap_.Abs.Resolution} {
				if err := writeI32(&body, v); err != nil {
					return nil, err
				}
			}
		}
	}

	if containsType(types, evmodel.EvRep) {
		if err := writeU16(&body, blockRep); err != nil {
			return nil, err
		}
		rep := capset.KernelDefaultRepeatInfo
		if caps.Repeat != nil {
			rep = *caps.Repeat
		}
		if err := writeI32(&body, rep.Delay); err != nil {
			return nil, err
		}
		if err := writeI32(&body, rep.Period); err != nil {
			return nil, err
		}
	}

	if err := writeU16(&body, blockFinal); err != nil {
		return nil, err
	}
	return body.Bytes(), nil
}

// Decode parses bytes produced by Encode, reporting a corruption error if
// the magic, length, or trailing CRC32 don't match.
func Decode(data []byte) (*capset.Capabilities, error) {
	if len(data) < 8+4+4 {
		return nil, evserror.NewSystem("capability cache file is too short to be valid")
	}
	if !bytes.Equal(data[0:8], magicNumber[:]) {
		return nil, evserror.NewSystem("capability cache file has the wrong magic number")
	}
	length := binary.LittleEndian.Uint32(data[8:12])
	if int(length) != len(data) {
		return nil, evserror.NewSystem("capability cache file's recorded length does not match its actual size")
	}

	body := data[:len(data)-4]
	expected := binary.LittleEndian.Uint32(data[len(data)-4:])
	if crc32.ChecksumIEEE(body) != expected {
		return nil, evserror.NewSystem("capability cache file has failed its checksum")
	}

	r := bytes.NewReader(data[12 : len(data)-4])
	caps := capset.NewCapabilities()

	numTypes, err := readU16(r)
	if err != nil {
		return nil, evserror.NewSystem("capability cache file is truncated")
	}

	var absCodes []evmodel.EventCode
	for i := uint16(0); i < numTypes; i++ {
		evType, err := readU16(r)
		if err != nil {
			return nil, evserror.NewSystem("capability cache file is truncated")
		}
		numCodes, err := readU16(r)
		if err != nil {
			return nil, evserror.NewSystem("capability cache file is truncated")
		}
		for j := uint16(0); j < numCodes; j++ {
			code, err := readU16(r)
			if err != nil {
				return nil, evserror.NewSystem("capability cache file is truncated")
			}
			ec := evmodel.NewEventCode(evmodel.EventType(evType), code)
			caps.Add(capset.Capability{Code: ec, ValueInterval: capset.Unbounded})
			if evmodel.EventType(evType) == evmodel.EvAbs {
				absCodes = append(absCodes, ec)
			}
		}
	}

	for {
		block, err := readU16(r)
		if err != nil {
			return nil, evserror.NewSystem("capability cache file is missing its terminator block")
		}
		switch block {
		case blockAbs:
			for _, code := range absCodes {
				min, err1 := readI32(r)
				max, err2 := readI32(r)
				flat, err3 := readI32(r)
				fuzz, err4 := readI32(r)
				resolution, err5 := readI32(r)
				if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
					return nil, evserror.NewSystem("capability cache file is truncated")
				}
				cap_ := caps.ByCode[code]
				cap_.ValueInterval = capset.NewInterval(min, max)
				cap_.Abs = &capset.AbsMeta{
					ValueInterval: cap_.ValueInterval,
					Fuzz:          fuzz,
					Flat:          flat,
					Resolution:    resolution,
				}
				caps.ByCode[code] = cap_
			}
		case blockRep:
			delay, err1 := readI32(r)
			period, err2 := readI32(r)
			if err1 != nil || err2 != nil {
				return nil, evserror.NewSystem("capability cache file is truncated")
			}
			caps.Repeat = &capset.RepeatInfo{Delay: delay, Period: period}
		case blockFinal:
			return caps, nil
		default:
			return nil, evserror.NewSystem("capability cache file has an unrecognised special block")
		}
	}
}

func eventTypes(caps *capset.Capabilities) []evmodel.EventType {
	seen := make(map[evmodel.EventType]bool)
	var types []evmodel.EventType
	for code := range caps.ByCode {
		if !seen[code.Type] {
			seen[code.Type] = true
			types = append(types, code.Type)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func containsType(types []evmodel.EventType, t evmodel.EventType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func sortedCodesForType(caps *capset.Capabilities, evType evmodel.EventType) []evmodel.EventCode {
	var codes []evmodel.EventCode
	for code := range caps.ByCode {
		if code.Type == evType {
			codes = append(codes, code)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].Code < codes[j].Code })
	return codes
}

func writeU16(buf *bytes.Buffer, v uint16) error { return binary.Write(buf, binary.LittleEndian, v) }
func writeI32(buf *bytes.Buffer, v int32) error  { return binary.Write(buf, binary.LittleEndian, v) }

func readU16(r *bytes.Reader) (uint16, error) {
	var v uint16
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readI32(r *bytes.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}
