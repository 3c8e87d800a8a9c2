package evdevio

// Linux's generic ioctl request-number encoding, reimplemented by hand
// rather than through libevdev: this module binds directly to the
// kernel's evdev character-device ioctls via golang.org/x/sys/unix
// instead of pulling in a cgo libevdev wrapper.
const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNrShift) | (size << iocSizeShift)
}

func ior(typ, nr, size uintptr) uintptr { return ioc(iocRead, typ, nr, size) }
func iow(typ, nr, size uintptr) uintptr { return ioc(iocWrite, typ, nr, size) }

const evdevType = uintptr('E')

// evIOCGBIT returns the request code for reading the bitmask of codes
// supported under event type ev (ev==0 for the type bitmask itself).
func evIOCGBIT(ev, length uintptr) uintptr {
	return ioc(iocRead, evdevType, 0x20+ev, length)
}

// evIOCGABS returns the request code for reading abs-axis info for abs.
func evIOCGABS(abs uintptr) uintptr {
	return ior(evdevType, 0x40+abs, sizeofAbsInfo)
}

func evIOCGRAB() uintptr {
	return iow(evdevType, 0x90, 4)
}

func evIOCGREP() uintptr {
	return ior(evdevType, 0x03, 8)
}

func evIOCGNAME(length uintptr) uintptr {
	return ioc(iocRead, evdevType, 0x06, length)
}
