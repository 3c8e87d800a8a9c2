package uinputio

// Linux's /dev/uinput ioctl request numbers, encoded by hand for the same
// reason internal/evdevio hand-encodes the evdev ones: this module binds
// the kernel's legacy uinput_user_dev creation protocol directly through
// golang.org/x/sys/unix rather than a cgo libevdev wrapper.
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

const uinputType = uintptr('U')

func uiSetEvbit() uintptr   { return ioc(iocWrite, uinputType, 100, 4) }
func uiSetKeybit() uintptr  { return ioc(iocWrite, uinputType, 101, 4) }
func uiSetRelbit() uintptr  { return ioc(iocWrite, uinputType, 102, 4) }
func uiSetAbsbit() uintptr  { return ioc(iocWrite, uinputType, 103, 4) }
func uiSetMscbit() uintptr  { return ioc(iocWrite, uinputType, 104, 4) }
func uiSetLedbit() uintptr  { return ioc(iocWrite, uinputType, 105, 4) }
func uiSetSndbit() uintptr  { return ioc(iocWrite, uinputType, 106, 4) }
func uiSetSwbit() uintptr   { return ioc(iocWrite, uinputType, 109, 4) }
func uiDevCreate() uintptr  { return ioc(iocNone, uinputType, 1, 0) }
func uiDevDestroy() uintptr { return ioc(iocNone, uinputType, 2, 0) }
func uiGetSysname(length uintptr) uintptr {
	return ioc(iocRead, uinputType, 44, length)
}
