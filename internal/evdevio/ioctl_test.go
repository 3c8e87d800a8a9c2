package evdevio

import "testing"

import "github.com/stretchr/testify/assert"

// These expected values are the well-known evdev ioctl request numbers
// defined by linux/input.h; encoding them by hand is only correct if it
// reproduces exactly what the kernel headers generate.
func TestIoctlRequestNumbersMatchKernelHeaders(t *testing.T) {
	assert.EqualValues(t, 0x40044590, evIOCGRAB())
	assert.EqualValues(t, 0x80084503, evIOCGREP())
	assert.EqualValues(t, 0x80404506, evIOCGNAME(64))
	assert.EqualValues(t, 0x80404520, evIOCGBIT(0, 64))
	assert.EqualValues(t, 0x80184540, evIOCGABS(0))
}
