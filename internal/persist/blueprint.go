package persist

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evdevio"
	"github.com/evsieve/evsieve-go/internal/evmodel"
)

// Blueprint is everything needed to recognise and reopen an input device
// that has disconnected: the path and grab policy it was opened with, and
// the name and capabilities it had at the time it was lost.
type Blueprint struct {
	Path         string
	Domain       evmodel.Domain
	GrabMode     evdevio.GrabMode
	Name         string
	Capabilities *capset.Capabilities
}

// tryOpen attempts to reopen the device this blueprint describes. A
// missing device path is not an error: it returns (nil, nil) so the
// daemon keeps waiting.
func (b *Blueprint) tryOpen() (*evdevio.Device, error) {
	if _, err := os.Stat(b.Path); err != nil {
		return nil, nil
	}

	device, err := evdevio.Open(b.Path, b.Domain, b.GrabMode)
	if err != nil {
		return nil, err
	}

	if device.Name() != b.Name {
		logrus.Warnf("the reconnected device %q has a different name than expected: expected %q, got %q",
			b.Path, b.Name, device.Name())
	}
	if !capabilitiesEqual(b.Capabilities, device.Capabilities()) {
		logrus.Warnf("the capabilities of the reconnected device %q are different than expected", b.Path)
	}

	return device, nil
}

func capabilitiesEqual(expected *capset.Capabilities, actual []capset.Capability) bool {
	if expected == nil {
		return len(actual) == 0
	}
	if len(expected.ByCode) != len(actual) {
		return false
	}
	for _, cap_ := range actual {
		want, ok := expected.ByCode[cap_.Code]
		if !ok || want.ValueInterval != cap_.ValueInterval {
			return false
		}
	}
	return true
}
