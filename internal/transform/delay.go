package transform

import (
	"time"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evmodel"
	"github.com/evsieve/evsieve-go/internal/keyfilter"
	"github.com/evsieve/evsieve-go/internal/loopback"
	"github.com/evsieve/evsieve-go/internal/stream"
)

type delayedBatch struct {
	token  loopback.Token
	events []evmodel.Event
}

// Delay withholds every event matching one of its keys for Period and
// reinjects it into the rest of the chain once that period elapses.
type Delay struct {
	Keys   []keyfilter.Key
	Period time.Duration

	delayed []delayedBatch
}

func NewDelay(keys []keyfilter.Key, period time.Duration) *Delay {
	return &Delay{Keys: keys, Period: period}
}

func (d *Delay) matchesAny(event evmodel.Event) bool {
	for _, key := range d.Keys {
		if key.Matches(event) {
			return true
		}
	}
	return false
}

func (d *Delay) ApplyToAll(events []evmodel.Event, out *[]evmodel.Event, _ *stream.State, lb *loopback.Loopback) {
	var withheld []evmodel.Event
	for _, event := range events {
		if d.matchesAny(event) {
			withheld = append(withheld, event)
		} else {
			*out = append(*out, event)
		}
	}

	if len(withheld) > 0 {
		token := lb.ScheduleWakeupIn(d.Period)
		d.delayed = append(d.delayed, delayedBatch{token: token, events: withheld})
	}
}

// Wakeup releases every batch scheduled under the given token.
func (d *Delay) Wakeup(token loopback.Token, out *[]evmodel.Event, _ *stream.State, _ *loopback.Loopback) {
	remaining := d.delayed[:0]
	for _, batch := range d.delayed {
		if batch.token == token {
			*out = append(*out, batch.events...)
		} else {
			remaining = append(remaining, batch)
		}
	}
	d.delayed = remaining
}

func (d *Delay) ApplyToAllCaps(caps []capset.Capability) []capset.Capability {
	return caps
}
