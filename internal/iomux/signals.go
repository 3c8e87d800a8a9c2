package iomux

import (
	"encoding/binary"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/evsieve/evsieve-go/internal/evserror"
)

// ExitSignals mirrors the original's fixed exit-signal list: receiving any
// one of them asks the daemon to shut down instead of crashing out.
var ExitSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// Signals funnels the exit signals into an eventfd that can sit in the same
// epoll set as every other descriptor the main loop waits on. The original
// masks these signals process-wide and reads them back off a signalfd
// registered in its one epoll; that trick does not translate safely to Go,
// since the runtime's own signal dispatcher races with a raw sigprocmask
// done from ordinary goroutine code. Using os/signal.Notify instead, and
// bridging its channel to an eventfd with a small forwarding goroutine,
// keeps signal delivery on the safe, supported path while still letting
// the main loop block on a single epoll_wait.
type Signals struct {
	ch      chan os.Signal
	eventfd int
	mu      sync.Mutex
	pending []os.Signal
}

// NewSignals starts listening for the exit signals and silently ignores
// SIGPIPE, matching the original's refusal to die when a downstream pipe
// closes out from under it.
func NewSignals() (*Signals, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, evserror.FromSystemErr(err).WithContext("creating the signal eventfd")
	}

	signal.Ignore(syscall.SIGPIPE)

	s := &Signals{
		ch:      make(chan os.Signal, 8),
		eventfd: fd,
	}
	signal.Notify(s.ch, ExitSignals...)
	go s.forward()
	return s, nil
}

func (s *Signals) forward() {
	for sig := range s.ch {
		s.mu.Lock()
		s.pending = append(s.pending, sig)
		s.mu.Unlock()

		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], 1)
		_, _ = unix.Write(s.eventfd, buf[:])
	}
}

// Fd returns the descriptor to register with an Epoll.
func (s *Signals) Fd() int { return s.eventfd }

// Drain returns every signal received since the last Drain call and
// consumes the eventfd's readiness.
func (s *Signals) Drain() []os.Signal {
	var buf [8]byte
	_, _ = unix.Read(s.eventfd, buf[:])

	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.pending
	s.pending = nil
	return pending
}

func (s *Signals) Close() error {
	signal.Stop(s.ch)
	close(s.ch)
	return unix.Close(s.eventfd)
}
