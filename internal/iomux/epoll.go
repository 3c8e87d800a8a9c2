// Package iomux multiplexes the file descriptors the daemon's single
// cooperative loop waits on: input devices, control FIFOs, and the
// persistence worker's notification eventfd. Everything funnels through one
// epoll instance so the loop can block on a single syscall whose timeout is
// governed by the pipeline's own wakeup schedule.
package iomux

import (
	"golang.org/x/sys/unix"

	"github.com/evsieve/evsieve-go/internal/evserror"
)

// Epoll is a thin wrapper around a Linux epoll instance. Unlike the
// original's Epoll, it does not own the registered files itself: the host
// keeps its own fd-to-owner table and decides what to do with a Ready
// descriptor, which keeps this package free of a knows-about-everything
// union type.
type Epoll struct {
	fd int
}

// New creates an empty epoll instance.
func New() (*Epoll, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, evserror.FromSystemErr(err).WithContext("creating epoll instance")
	}
	return &Epoll{fd: fd}, nil
}

// Add registers fd for readability notifications. fd must not already be
// registered with this Epoll.
func (e *Epoll) Add(fd int) error {
	event := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(e.fd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		return evserror.FromSystemErr(err).WithContext("adding a descriptor to the epoll instance")
	}
	return nil
}

// Remove unregisters fd. Removing a descriptor that was never added, or
// that the kernel already dropped because it was closed, is not an error.
func (e *Epoll) Remove(fd int) error {
	if err := unix.EpollCtl(e.fd, unix.EPOLL_CTL_DEL, fd, nil); err != nil && err != unix.ENOENT && err != unix.EBADF {
		return evserror.FromSystemErr(err).WithContext("removing a descriptor from the epoll instance")
	}
	return nil
}

// Readiness reports which registered descriptors need attention after one
// Wait call returns. Hup and Err never appear in Ready: a descriptor that
// hung up or errored is reported only once, in the matching slice.
type Readiness struct {
	Ready []int
	Hup   []int
	Err   []int
}

func (r Readiness) Empty() bool { return len(r.Ready) == 0 && len(r.Hup) == 0 && len(r.Err) == 0 }

// Wait blocks until at least one registered descriptor is ready, timeoutMs
// elapses, or a signal interrupts the call. A negative timeoutMs blocks
// indefinitely; EINTR is swallowed and reported as an empty Readiness so
// the caller's loop simply goes around again and recomputes its timeout.
func (e *Epoll) Wait(timeoutMs int) (Readiness, error) {
	// 32 is an arbitrary batch size; any leftover ready descriptors are
	// picked up on the very next Wait call since epoll is level-triggered.
	var buf [32]unix.EpollEvent
	n, err := unix.EpollWait(e.fd, buf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return Readiness{}, nil
		}
		return Readiness{}, evserror.FromSystemErr(err).WithContext("waiting on the epoll instance")
	}

	var r Readiness
	for _, ev := range buf[:n] {
		fd := int(ev.Fd)
		switch {
		case ev.Events&(unix.EPOLLERR) != 0:
			r.Err = append(r.Err, fd)
		case ev.Events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0:
			r.Hup = append(r.Hup, fd)
		case ev.Events&unix.EPOLLIN != 0:
			r.Ready = append(r.Ready, fd)
		}
	}
	return r, nil
}

func (e *Epoll) Close() error { return unix.Close(e.fd) }
