// Package persist runs the background worker that tries to reopen input
// devices which disconnected while their persist-mode asked for it: it
// watches the directories those devices' paths resolve through for new
// arrivals, and retries opening each pending blueprint whenever something
// changes there.
package persist

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"

	mapset "github.com/deckarep/golang-set"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/evsieve/evsieve-go/internal/evdevio"
)

// CommandKind distinguishes the messages the host sends to the daemon.
type CommandKind int

const (
	CommandAddBlueprint CommandKind = iota
	CommandShutdown
)

type Command struct {
	Kind      CommandKind
	Blueprint Blueprint
}

// ReportKind distinguishes the messages the daemon sends back to the host.
type ReportKind int

const (
	ReportDeviceOpened ReportKind = iota
	ReportBlueprintDropped
	ReportShutdown
)

type Report struct {
	Kind   ReportKind
	Device *evdevio.Device
	// Path identifies which blueprint a ReportBlueprintDropped refers to.
	Path string
}

// Daemon is the running persistence worker's host-side handle.
type Daemon struct {
	commands chan Command
	reports  chan Report
	done     chan struct{}
	notifyFd int
}

// maxWatchIterations bounds how many times the daemon recomputes its
// inotify watch set per retry pass while chasing a moving target: paths
// can change between computing and watching them, so the set is
// recomputed until it stabilizes or this limit is hit.
const maxWatchIterations = 5

// Launch starts the persistence worker in a background goroutine and
// returns a handle to communicate with it.
func Launch() (*Daemon, error) {
	w, err := newWatcher()
	if err != nil {
		return nil, err
	}

	notifyFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		w.Close()
		return nil, err
	}

	d := &Daemon{
		commands: make(chan Command, 16),
		reports:  make(chan Report, 16),
		done:     make(chan struct{}),
		notifyFd: notifyFd,
	}
	go d.run(w)
	return d, nil
}

func (d *Daemon) AddBlueprint(b Blueprint) { d.commands <- Command{Kind: CommandAddBlueprint, Blueprint: b} }
func (d *Daemon) Shutdown()                { d.commands <- Command{Kind: CommandShutdown} }
func (d *Daemon) Reports() <-chan Report   { return d.reports }

// NotifyFd returns an eventfd that becomes readable whenever a report has
// been pushed onto Reports(), so a host multiplexing this daemon alongside
// other descriptors in a single epoll wait knows to drain it.
func (d *Daemon) NotifyFd() int { return d.notifyFd }

// emit pushes a report and pings the eventfd so a host blocked in epoll on
// NotifyFd wakes up to go drain it.
func (d *Daemon) emit(r Report) {
	d.reports <- r
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(d.notifyFd, buf[:])
}

func (d *Daemon) run(w *watcher) {
	defer close(d.reports)
	defer w.Close()
	defer unix.Close(d.notifyFd)

	var blueprints []Blueprint
	events := d.watchEvents(w)

	for {
		select {
		case cmd := <-d.commands:
			switch cmd.Kind {
			case CommandAddBlueprint:
				blueprints = append(blueprints, cmd.Blueprint)
				blueprints = d.tryOpenAll(w, blueprints)
			case CommandShutdown:
				d.emit(Report{Kind: ReportShutdown})
				return
			}
		case <-events:
			blueprints = d.tryOpenAll(w, blueprints)
		}
	}
}

// watchEvents forwards a notification on its returned channel every time
// the inotify fd becomes readable, blocking in a dedicated goroutine so the
// main select loop never calls a blocking read itself.
func (d *Daemon) watchEvents(w *watcher) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		fds := []unix.PollFd{{Fd: int32(w.Fd()), Events: unix.POLLIN}}
		for {
			n, err := unix.Poll(fds, -1)
			if err != nil || n <= 0 {
				continue
			}
			if err := w.drain(); err != nil {
				logrus.Warn(err)
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out
}

// tryOpenAll attempts to open every pending blueprint, reporting each
// success and dropping it from the pending list, then recomputes and
// installs the watch set until it stabilizes.
func (d *Daemon) tryOpenAll(w *watcher, blueprints []Blueprint) []Blueprint {
	var pending []Blueprint
	for _, b := range blueprints {
		device, err := b.tryOpen()
		switch {
		case err != nil:
			logrus.Warn(err)
			d.emit(Report{Kind: ReportBlueprintDropped, Path: b.Path})
		case device != nil:
			d.emit(Report{Kind: ReportDeviceOpened, Device: device})
		default:
			pending = append(pending, b)
		}
	}

	for i := 0; i < maxWatchIterations; i++ {
		wanted := pathsToWatch(pending)
		if pathSetsEqual(wanted, w.watchedPaths()) {
			break
		}
		if err := w.setWatchedPaths(wanted); err != nil {
			logrus.Warn(err)
			break
		}
		if i == maxWatchIterations-1 {
			logrus.Warn("maximum try count exceeded while listening for new devices")
		}
	}

	return pending
}

func pathSetsEqual(a, b []string) bool {
	setA := mapset.NewSetFromSlice(toInterfaceSlice(a))
	setB := mapset.NewSetFromSlice(toInterfaceSlice(b))
	return setA.Equal(setB)
}

func toInterfaceSlice(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// pathsToWatch returns the deduplicated parent directories of every path in
// each blueprint's symlink chain, the set of directories a new device
// arrival or symlink update could appear in.
func pathsToWatch(blueprints []Blueprint) []string {
	dirs := mapset.NewSet()
	for _, b := range blueprints {
		for _, p := range walkSymlinkChain(b.Path) {
			dirs.Add(filepath.Dir(p))
		}
	}
	result := make([]string, 0, dirs.Cardinality())
	for _, v := range dirs.ToSlice() {
		result = append(result, v.(string))
	}
	sort.Strings(result)
	return result
}

const maxSymlinksInChain = 20

// walkSymlinkChain returns path followed by every path reached by
// resolving one symlink hop at a time, stopping at a cycle, a dead end, or
// maxSymlinksInChain hops.
func walkSymlinkChain(path string) []string {
	visited := []string{path}
	current := path
	for i := 0; i < maxSymlinksInChain; i++ {
		target, err := os.Readlink(current)
		if err != nil {
			break
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		already := false
		for _, v := range visited {
			if v == target {
				already = true
				break
			}
		}
		if already {
			break
		}
		visited = append(visited, target)
		current = target
	}
	return visited
}
