package persist

import (
	"golang.org/x/sys/unix"

	"github.com/evsieve/evsieve-go/internal/evserror"
)

// watcher wraps a non-blocking inotify instance that watches a flat set of
// directories for newly-created or newly-moved-in entries, the two events
// that can mean "a device we're waiting for just reappeared".
type watcher struct {
	fd      int
	watches map[int32]string // watch descriptor -> path
	byPath  map[string]int32
}

func newWatcher() (*watcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK)
	if err != nil {
		return nil, evserror.FromSystemErr(err).WithContext("initializing inotify")
	}
	return &watcher{fd: fd, watches: make(map[int32]string), byPath: make(map[string]int32)}, nil
}

func (w *watcher) Fd() int { return w.fd }

func (w *watcher) addWatch(path string) error {
	wd, err := unix.InotifyAddWatch(w.fd, path, unix.IN_CREATE|unix.IN_MOVED_TO)
	if err != nil {
		return evserror.FromSystemErr(err).WithContext("watching " + path)
	}
	w.watches[int32(wd)] = path
	w.byPath[path] = int32(wd)
	return nil
}

func (w *watcher) removeWatch(path string) {
	wd, ok := w.byPath[path]
	if !ok {
		return
	}
	// EINVAL here means the kernel already dropped the watch (e.g. the
	// watched directory itself was removed); nothing left to clean up.
	_, _ = unix.InotifyRmWatch(w.fd, uint32(wd))
	delete(w.watches, wd)
	delete(w.byPath, path)
}

func (w *watcher) watchedPaths() []string {
	paths := make([]string, 0, len(w.byPath))
	for path := range w.byPath {
		paths = append(paths, path)
	}
	return paths
}

// setWatchedPaths adds every path not yet watched and removes every
// watched path absent from paths.
func (w *watcher) setWatchedPaths(paths []string) error {
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[p] = true
	}
	for path := range w.byPath {
		if !want[path] {
			w.removeWatch(path)
		}
	}
	for _, path := range paths {
		if _, ok := w.byPath[path]; !ok {
			if err := w.addWatch(path); err != nil {
				return err
			}
		}
	}
	return nil
}

// drain discards every currently queued event; the daemon only cares that
// something happened, not what.
func (w *watcher) drain() error {
	buf := make([]byte, 4096)
	for {
		n, err := unix.Read(w.fd, buf)
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil
		}
		if err != nil {
			return evserror.FromSystemErr(err).WithContext("reading inotify events")
		}
		if n <= 0 {
			return nil
		}
	}
}

func (w *watcher) Close() error {
	return unix.Close(w.fd)
}
