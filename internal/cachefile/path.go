package cachefile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/evsieve/evsieve-go/internal/capset"
	"github.com/evsieve/evsieve-go/internal/evserror"
)

// Result is what was found (or not found) when loading a device's cached
// capabilities.
type Result struct {
	// Caps is non-nil only when Corrupted is false and the file existed.
	Caps      *capset.Capabilities
	Corrupted bool
}

// Store reads and writes capability cache files under a resolved state
// directory, backed by an afero.Fs so tests can substitute an in-memory
// filesystem instead of touching the real one.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore resolves the capabilities cache directory following, in order,
// $EVSIEVE_STATE_DIR, /var/lib/evsieve (if running as root), then
// $XDG_STATE_HOME/evsieve or $HOME/.local/state/evsieve.
func NewStore(fs afero.Fs) (*Store, error) {
	dir, err := capabilitiesDir()
	if err != nil {
		return nil, err
	}
	return &Store{fs: fs, dir: dir}, nil
}

func capabilitiesDir() (string, error) {
	state, err := stateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(state, "capabilities"), nil
}

func stateDir() (string, error) {
	if dir := os.Getenv("EVSIEVE_STATE_DIR"); dir != "" {
		return dir, nil
	}
	if os.Geteuid() == 0 {
		return "/var/lib/evsieve", nil
	}
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "evsieve"), nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		return "", evserror.NewSystem("the environment variables do not give evsieve enough information to figure out where it is supposed to store its data; define at least one of EVSIEVE_STATE_DIR, XDG_STATE_HOME, or HOME")
	}
	return filepath.Join(home, ".local", "state", "evsieve"), nil
}

// pathFor maps a device path to its capability cache file name: every '\'
// is escaped to "\\", every '.' to "\.", and every '/' becomes '.', so the
// result contains no path separator yet still resembles the input.
func (s *Store) pathFor(devicePath string) string {
	encoded := strings.NewReplacer(`\`, `\\`, `.`, `\.`, `/`, `.`).Replace(devicePath)
	return filepath.Join(s.dir, "caps:path="+encoded)
}

// Load reads the cached capabilities for devicePath. A missing file is not
// an error: it returns a zero Result.
func (s *Store) Load(devicePath string) (Result, error) {
	data, err := afero.ReadFile(s.fs, s.pathFor(devicePath))
	if os.IsNotExist(err) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, evserror.FromSystemErr(err).WithContext("reading capability cache file for " + devicePath)
	}
	caps, err := Decode(data)
	if err != nil {
		return Result{Corrupted: true}, nil
	}
	return Result{Caps: caps}, nil
}

// Save writes caps for devicePath to its cache file, creating the cache
// directory if necessary.
func (s *Store) Save(devicePath string, caps *capset.Capabilities) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return evserror.FromSystemErr(err).WithContext("creating capability cache directory")
	}
	data, err := Encode(caps)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, s.pathFor(devicePath), data, 0o644); err != nil {
		return evserror.FromSystemErr(err).WithContext("writing capability cache file for " + devicePath)
	}
	return nil
}
