// Package controlfifo implements the control FIFOs: named pipes on the
// filesystem that accept line-delimited commands, of which only `toggle
// [id][:index]...` is required to be understood.
package controlfifo

import (
	"bufio"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/evsieve/evsieve-go/internal/config"
	"github.com/evsieve/evsieve-go/internal/evserror"
)

// errEAGAIN marks a read that found nothing more available right now,
// distinguishing it from a genuine read error.
var errEAGAIN = errors.New("no data available")

// fdFile adapts a raw non-blocking file descriptor to io.Reader, translating
// EAGAIN/EWOULDBLOCK into errEAGAIN so callers can tell "nothing to read yet"
// apart from a real failure.
type fdFile struct{ fd int }

func (f *fdFile) Read(p []byte) (int, error) {
	n, err := unix.Read(f.fd, p)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return 0, errEAGAIN
	}
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// The write end closed; nothing is waiting and nothing ever will be
		// until a new writer opens the fifo. Treat like EAGAIN.
		return 0, errEAGAIN
	}
	return n, nil
}

// Fifo is one control FIFO: a named pipe created on the filesystem and
// removed again when closed.
type Fifo struct {
	path            string
	file            *fdFile
	reader          *bufio.Reader
	incompleteLine  string
	hasIncompleteLn bool
}

// Create makes a named pipe at path and opens its read end non-blocking.
func Create(path string) (*Fifo, error) {
	if err := unix.Mkfifo(path, 0o600); err != nil {
		return nil, evserror.FromSystemErr(err).WithContext("creating fifo at " + path)
	}

	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, evserror.FromSystemErr(err).WithContext("opening fifo at " + path)
	}

	f := &fdFile{fd: fd}
	return &Fifo{path: path, file: f, reader: bufio.NewReader(f)}, nil
}

func (f *Fifo) Path() string { return f.path }
func (f *Fifo) Fd() int      { return f.file.fd }

// Poll reads every complete line currently available and parses each into
// a Command, logging and skipping lines that don't parse.
func (f *Fifo) Poll() ([]Command, error) {
	var commands []Command
	for {
		line, err := f.reader.ReadString('\n')
		if len(line) == 0 && err != nil {
			if err == errEAGAIN {
				break
			}
			return commands, evserror.FromSystemErr(err).WithContext("reading from fifo " + f.path)
		}

		if !strings.HasSuffix(line, "\n") {
			// Nothing more to read right now; hold this partial line for
			// the next poll, exactly as the fragment is presented to us.
			f.incompleteLine += line
			f.hasIncompleteLn = true
			break
		}

		line = strings.TrimSuffix(line, "\n")
		if f.hasIncompleteLn {
			line = f.incompleteLine + line
			f.incompleteLine = ""
			f.hasIncompleteLn = false
		}
		if line == "" {
			continue
		}

		cmd, err := parseCommand(line)
		if err != nil {
			logrus.Warn(err)
			continue
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

func (f *Fifo) Close() error {
	_ = unix.Close(f.file.fd)
	return unix.Unlink(f.path)
}

// CommandKind distinguishes the command kinds a control FIFO understands.
type CommandKind int

const (
	CommandToggle CommandKind = iota
)

type Command struct {
	Kind   CommandKind
	Toggle config.ToggleAction
}

func parseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, evserror.NewArgument("no command provided")
	}

	name, args := fields[0], fields[1:]
	switch name {
	case "toggle":
		// Mirrors the original control FIFO parser: any argument at all
		// also sets the global (unspecified-id) action to "advance",
		// matching "toggle id:index" meaning "set id to index and advance
		// every other toggle", while a bare "toggle" with no id does
		// nothing on its own.
		action, err := config.ParseToggleAction(len(args) != 0, args)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CommandToggle, Toggle: action}, nil
	default:
		return Command{}, evserror.NewArgument("unknown command received: %s", name)
	}
}
