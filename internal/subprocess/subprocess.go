// Package subprocess runs the external commands spawned by --hook's
// exec-shell= effect and --toggle's similar clause, and reaps them so the
// daemon can be asked to terminate every child it started before it exits
// itself.
package subprocess

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/evsieve/evsieve-go/internal/evserror"
)

type process struct {
	cmd           *exec.Cmd
	printableArgs string
}

var (
	mu        sync.Mutex
	processes []*process
)

// TrySpawn starts program with args, stdin connected to nothing, and keeps
// track of it so TerminateAll can stop it later. The process is reaped in
// the background; a non-zero exit status is logged but not otherwise
// reported to the caller, matching a fire-and-forget hook effect.
func TrySpawn(program string, args []string) error {
	printable := printableCommand(program, args)

	cmd := exec.Command(program, args...)
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return evserror.FromSystemErr(err).WithContext(fmt.Sprintf("while trying to run %s", printable))
	}

	p := &process{cmd: cmd, printableArgs: printable}
	mu.Lock()
	processes = append(processes, p)
	mu.Unlock()

	go reap(p)
	return nil
}

func reap(p *process) {
	err := p.cmd.Wait()
	mu.Lock()
	removeProcess(p)
	mu.Unlock()

	if err == nil {
		return
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		log.Warnf("failed to run %s: exit code %d", p.printableArgs, exitErr.ExitCode())
		return
	}
	log.Warnf("failed to run %s: %v", p.printableArgs, err)
}

func removeProcess(p *process) {
	for i, other := range processes {
		if other == p {
			processes = append(processes[:i], processes[i+1:]...)
			return
		}
	}
}

// TerminateAll sends SIGTERM to every subprocess still running, used while
// the daemon is shutting down.
func TerminateAll() {
	mu.Lock()
	toKill := append([]*process(nil), processes...)
	mu.Unlock()

	for _, p := range toKill {
		if p.cmd.Process == nil {
			continue
		}
		if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
			log.Warnf("failed to terminate %s: %v", p.printableArgs, err)
		}
	}
}

func printableCommand(program string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, program)
	for _, a := range args {
		if strings.ContainsRune(a, ' ') {
			parts = append(parts, fmt.Sprintf("%q", a))
		} else {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, " ")
}
