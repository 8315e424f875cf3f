package core

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
)

// ErrNotFound is the error resulting if a path search failed to find an
// executable file.
var ErrNotFound = exec.ErrNotFound

// LookupError reports a command name that could not be resolved to an
// executable. It is recoverable: the shell reports it and keeps running.
type LookupError struct {
	Name string
	Err  error
}

func (e *LookupError) Error() string {
	if errors.Is(e.Err, ErrNotFound) {
		return fmt.Sprintf("%s: command not found", e.Name)
	}
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// armedGuard is the slice of the InterruptController the launcher
// drives: disarmed while a child is outstanding so interrupts reach the
// child instead of the prompt. Rearming is the main loop's job.
type armedGuard interface {
	Disarm()
}

// Launcher spawns external commands and supervises them to completion.
// The shell is strictly sequential, so at most one child is outstanding
// at any time.
type Launcher struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	guard armedGuard
	log   zerolog.Logger

	mu      sync.Mutex
	current *os.Process
}

func NewLauncher(log zerolog.Logger, stdin io.Reader, stdout, stderr io.Writer) *Launcher {
	return &Launcher{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		log:    log,
	}
}

// Run resolves argv[0], spawns the command with the shell's stdio and
// working directory, and blocks until that specific child terminates.
// The returned status is the child's exit code; death by signal maps to
// the conventional 128+signal.
//
// A *LookupError is recoverable. Any other error is a spawn or wait
// failure the shell cannot recover from.
func (l *Launcher) Run(argv []string) (int, error) {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		// No child will ever exist; the controller stays armed so an
		// interrupt still resets the prompt.
		return 127, &LookupError{Name: argv[0], Err: err}
	}

	if l.guard != nil {
		l.guard.Disarm()
	}

	cmd := &exec.Cmd{
		Path:   path,
		Args:   argv,
		Stdin:  l.Stdin,
		Stdout: l.Stdout,
		Stderr: l.Stderr,
	}

	if err := cmd.Start(); err != nil {
		if isImageError(err) {
			// The program image itself is unusable; only the command
			// fails, the shell keeps running.
			return 126, &LookupError{Name: argv[0], Err: err}
		}
		return -1, fmt.Errorf("spawn %s: %w", argv[0], err)
	}

	l.setCurrent(cmd.Process)
	defer l.setCurrent(nil)

	l.log.Debug().Str("path", path).Int("pid", cmd.Process.Pid).Msg("child started")

	err = cmd.Wait()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		l.log.Debug().Int("pid", cmd.Process.Pid).Int("status", 0).Msg("child exited")
		return 0, nil

	case errors.As(err, &exitErr):
		status := exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			status = 128 + int(ws.Signal())
		}
		l.log.Debug().Int("pid", cmd.Process.Pid).Int("status", status).Msg("child exited")
		return status, nil

	default:
		return -1, fmt.Errorf("wait %s: %w", argv[0], err)
	}
}

// Signal forwards sig to the outstanding child, if any.
func (l *Launcher) Signal(sig os.Signal) {
	l.mu.Lock()
	proc := l.current
	l.mu.Unlock()

	if proc == nil {
		return
	}
	if err := proc.Signal(sig); err != nil {
		l.log.Debug().Err(err).Msg("signal forward failed")
	}
}

func (l *Launcher) setCurrent(proc *os.Process) {
	l.mu.Lock()
	l.current = proc
	l.mu.Unlock()
}

func (l *Launcher) outstanding() *os.Process {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// isImageError reports whether starting the child failed because of the
// program image rather than process creation. Image problems fail only
// the command; anything else (resource exhaustion) is fatal to the shell.
func isImageError(err error) bool {
	return errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, syscall.ENOEXEC) ||
		errors.Is(err, syscall.ENOTDIR)
}
