package core

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/bshell/bsh/core/config"
)

var promptColor = color.New(color.FgGreen, color.Bold)

// lineSource is the slice of the readline instance the main loop drives.
// Interrupts arrive in-band as readline.ErrInterrupt.
type lineSource interface {
	SetPrompt(prompt string)
	Readline() (string, error)
}

// Shell drives the read-parse-dispatch-wait cycle. Each iteration reads
// one line, tokenizes it, and resolves it to a builtin or an external
// command; for external commands the shell blocks until the child
// terminates. The loop is single-threaded: the only asynchronous event is
// SIGINT, owned by the InterruptController.
type Shell struct {
	Readline *readline.Instance

	// Quit is set by the exit builtin to stop the loop.
	Quit bool

	config   *config.Configuration
	ctrl     *InterruptController
	launcher *Launcher
	log      zerolog.Logger

	stdout io.Writer
	stderr io.Writer
	isPTY  bool
	lines  lineSource

	history []string
	lastRet int

	toClose listCloser
}

func NewShell(configuration *config.Configuration, stdin io.Reader, stdout, stderr io.Writer) (*Shell, error) {
	shell := &Shell{
		config: configuration,
		stdout: stdout,
		stderr: stderr,
		isPTY:  isTerminal(stdin),
	}

	log, logCloser, err := newAppLog(configuration)
	if err != nil {
		return nil, err
	}
	shell.log = log
	if logCloser != nil {
		shell.toClose = append(shell.toClose, logCloser)
	}

	cfg := &readline.Config{
		Stdin:           readline.NewCancelableStdin(stdin),
		Stdout:          stdout,
		Stderr:          stderr,
		HistoryFile:     configuration.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		FuncIsTerminal: func() bool {
			return isTerminal(stdin)
		},
	}

	if err := cfg.Init(); err != nil {
		shell.toClose.Close()
		return nil, err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		shell.toClose.Close()
		return nil, err
	}
	shell.Readline = rl
	shell.lines = rl
	shell.toClose = append(shell.toClose, rl)

	shell.launcher = NewLauncher(log, stdin, stdout, stderr)

	// Interrupts while idle nudge the line editor into redrawing a fresh
	// prompt; interrupts during a wait go to the child.
	shell.ctrl = NewInterruptController(log,
		func() { fmt.Fprintln(rl) },
		shell.launcher.Signal,
	)
	shell.launcher.guard = shell.ctrl
	shell.toClose = append(shell.toClose, shell.ctrl)

	return shell, nil
}

// Run drives the main loop until end-of-input or the exit builtin. The
// returned error is fatal to the shell; clean end-of-input returns nil.
func (s *Shell) Run() error {
	for !s.Quit {
		s.ctrl.Arm()
		s.lines.SetPrompt(s.prompt())
		line, err := s.lines.Readline()

		switch {
		case err == io.EOF:
			// Input closed, quit cleanly.
			s.log.Debug().Msg("end of input")
			return nil

		case err == readline.ErrInterrupt:
			// Interrupt abandons the current line and resets to a fresh
			// prompt.
			s.log.Debug().Msg("read interrupted")
			continue

		case err != nil:
			return fmt.Errorf("read line: %w", err)
		}

		argv := Tokenize(line)
		if len(argv) == 0 {
			continue
		}

		s.history = append(s.history, line)

		if err := s.dispatch(argv); err != nil {
			return err
		}
	}
	return nil
}

// dispatch resolves the argument vector once per parsed line: builtins
// run in-process, everything else goes to the launcher. Recoverable
// failures are reported here; only fatal ones are returned.
func (s *Shell) dispatch(argv []string) error {
	if builtin, ok := AllBuiltins[argv[0]]; ok {
		s.lastRet = builtin.Main(s, argv)
		s.log.Debug().Str("builtin", argv[0]).Int("status", s.lastRet).Msg("dispatched builtin")
		return nil
	}

	// The launcher disarms the controller for the full duration of the
	// wait so an interrupt can never abandon the outstanding child; the
	// loop rearms on the next iteration.
	status, err := s.launcher.Run(argv)
	s.lastRet = status

	var lookupErr *LookupError
	switch {
	case errors.As(err, &lookupErr):
		fmt.Fprintf(s.stderr, "%v\n", lookupErr)
		return nil
	case err != nil:
		return err
	}
	return nil
}

// LastStatus reports the exit status of the most recent dispatch.
func (s *Shell) LastStatus() int {
	return s.lastRet
}

func (s *Shell) Close() error {
	return s.toClose.Close()
}

func (s *Shell) prompt() string {
	if s.isPTY {
		return promptColor.Sprint(s.config.Prompt)
	}
	return s.config.Prompt
}

func newAppLog(configuration *config.Configuration) (zerolog.Logger, io.Closer, error) {
	if configuration.AppLog == "" {
		return zerolog.Nop(), nil, nil
	}

	fd, err := os.OpenFile(configuration.AppLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return zerolog.New(fd).With().Timestamp().Logger(), fd, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

type listCloser []io.Closer

func (lc listCloser) Close() error {
	var lastErr error
	for _, v := range lc {
		if err := v.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}
