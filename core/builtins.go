package core

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pborman/getopt/v2"
)

// AllBuiltins holds a list of all registered shell builtins. A builtin
// runs inside the shell process itself: it never forks and never waits.
var AllBuiltins = make(map[string]Builtin)

type Builtin interface {
	Main(s *Shell, args []string) int
}

type BuiltinFunc func(s *Shell, args []string) int

func (f BuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ Builtin = (BuiltinFunc)(nil)

// Cd is the cd shell builtin. It mutates the working directory of the
// shell process, which every child spawned afterwards inherits. A missing
// path is passed through to Chdir unchanged and its result dictates
// success.
func Cd(s *Shell, args []string) int {
	var path string
	if len(args) > 1 {
		path = args[1]
	}
	if err := os.Chdir(path); err != nil {
		fmt.Fprintf(s.stderr, "%s: %v\n", args[0], err)
		return 1
	}
	return 0
}

// Pwd prints the working directory.
func Pwd(s *Shell, args []string) int {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(s.stderr, "%s: %v\n", args[0], err)
		return 1
	}
	fmt.Fprintln(s.stdout, wd)
	return 0
}

// Exit quits the shell after the current iteration.
func Exit(s *Shell, args []string) int {
	s.Quit = true
	return 0
}

// Help lists the registered builtins.
func Help(s *Shell, args []string) int {
	w := s.stdout
	fmt.Fprintln(w, "bsh, a small command interpreter")
	fmt.Fprintln(w, "These commands are defined internally. Type `help' to see this list.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Builtins:")
	fmt.Fprintln(w)

	var builtins []string
	for k := range AllBuiltins {
		builtins = append(builtins, k)
	}
	sort.Strings(builtins)

	fmt.Fprintln(w, strings.Join(builtins, "\n"))
	return 0
}

// History displays or clears the lines dispatched this session.
func History(s *Shell, args []string) int {
	opts := getopt.New()
	clear := opts.Bool('c', "clear the history by deleting all entries")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := s.stderr
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "Display or manipulate the history list.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		if err != nil {
			return 1
		}
		return 0
	}

	if *clear {
		if s.Readline != nil {
			s.Readline.Operation.ResetHistory()
		}
		s.history = nil
		return 0
	}

	for i, line := range s.history {
		fmt.Fprintf(s.stdout, "% 5d  %s\n", i, line)
	}
	return 0
}

func init() {
	AllBuiltins["cd"] = BuiltinFunc(Cd)
	AllBuiltins["pwd"] = BuiltinFunc(Pwd)
	AllBuiltins["exit"] = BuiltinFunc(Exit)
	AllBuiltins["help"] = BuiltinFunc(Help)
	AllBuiltins["history"] = BuiltinFunc(History)
}
