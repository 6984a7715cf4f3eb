// Package console is a line oriented command interpreter for driving a
// plotter by hand.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"k40nano/plotter"
)

var (
	ErrQuit           = errors.New("quit")
	ErrUnknownCommand = errors.New("unknown command")
)

// Plotter is the subset of *plotter.Plotter the console drives
type Plotter interface {
	Move(dx, dy int) error
	EnterCompactMode(speed float64, harmonicStep int) error
	ExitCompactModeFinish() error
	ExitCompactModeReset() error
	ExitCompactModeBreak() error
	Down() error
	Up() error
	Home(abort bool) error
	LockRail(abort bool) error
	UnlockRail(abort bool) error
	Abort() error
	Position() (int, int)
	State() plotter.ModeState
}

// Console executes commands against a plotter and prints replies to out
type Console struct {
	plotter Plotter
	out     io.Writer
}

func New(p Plotter, out io.Writer) *Console {
	return &Console{plotter: p, out: out}
}

type command struct {
	usage string
	help  string
	run   func(c *Console, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"move":    {"move DX DY", "relative move in mils", (*Console).move},
		"compact": {"compact [SPEED] [STEP]", "enter compact mode, speed in mm/s", (*Console).compact},
		"finish":  {"finish", "finish compact mode and wait", noArgs((Plotter).ExitCompactModeFinish)},
		"reset":   {"reset", "reset compact mode", noArgs((Plotter).ExitCompactModeReset)},
		"break":   {"break", "leave compact mode keeping its state", noArgs((Plotter).ExitCompactModeBreak)},
		"down":    {"down", "laser down", noArgs((Plotter).Down)},
		"up":      {"up", "laser up", noArgs((Plotter).Up)},
		"home":    {"home [abort]", "move to the origin", abortable((Plotter).Home)},
		"lock":    {"lock [abort]", "lock the rail", abortable((Plotter).LockRail)},
		"unlock":  {"unlock [abort]", "unlock the rail", abortable((Plotter).UnlockRail)},
		"abort":   {"abort", "interrupt the board", noArgs((Plotter).Abort)},
		"pos":     {"pos", "print position and mode", (*Console).position},
		"help":    {"help", "show this help message", (*Console).help},
	}
}

// Execute runs one command line. Empty lines and # comments are ignored.
func (c *Console) Execute(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return nil
	}

	name := strings.ToLower(args[0])
	switch name {
	case "quit", "exit", "q":
		return ErrQuit
	case "?":
		name = "help"
	}
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: %s (type 'help' for available commands)", ErrUnknownCommand, args[0])
	}
	return cmd.run(c, args[1:])
}

// Run reads commands from r until it is exhausted or a quit command.
// Command errors are printed and do not stop the loop.
func (c *Console) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			break
		}
		err := c.Execute(scanner.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (c *Console) move(args []string) error {
	if len(args) != 2 {
		return usage("move")
	}
	dx, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad dx %q: %w", args[0], err)
	}
	dy, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad dy %q: %w", args[1], err)
	}
	return c.plotter.Move(dx, dy)
}

func (c *Console) compact(args []string) error {
	if len(args) > 2 {
		return usage("compact")
	}
	speed, step := 0.0, 0
	var err error
	if len(args) > 0 {
		if speed, err = strconv.ParseFloat(args[0], 64); err != nil || speed < 0 {
			return fmt.Errorf("bad speed %q", args[0])
		}
	}
	if len(args) > 1 {
		if step, err = strconv.Atoi(args[1]); err != nil || step < 0 {
			return fmt.Errorf("bad step %q", args[1])
		}
	}
	return c.plotter.EnterCompactMode(speed, step)
}

func (c *Console) position(args []string) error {
	x, y := c.plotter.Position()
	s := c.plotter.State()
	fmt.Fprintf(c.out, "x=%d y=%d mode=%s laser=%v\n", x, y, s.Mode, s.LaserOn)
	return nil
}

func (c *Console) help(args []string) error {
	names := []string{"move", "compact", "finish", "reset", "break", "down", "up",
		"home", "lock", "unlock", "abort", "pos", "help"}
	fmt.Fprintln(c.out, "Available commands:")
	for _, n := range names {
		cmd := commands[n]
		fmt.Fprintf(c.out, "  %-24s - %s\n", cmd.usage, cmd.help)
	}
	fmt.Fprintf(c.out, "  %-24s - %s\n", "quit/exit/q", "exit")
	return nil
}

func noArgs(fn func(Plotter) error) func(*Console, []string) error {
	return func(c *Console, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("unexpected arguments: %v", args)
		}
		return fn(c.plotter)
	}
}

func abortable(fn func(Plotter, bool) error) func(*Console, []string) error {
	return func(c *Console, args []string) error {
		switch {
		case len(args) == 0:
			return fn(c.plotter, false)
		case len(args) == 1 && args[0] == "abort":
			return fn(c.plotter, true)
		}
		return fmt.Errorf("unexpected arguments: %v", args)
	}
}

func usage(name string) error {
	return fmt.Errorf("usage: %s", commands[name].usage)
}
