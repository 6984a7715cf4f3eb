package gcode

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"k40nano/plotter"
)

const (
	milsPerInch = 1000.0
	milsPerMM   = 1000.0 / 25.4
)

// Plotter is the subset of *plotter.Plotter the interpreter drives
type Plotter interface {
	Move(dx, dy int) error
	Down() error
	Up() error
	EnterCompactMode(speed float64, harmonicStep int) error
	ExitCompactModeFinish() error
	ExitCompactModeBreak() error
	Home(abort bool) error
	Position() (int, int)
	State() plotter.ModeState
}

// Options configure an Interpreter
type Options struct {
	// Speed in mm/s used until the program sets a feed rate
	DefaultSpeed float64

	// FlipY makes positive G-code Y point towards the top of the bed
	FlipY bool
}

// State is the modal state of a running program
type State struct {
	Absolute bool
	Inches   bool
	Speed    float64 // mm/s

	// Logical position in mils, before rounding
	X, Y float64
}

// Interpreter executes G-code commands on a plotter.
// Targets are kept in floating point and rounded to whole mils per move, so
// rounding errors do not accumulate over a program.
type Interpreter struct {
	plotter Plotter
	opts    Options
	state   State

	// offset from logical to plotter position, set by G92
	offsetX, offsetY float64

	// speed the current compact session was entered at
	sessionSpeed float64
}

func NewInterpreter(p Plotter, opts Options) *Interpreter {
	if opts.DefaultSpeed <= 0 {
		opts.DefaultSpeed = plotter.DefaultSpeed
	}
	return &Interpreter{
		plotter: p,
		opts:    opts,
		state: State{
			Absolute: true,
			Speed:    opts.DefaultSpeed,
		},
	}
}

// GetState returns the modal state
func (interp *Interpreter) GetState() State {
	return interp.state
}

// Run parses and executes every line read from r
func (interp *Interpreter) Run(r io.Reader) error {
	parser := NewParser()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		cmd, err := parser.ParseLine(scanner.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := interp.Execute(cmd); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// Execute executes a parsed G-code command. Unsupported codes are ignored.
func (interp *Interpreter) Execute(cmd *Command) error {
	if cmd == nil {
		return nil
	}

	switch cmd.Type {
	case 'G':
		return interp.executeG(cmd)
	case 'M':
		return interp.executeM(cmd)
	case 0:
		// Bare coordinates continue the last motion mode; treat as a rapid
		if cmd.HasParameter('X') || cmd.HasParameter('Y') {
			return interp.doMove(cmd, false)
		}
	}

	return nil
}

func (interp *Interpreter) executeG(cmd *Command) error {
	switch cmd.Number {
	case 0: // rapid, laser off
		return interp.doMove(cmd, false)
	case 1: // cut, laser on
		return interp.doMove(cmd, true)
	case 20:
		interp.state.Inches = true
	case 21:
		interp.state.Inches = false
	case 28:
		return interp.doHome()
	case 90:
		interp.state.Absolute = true
	case 91:
		interp.state.Absolute = false
	case 92:
		interp.doSetPosition(cmd)
	}
	return nil
}

func (interp *Interpreter) executeM(cmd *Command) error {
	switch cmd.Number {
	case 2, 30: // program end
		return interp.plotter.ExitCompactModeFinish()
	case 3, 4:
		if err := interp.ensureCompact(); err != nil {
			return err
		}
		return interp.plotter.Down()
	case 5:
		return interp.plotter.Up()
	}
	return nil
}

// doMove moves to the commanded target with the laser down or up
func (interp *Interpreter) doMove(cmd *Command, cut bool) error {
	if cmd.HasParameter('F') {
		feed := cmd.GetParameter('F', 0)
		if feed > 0 {
			interp.state.Speed = interp.toMM(feed) / 60.0
		}
	}
	if !cmd.HasParameter('X') && !cmd.HasParameter('Y') {
		return nil
	}

	target := interp.state
	if cmd.HasParameter('X') {
		target.X = interp.axis(cmd.GetParameter('X', 0), interp.state.X)
	}
	if cmd.HasParameter('Y') {
		y := cmd.GetParameter('Y', 0)
		if interp.opts.FlipY {
			y = -y
		}
		target.Y = interp.axis(y, interp.state.Y)
	}

	if err := interp.ensureCompact(); err != nil {
		return err
	}
	var err error
	if cut {
		err = interp.plotter.Down()
	} else {
		err = interp.plotter.Up()
	}
	if err != nil {
		return err
	}

	interp.state.X, interp.state.Y = target.X, target.Y
	x, y := interp.plotter.Position()
	dx := int(math.Round(target.X+interp.offsetX)) - x
	dy := int(math.Round(target.Y+interp.offsetY)) - y
	return interp.plotter.Move(dx, dy)
}

// ensureCompact enters compact mode at the current speed, restarting the
// session when the speed changed
func (interp *Interpreter) ensureCompact() error {
	speed := interp.state.Speed
	if interp.plotter.State().Mode == plotter.ModeCompact {
		if speed == interp.sessionSpeed {
			return nil
		}
		if err := interp.plotter.ExitCompactModeBreak(); err != nil {
			return err
		}
	}
	if err := interp.plotter.EnterCompactMode(speed, 0); err != nil {
		return err
	}
	interp.sessionSpeed = speed
	return nil
}

func (interp *Interpreter) doHome() error {
	if err := interp.plotter.Home(false); err != nil {
		return err
	}
	interp.state.X, interp.state.Y = 0, 0
	interp.offsetX, interp.offsetY = 0, 0
	return nil
}

// doSetPosition redefines the logical position without moving (G92)
func (interp *Interpreter) doSetPosition(cmd *Command) {
	if cmd.HasParameter('X') {
		x := interp.toMils(cmd.GetParameter('X', 0))
		interp.offsetX += interp.state.X - x
		interp.state.X = x
	}
	if cmd.HasParameter('Y') {
		y := cmd.GetParameter('Y', 0)
		if interp.opts.FlipY {
			y = -y
		}
		y = interp.toMils(y)
		interp.offsetY += interp.state.Y - y
		interp.state.Y = y
	}
}

// axis resolves one axis word to a logical position in mils
func (interp *Interpreter) axis(value, current float64) float64 {
	mils := interp.toMils(value)
	if interp.state.Absolute {
		return mils
	}
	return current + mils
}

func (interp *Interpreter) toMils(v float64) float64 {
	if interp.state.Inches {
		return v * milsPerInch
	}
	return v * milsPerMM
}

func (interp *Interpreter) toMM(v float64) float64 {
	if interp.state.Inches {
		return v * 25.4
	}
	return v
}
