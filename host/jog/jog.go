// Package jog moves the head with the arrow keys.
package jog

import (
	"errors"
	"fmt"
	"io"

	"github.com/eiannone/keyboard"
)

var ErrQuit = errors.New("quit")

const (
	MinStep = 1
	MaxStep = 10000
)

// Plotter is the subset of *plotter.Plotter used for jogging
type Plotter interface {
	Move(dx, dy int) error
	Home(abort bool) error
	LockRail(abort bool) error
	UnlockRail(abort bool) error
	Position() (int, int)
}

// Key is one key press as reported by the keyboard package
type Key struct {
	Char rune
	Code keyboard.Key
}

// Jogger maps key presses to plotter commands
type Jogger struct {
	plotter Plotter
	step    int
	out     io.Writer
}

// New creates a jogger moving step mils per press
func New(p Plotter, step int, out io.Writer) *Jogger {
	return &Jogger{plotter: p, step: clampStep(step), out: out}
}

// Step returns the distance moved per press
func (j *Jogger) Step() int {
	return j.step
}

// Handle executes the command bound to k. It returns ErrQuit for Esc and q.
func (j *Jogger) Handle(k Key) error {
	switch k.Code {
	case keyboard.KeyEsc, keyboard.KeyCtrlC:
		return ErrQuit
	case keyboard.KeyArrowUp:
		return j.move(0, -j.step)
	case keyboard.KeyArrowDown:
		return j.move(0, j.step)
	case keyboard.KeyArrowLeft:
		return j.move(-j.step, 0)
	case keyboard.KeyArrowRight:
		return j.move(j.step, 0)
	}

	switch k.Char {
	case 'q':
		return ErrQuit
	case '+', '=':
		j.step = clampStep(j.step * 2)
		fmt.Fprintf(j.out, "step %d mils\n", j.step)
	case '-', '_':
		j.step = clampStep(j.step / 2)
		fmt.Fprintf(j.out, "step %d mils\n", j.step)
	case 'h':
		return j.plotter.Home(false)
	case 'u':
		return j.plotter.UnlockRail(false)
	case 'l':
		return j.plotter.LockRail(false)
	case 'p':
		x, y := j.plotter.Position()
		fmt.Fprintf(j.out, "x=%d y=%d\n", x, y)
	}
	return nil
}

// Run reads keys from the terminal until quit. Command errors are printed.
func (j *Jogger) Run() error {
	if err := keyboard.Open(); err != nil {
		return fmt.Errorf("open keyboard: %w", err)
	}
	defer keyboard.Close()

	fmt.Fprintln(j.out, "Arrows move, +/- step, h home, u unlock, l lock, p position, Esc quits")
	for {
		char, key, err := keyboard.GetKey()
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		err = j.Handle(Key{Char: char, Code: key})
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(j.out, "Error: %v\n", err)
		}
	}
}

func (j *Jogger) move(dx, dy int) error {
	return j.plotter.Move(dx, dy)
}

func clampStep(step int) int {
	return min(max(step, MinStep), MaxStep)
}
