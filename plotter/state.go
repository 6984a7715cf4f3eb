package plotter

import (
	"fmt"

	"k40nano/board"
)

// Mode is the transmission mode the controller is in
type Mode int

const (
	// ModeDefault sends every command as a self-contained locked-rail transaction
	ModeDefault Mode = iota
	// ModeConcat keeps one addressed transaction open, commands end with N
	ModeConcat
	// ModeCompact streams raw direction and distance bytes at a declared speed
	ModeCompact
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeConcat:
		return "concat"
	case ModeCompact:
		return "compact"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ModeState is the plotter's model of the controller's internal state.
// It is a value: transitions build a new ModeState rather than mutating one.
type ModeState struct {
	Mode    Mode
	LaserOn bool
	Left    bool
	Top     bool

	// Speed is the speed declared in the current compact session, nil if none
	Speed *board.SpeedCode
	// Rate is the speed in mm/s Speed was encoded from, zero when the code
	// was supplied already encoded
	Rate float64
	// Step is the harmonic step that came with Speed
	Step int
}

// Harmonic reports whether the declared speed applies step correction
func (s ModeState) Harmonic() bool {
	return s.Speed != nil && s.Speed.Harmonic
}

// Cut reports whether the declared speed is a cut speed
func (s ModeState) Cut() bool {
	return s.Speed != nil && s.Speed.Cut
}

// baseline drops every flag the controller loses on a reset. The mode is kept;
// callers set it explicitly.
func (s ModeState) baseline() ModeState {
	return ModeState{Mode: s.Mode}
}

func (s ModeState) withMode(m Mode) ModeState {
	s.Mode = m
	return s
}

func (s ModeState) withLaser(on bool) ModeState {
	s.LaserOn = on
	return s
}

func (s ModeState) withLeft(left bool) ModeState {
	s.Left = left
	return s
}

func (s ModeState) withTop(top bool) ModeState {
	s.Top = top
	return s
}

func (s ModeState) withSpeed(code board.SpeedCode, rate float64, step int) ModeState {
	code.Bytes = append([]byte(nil), code.Bytes...)
	s.Speed = &code
	s.Rate = rate
	s.Step = step
	return s
}
