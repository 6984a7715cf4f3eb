// Package board provides the speed tables of the supported LHYMICRO-GL boards.
//
// A speed table turns a head speed in mm/s and a raster step into the opaque
// speed command the board expects. The plotter needs to know whether that
// command switches the board into harmonic (raster step) or cut behaviour.
// Historically this was signalled by marker characters inside the command;
// SpeedCode carries it explicitly and ParseSpeedCode is the single place that
// still derives it from the markers.
package board

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"k40nano/protocol"
)

// ErrNoBoard is returned when no speed table was selected
var ErrNoBoard = errors.New("no board selected")

// SpeedCode is an encoded speed command together with the behaviour it implies
type SpeedCode struct {
	Bytes    []byte
	Harmonic bool // board applies a step correction on every direction change
	Cut      bool // vector cut speed
}

// Equal reports whether both codes encode the same command
func (c SpeedCode) Equal(o SpeedCode) bool {
	return bytes.Equal(c.Bytes, o.Bytes)
}

func (c SpeedCode) String() string {
	return string(c.Bytes)
}

// Board converts speeds into speed commands
type Board interface {
	MakeSpeed(speed float64, step int) SpeedCode
}

// ParseSpeedCode derives the harmonic and cut flags from the marker
// characters embedded in a raw speed command.
func ParseSpeedCode(code []byte) SpeedCode {
	return SpeedCode{
		Bytes:    code,
		Harmonic: bytes.IndexByte(code, protocol.CmdStep) >= 0,
		Cut:      bytes.IndexByte(code, protocol.CmdCut) >= 0,
	}
}

// Func adapts a speed table that only returns raw command bytes
type Func func(speed float64, step int) []byte

// MakeSpeed implements Board
func (f Func) MakeSpeed(speed float64, step int) SpeedCode {
	return ParseSpeedCode(f(speed, step))
}

// ByName returns the speed table for a board name such as "M2" or "LASER-M2".
// There is no default board; an empty name is ErrNoBoard.
func ByName(name string) (Board, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "LASER-")
	switch n {
	case "":
		return nil, ErrNoBoard
	case "M2":
		return NewM2(), nil
	}
	return nil, fmt.Errorf("unsupported board: %q", name)
}
