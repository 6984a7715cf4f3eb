// Package plotter encodes drawing operations into the LHYMICRO-GL command
// stream of a K40 Nano laser controller.
//
// The controller is stateful. It can be in one of three transmission modes
// and remembers the last direction, laser and speed it was given; the Plotter
// keeps a ModeState mirroring that and only emits the bytes needed to move
// the controller from its current state to the requested one.
//
// A Plotter is not safe for concurrent use.
package plotter

import (
	"errors"
	"fmt"
	"log"

	"k40nano/board"
	"k40nano/protocol"
)

var (
	ErrNotOpen     = errors.New("plotter is not open")
	ErrOutOfBounds = errors.New("position out of bounds")
)

// DefaultSpeed is the speed in mm/s used when compact mode is entered
// without one and none was declared before
const DefaultSpeed = 75.0

// Transport carries the command stream to the controller
type Transport interface {
	Open() error
	Close() error

	// Write buffers data. The slice is not retained.
	Write(data []byte) error

	// Send writes data and ends the transaction
	Send(data []byte) error

	// Flush transmits anything buffered
	Flush() error

	// Wait blocks until the controller reports the transmitted work complete
	Wait() error
}

// Bounds is an axis aligned rectangle in mils
type Bounds struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Contains reports whether (x, y) lies inside the rectangle, edges included
func (b Bounds) Contains(x, y int) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

func (b *Bounds) include(x, y int) {
	b.MinX = min(b.MinX, x)
	b.MinY = min(b.MinY, y)
	b.MaxX = max(b.MaxX, x)
	b.MaxY = max(b.MaxY, y)
}

// Config holds plotter settings
type Config struct {
	// DefaultSpeed in mm/s, DefaultSpeed constant if zero
	DefaultSpeed float64

	// Limits of the bed. Nil disables the check.
	Limits *Bounds

	// Logger receives mode transitions. Nil disables logging.
	Logger *log.Logger
}

// Plotter is the command encoder for one controller
type Plotter struct {
	board  board.Board
	config Config
	conn   Transport

	state   ModeState
	x, y    int
	extents Bounds

	scratch *protocol.ScratchOutput

	// err is the first transport failure; it sticks until the next Open
	err error
	// boundsErr is the first limit violation of the current call
	boundsErr error
}

// New creates a plotter for the given board
func New(b board.Board, config Config) *Plotter {
	if config.DefaultSpeed <= 0 {
		config.DefaultSpeed = DefaultSpeed
	}
	return &Plotter{
		board:   b,
		config:  config,
		scratch: protocol.NewScratchOutput(),
	}
}

// Open opens the transport and resets the modelled controller state
func (p *Plotter) Open(conn Transport) error {
	if conn == nil {
		return fmt.Errorf("open: nil transport")
	}
	if p.board == nil {
		return fmt.Errorf("open: %w", board.ErrNoBoard)
	}
	if err := conn.Open(); err != nil {
		return fmt.Errorf("open transport: %w", err)
	}
	p.conn = conn
	p.err = nil
	p.boundsErr = nil
	p.state = p.state.baseline().withMode(ModeDefault)
	return nil
}

// Close ends the active mode, flushes and closes the transport.
// Closing a plotter that is not open does nothing.
func (p *Plotter) Close() error {
	if p.conn == nil {
		return nil
	}
	switch p.state.Mode {
	case ModeConcat:
		p.enterCompact(nil, 0, 0)
		p.exitCompactFinish()
	case ModeCompact:
		p.exitCompactFinish()
	}
	p.flush()

	err := p.err
	if cerr := p.conn.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close transport: %w", cerr)
	}
	p.conn = nil
	return err
}

// Position returns the tracked head position in mils
func (p *Plotter) Position() (int, int) {
	return p.x, p.y
}

// State returns the modelled controller state
func (p *Plotter) State() ModeState {
	return p.state
}

// Extents returns the rectangle covered by every position reached so far
func (p *Plotter) Extents() Bounds {
	return p.extents
}

// ready checks that the plotter can issue commands
func (p *Plotter) ready() error {
	if p.conn == nil {
		return ErrNotOpen
	}
	return p.err
}

// result reports the outcome of a public call and clears per-call errors
func (p *Plotter) result() error {
	if p.err != nil {
		return p.err
	}
	err := p.boundsErr
	p.boundsErr = nil
	return err
}

func (p *Plotter) setState(s ModeState) {
	if s.Mode != p.state.Mode && p.config.Logger != nil {
		p.config.Logger.Printf("mode %s -> %s", p.state.Mode, s.Mode)
	}
	p.state = s
}

func (p *Plotter) write(data []byte) {
	if p.err != nil {
		return
	}
	if err := p.conn.Write(data); err != nil {
		p.err = fmt.Errorf("write: %w", err)
	}
}

func (p *Plotter) writeString(s string) {
	p.write([]byte(s))
}

func (p *Plotter) writeByte(c byte) {
	p.write([]byte{c})
}

func (p *Plotter) send(s string) {
	if p.err != nil {
		return
	}
	if err := p.conn.Send([]byte(s)); err != nil {
		p.err = fmt.Errorf("send: %w", err)
	}
}

func (p *Plotter) flush() {
	if p.err != nil {
		return
	}
	if err := p.conn.Flush(); err != nil {
		p.err = fmt.Errorf("flush: %w", err)
	}
}

func (p *Plotter) wait() {
	if p.err != nil {
		return
	}
	if err := p.conn.Wait(); err != nil {
		p.err = fmt.Errorf("wait: %w", err)
	}
}

// writeDistance emits the encoded magnitude of distance
func (p *Plotter) writeDistance(distance int) {
	if distance < 0 {
		distance = -distance
	}
	p.scratch.Reset()
	if err := protocol.EncodeDistanceTo(p.scratch, distance); err != nil {
		if p.err == nil {
			p.err = err
		}
		return
	}
	p.write(p.scratch.Result())
}

// checkBounds records the current position in the extents and against the limits
func (p *Plotter) checkBounds() {
	p.extents.include(p.x, p.y)
	if p.config.Limits == nil || p.boundsErr != nil {
		return
	}
	if !p.config.Limits.Contains(p.x, p.y) {
		p.boundsErr = fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, p.x, p.y)
	}
}
