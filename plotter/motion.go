package plotter

import (
	"k40nano/protocol"
)

// Move moves the head by (dx, dy) mils relative to the current position.
// Positive x is right, positive y is towards the bottom of the bed.
//
// In default mode the move is one locked-rail transaction. In concat mode the
// axes are moved one after the other. Only compact mode decomposes oblique
// moves into straight and diagonal runs.
func (p *Plotter) Move(dx, dy int) error {
	if err := p.ready(); err != nil {
		return err
	}
	if dx == 0 && dy == 0 {
		return nil
	}
	switch p.state.Mode {
	case ModeDefault:
		p.writeByte(protocol.CmdInterrupt)
		p.moveAxes(dx, dy)
		p.send(protocol.SeqEndCommand)
	case ModeCompact:
		switch {
		case dy == 0:
			p.moveX(dx)
		case dx == 0:
			p.moveY(dy)
		case abs(dx) == abs(dy):
			p.moveAngle(dx, dy)
		default:
			SegmentLine(dx, dy, lineRuns{p})
		}
	case ModeConcat:
		p.moveAxes(dx, dy)
		p.writeByte(protocol.CmdNext)
	}
	p.checkBounds()
	return p.result()
}

// moveAxes moves along each non-zero axis in turn, x first
func (p *Plotter) moveAxes(dx, dy int) {
	if dx != 0 {
		p.moveX(dx)
	}
	if dy != 0 {
		p.moveY(dy)
	}
}

func (p *Plotter) moveX(dx int) {
	if dx > 0 {
		p.moveRight(dx)
	} else {
		p.moveLeft(dx)
	}
}

func (p *Plotter) moveY(dy int) {
	if dy > 0 {
		p.moveBottom(dy)
	} else {
		p.moveTop(dy)
	}
}

// The four primitives below assume the controller is in a state that accepts
// bare direction commands. A zero distance only sets the direction.
//
// With a harmonic speed the controller inserts a step of the harmonic size on
// the perpendicular axis whenever the direction flips; the shadow position
// follows that step and the laser drops. The diagonal length of that step is
// not accounted for.

func (p *Plotter) moveRight(dx int) {
	p.x += abs(dx)
	s := p.state
	if s.Harmonic() && s.Left {
		p.harmonicShiftY()
	}
	p.setState(p.state.withLeft(false))
	p.writeByte(protocol.CmdRight)
	p.moveDistance(dx)
}

func (p *Plotter) moveLeft(dx int) {
	p.x -= abs(dx)
	s := p.state
	if s.Harmonic() && !s.Left {
		p.harmonicShiftY()
	}
	p.setState(p.state.withLeft(true))
	p.writeByte(protocol.CmdLeft)
	p.moveDistance(dx)
}

func (p *Plotter) moveBottom(dy int) {
	p.y += abs(dy)
	s := p.state
	if s.Harmonic() && s.Top {
		p.harmonicShiftX()
	}
	p.setState(p.state.withTop(false))
	p.writeByte(protocol.CmdBottom)
	p.moveDistance(dy)
}

func (p *Plotter) moveTop(dy int) {
	p.y -= abs(dy)
	s := p.state
	if s.Harmonic() && !s.Top {
		p.harmonicShiftX()
	}
	p.setState(p.state.withTop(true))
	p.writeByte(protocol.CmdTop)
	p.moveDistance(dy)
}

func (p *Plotter) harmonicShiftY() {
	if p.state.Top {
		p.y -= p.state.Step
	} else {
		p.y += p.state.Step
	}
	p.setState(p.state.withLaser(false))
}

func (p *Plotter) harmonicShiftX() {
	if p.state.Left {
		p.x -= p.state.Step
	} else {
		p.x += p.state.Step
	}
	p.setState(p.state.withLaser(false))
}

func (p *Plotter) moveDistance(d int) {
	if d != 0 {
		p.writeDistance(d)
		p.checkBounds()
	}
}

// moveAngle moves along a 45 degree diagonal, |dx| must equal |dy|
func (p *Plotter) moveAngle(dx, dy int) {
	s := p.state
	if dx < 0 && !s.Left {
		p.moveLeft(0)
	}
	if dx > 0 && s.Left {
		p.moveRight(0)
	}
	if dy < 0 && !s.Top {
		p.moveTop(0)
	}
	if dy > 0 && s.Top {
		p.moveBottom(0)
	}
	p.x += dx
	p.y += dy
	p.checkBounds()
	p.writeByte(protocol.CmdAngle)
	p.writeDistance(dy)
}

// lineRuns feeds segmented runs back into the motion primitives
type lineRuns struct {
	p *Plotter
}

func (r lineRuns) Straight(axis Axis, n int) {
	if axis == AxisX {
		r.p.moveX(n)
	} else {
		r.p.moveY(n)
	}
}

func (r lineRuns) Diagonal(dx, dy int) {
	r.p.moveAngle(dx, dy)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
