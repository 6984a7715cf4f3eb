package plotter

import (
	"k40nano/board"
	"k40nano/protocol"
)

// EnterConcatMode opens an addressed transaction. Only valid from default mode.
func (p *Plotter) EnterConcatMode() error {
	if err := p.ready(); err != nil {
		return err
	}
	p.enterConcat()
	return p.result()
}

// EnterCompactMode switches to compact mode at speed (mm/s). A speed of zero
// keeps the speed declared earlier in the session, or uses the configured
// default. A non-zero harmonicStep requests a raster speed.
func (p *Plotter) EnterCompactMode(speed float64, harmonicStep int) error {
	if err := p.ready(); err != nil {
		return err
	}
	if p.state.Mode == ModeCompact {
		return nil
	}
	var code *board.SpeedCode
	if speed > 0 {
		c := p.board.MakeSpeed(speed, harmonicStep)
		code = &c
	}
	p.enterCompact(code, speed, harmonicStep)
	return p.result()
}

// EnterCompactModeCode is EnterCompactMode with an already encoded speed
func (p *Plotter) EnterCompactModeCode(code board.SpeedCode, harmonicStep int) error {
	if err := p.ready(); err != nil {
		return err
	}
	p.enterCompact(&code, 0, harmonicStep)
	return p.result()
}

// ExitCompactModeFinish ends the compact session and blocks until the
// controller has executed everything sent. Returns to default mode.
func (p *Plotter) ExitCompactModeFinish() error {
	if err := p.ready(); err != nil {
		return err
	}
	p.exitCompactFinish()
	return p.result()
}

// ExitCompactModeReset ends the compact session and resets the controller,
// leaving the transaction open in concat mode.
func (p *Plotter) ExitCompactModeReset() error {
	if err := p.ready(); err != nil {
		return err
	}
	if p.state.Mode == ModeCompact {
		p.writeString(protocol.SeqResetSession)
		p.setState(p.state.baseline().withMode(ModeConcat))
	}
	return p.result()
}

// ExitCompactModeBreak drops back to concat mode without resetting. The
// declared speed and directions stay valid for the next compact session.
func (p *Plotter) ExitCompactModeBreak() error {
	if err := p.ready(); err != nil {
		return err
	}
	if p.state.Mode == ModeCompact {
		p.writeByte(protocol.CmdNext)
		p.setState(p.state.withMode(ModeConcat))
	}
	return p.result()
}

func (p *Plotter) enterConcat() {
	if p.state.Mode == ModeDefault {
		p.writeByte(protocol.CmdInterrupt)
		p.setState(p.state.withMode(ModeConcat))
	}
}

// enterCompact emits the mode switch. requested is nil when the caller did
// not ask for a specific speed; rate is the mm/s it was encoded from, if known.
func (p *Plotter) enterCompact(requested *board.SpeedCode, rate float64, step int) {
	if p.state.Mode == ModeCompact {
		return
	}
	current := p.state
	changing := current.Speed != nil && requested != nil && !current.Speed.Equal(*requested)

	if current.Mode == ModeConcat {
		// The speed cannot be redeclared inside concat, the controller has to
		// be reset first.
		if changing || (current.Cut() && step != 0) || (step == 0 && current.Harmonic()) {
			p.writeString(protocol.SeqHardReset)
			p.setState(current.baseline())
		}
	} else {
		p.enterConcat()
	}

	target := requested
	if target == nil {
		target, rate = p.resolveSpeed(current, step)
	}

	if changing || p.state.Speed == nil {
		p.write(target.Bytes)
	}
	p.setState(p.state.withSpeed(*target, rate, step))

	p.writeByte(protocol.CmdNext)
	p.declareDirections()
	p.writeString(protocol.SeqCompactStart)
	p.setState(p.state.withMode(ModeCompact))
}

// resolveSpeed picks the speed for a compact session entered without one.
// A code that survived the reset is kept. Otherwise the previously declared
// rate, or the default speed, is encoded for step.
func (p *Plotter) resolveSpeed(previous ModeState, step int) (*board.SpeedCode, float64) {
	if p.state.Speed != nil {
		return p.state.Speed, p.state.Rate
	}
	rate := previous.Rate
	if rate <= 0 {
		rate = p.config.DefaultSpeed
	}
	code := p.board.MakeSpeed(rate, step)
	return &code, rate
}

func (p *Plotter) exitCompactFinish() {
	if p.state.Mode != ModeCompact {
		return
	}
	p.writeString(protocol.SeqFinish)
	p.flush()
	p.wait()
	p.setState(p.state.baseline().withMode(ModeDefault))
}

func (p *Plotter) declareDirections() {
	if p.state.Top {
		p.writeByte(protocol.CmdTop)
	} else {
		p.writeByte(protocol.CmdBottom)
	}
	if p.state.Left {
		p.writeByte(protocol.CmdLeft)
	} else {
		p.writeByte(protocol.CmdRight)
	}
}
