package plotter

import (
	"k40nano/protocol"
)

// LaserOn raises the laser. Both LaserOn and LaserOff have always mapped to
// Up on this controller and callers rely on it; use Down to fire.
func (p *Plotter) LaserOn() error {
	return p.Up()
}

// LaserOff raises the laser
func (p *Plotter) LaserOff() error {
	return p.Up()
}

// Down lowers (fires) the laser. Does nothing if it is already down.
func (p *Plotter) Down() error {
	if err := p.ready(); err != nil {
		return err
	}
	if p.state.LaserOn {
		return nil
	}
	p.laserCommand(protocol.CmdOn)
	p.setState(p.state.withLaser(true))
	return p.result()
}

// Up raises the laser. Does nothing if it is already up.
func (p *Plotter) Up() error {
	if err := p.ready(); err != nil {
		return err
	}
	if !p.state.LaserOn {
		return nil
	}
	p.laserCommand(protocol.CmdOff)
	p.setState(p.state.withLaser(false))
	return p.result()
}

// laserCommand wraps cmd in the envelope of the current mode
func (p *Plotter) laserCommand(cmd byte) {
	switch p.state.Mode {
	case ModeDefault:
		p.writeByte(protocol.CmdInterrupt)
		p.writeByte(cmd)
		p.send(protocol.SeqEndCommand)
	case ModeCompact:
		p.writeByte(cmd)
	case ModeConcat:
		p.writeByte(cmd)
		p.writeByte(protocol.CmdNext)
	}
}

// Home sends the head to its origin and zeroes the tracked position.
// Unless aborting, a running compact session is finished first.
func (p *Plotter) Home(abort bool) error {
	if err := p.ready(); err != nil {
		return err
	}
	if !abort {
		p.exitCompactFinish()
	}
	p.send(protocol.SeqHome)
	p.x, p.y = 0, 0
	p.setState(p.state.baseline().withMode(ModeDefault))
	return p.result()
}

// LockRail engages the stepper motors. The mode is left unchanged.
func (p *Plotter) LockRail(abort bool) error {
	return p.railCommand(protocol.SeqLockRail, abort)
}

// UnlockRail releases the stepper motors so the head can be moved by hand
func (p *Plotter) UnlockRail(abort bool) error {
	return p.railCommand(protocol.SeqUnlockRail, abort)
}

func (p *Plotter) railCommand(seq string, abort bool) error {
	if err := p.ready(); err != nil {
		return err
	}
	if !abort {
		p.exitCompactFinish()
	}
	p.send(seq)
	return p.result()
}

// Abort interrupts the controller. Tracked state is left as is; recover
// with Home.
func (p *Plotter) Abort() error {
	if err := p.ready(); err != nil {
		return err
	}
	p.send(string(protocol.CmdInterrupt))
	return p.result()
}
