package plotter

import (
	"errors"
	"testing"
)

func TestLaserDownUp(t *testing.T) {
	p, conn := openPlotter(t, Config{})

	mustDo(t, p.LaserOff())
	if conn.stream.Len() != 0 {
		t.Errorf("LaserOff with the laser up should do nothing, got %q", conn.take())
	}

	mustDo(t, p.Down())
	if got := conn.take(); got != "IDS1P" {
		t.Errorf("Expected IDS1P, got %q", got)
	}
	mustDo(t, p.Down())
	if conn.stream.Len() != 0 {
		t.Errorf("Second Down should do nothing, got %q", conn.take())
	}

	// LaserOn raises the laser
	mustDo(t, p.LaserOn())
	if got := conn.take(); got != "IUS1P" {
		t.Errorf("Expected IUS1P, got %q", got)
	}
	if p.State().LaserOn {
		t.Error("Laser should be up")
	}
}

func TestLaserEnvelopes(t *testing.T) {
	p, conn := openPlotter(t, Config{})
	mustDo(t, p.EnterConcatMode())
	conn.take()
	mustDo(t, p.Down())
	if got := conn.take(); got != "DN" {
		t.Errorf("Concat down: expected DN, got %q", got)
	}

	mustDo(t, p.EnterCompactMode(30, 0))
	conn.take()
	mustDo(t, p.Up())
	mustDo(t, p.Down())
	if got := conn.take(); got != "UD" {
		t.Errorf("Compact up/down: expected UD, got %q", got)
	}
}

func TestHome(t *testing.T) {
	p, conn := openPlotter(t, Config{})
	mustDo(t, p.EnterCompactMode(30, 0))
	mustDo(t, p.Move(40, 40))
	conn.take()

	mustDo(t, p.Home(false))
	if got := conn.take(); got != "FNSE"+"IPP" {
		t.Errorf("Expected FNSEIPP, got %q", got)
	}
	if x, y := p.Position(); x != 0 || y != 0 {
		t.Errorf("Home should zero the position, got (%d, %d)", x, y)
	}
	if s := p.State(); s.Mode != ModeDefault || s.Speed != nil {
		t.Errorf("Home should leave a clean default state, got %+v", s)
	}

	// Aborting skips the finish
	mustDo(t, p.EnterCompactMode(30, 0))
	conn.take()
	waits := conn.waits
	mustDo(t, p.Home(true))
	if got := conn.take(); got != "IPP" {
		t.Errorf("Expected IPP, got %q", got)
	}
	if conn.waits != waits {
		t.Error("Aborted home should not wait")
	}
}

func TestRailCommands(t *testing.T) {
	p, conn := openPlotter(t, Config{})

	mustDo(t, p.UnlockRail(false))
	mustDo(t, p.LockRail(false))
	if got := conn.take(); got != "IPS2P"+"IPS1P" {
		t.Errorf("Unexpected rail stream %q", got)
	}
	if last := conn.ops[len(conn.ops)-1]; last != "send:IPS1P" {
		t.Errorf("Rail commands should be sent, got %q", last)
	}

	mustDo(t, p.EnterCompactMode(30, 0))
	conn.take()
	mustDo(t, p.UnlockRail(true))
	if got := conn.take(); got != "IPS2P" {
		t.Errorf("Aborted unlock should not finish, got %q", got)
	}
	if p.State().Mode != ModeCompact {
		t.Errorf("Aborted unlock should leave the mode, got %s", p.State().Mode)
	}
}

func TestAbort(t *testing.T) {
	p, conn := openPlotter(t, Config{})
	mustDo(t, p.EnterCompactMode(30, 0))
	mustDo(t, p.Move(10, 0))
	before := p.State()
	conn.take()

	mustDo(t, p.Abort())
	if got := conn.take(); got != "I" {
		t.Errorf("Expected I, got %q", got)
	}
	if p.State().Mode != before.Mode {
		t.Error("Abort should not touch the tracked state")
	}
}

func TestHarmonicShadowPosition(t *testing.T) {
	p, _ := openPlotter(t, Config{})
	mustDo(t, p.EnterCompactMode(30, 5))
	mustDo(t, p.Down())

	mustDo(t, p.Move(10, 0))
	if x, y := p.Position(); x != 10 || y != 0 {
		t.Fatalf("Expected (10, 0), got (%d, %d)", x, y)
	}

	// Reversing x steps y towards the bottom and drops the laser
	mustDo(t, p.Move(-10, 0))
	if x, y := p.Position(); x != 0 || y != 5 {
		t.Errorf("Expected (0, 5), got (%d, %d)", x, y)
	}
	if p.State().LaserOn {
		t.Error("Direction flip should drop the laser")
	}

	// Reversing y while heading left steps x to the left
	mustDo(t, p.Move(0, -10))
	if x, y := p.Position(); x != -5 || y != -5 {
		t.Errorf("Expected (-5, -5), got (%d, %d)", x, y)
	}
}

func TestBoundsAndExtents(t *testing.T) {
	limits := &Bounds{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	p, conn := openPlotter(t, Config{Limits: limits})

	mustDo(t, p.Move(50, 80))
	err := p.Move(-60, 0)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("Expected ErrOutOfBounds, got %v", err)
	}
	if conn.stream.Len() == 0 {
		t.Error("Out of bounds move should still be emitted")
	}

	// Not sticky
	mustDo(t, p.Move(60, 0))

	ext := p.Extents()
	if ext.MinX != -10 || ext.MaxX != 50 || ext.MaxY != 80 {
		t.Errorf("Unexpected extents %+v", ext)
	}
}
