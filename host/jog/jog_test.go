package jog

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/eiannone/keyboard"
)

type fakePlotter struct {
	x, y  int
	calls []string
}

func (f *fakePlotter) Move(dx, dy int) error {
	f.x += dx
	f.y += dy
	f.calls = append(f.calls, "move")
	return nil
}

func (f *fakePlotter) Home(abort bool) error {
	f.x, f.y = 0, 0
	f.calls = append(f.calls, "home")
	return nil
}

func (f *fakePlotter) LockRail(abort bool) error {
	f.calls = append(f.calls, "lock")
	return nil
}

func (f *fakePlotter) UnlockRail(abort bool) error {
	f.calls = append(f.calls, "unlock")
	return nil
}

func (f *fakePlotter) Position() (int, int) {
	return f.x, f.y
}

func TestArrowKeys(t *testing.T) {
	p := &fakePlotter{}
	j := New(p, 50, &bytes.Buffer{})

	keys := []keyboard.Key{keyboard.KeyArrowRight, keyboard.KeyArrowRight, keyboard.KeyArrowDown, keyboard.KeyArrowLeft, keyboard.KeyArrowUp, keyboard.KeyArrowUp}
	for _, k := range keys {
		if err := j.Handle(Key{Code: k}); err != nil {
			t.Fatal(err)
		}
	}
	if p.x != 50 || p.y != -50 {
		t.Errorf("Expected (50, -50), got (%d, %d)", p.x, p.y)
	}
}

func TestStepChanges(t *testing.T) {
	var out bytes.Buffer
	j := New(&fakePlotter{}, 100, &out)

	j.Handle(Key{Char: '+'})
	if j.Step() != 200 {
		t.Errorf("Expected 200, got %d", j.Step())
	}
	for i := 0; i < 20; i++ {
		j.Handle(Key{Char: '-'})
	}
	if j.Step() != MinStep {
		t.Errorf("Expected step clamped to %d, got %d", MinStep, j.Step())
	}
	if !strings.Contains(out.String(), "step 200 mils") {
		t.Errorf("Expected step report, got %q", out.String())
	}

	if New(&fakePlotter{}, 0, &out).Step() != MinStep {
		t.Error("Zero step should be clamped")
	}
}

func TestCommandKeys(t *testing.T) {
	p := &fakePlotter{x: 10}
	var out bytes.Buffer
	j := New(p, 10, &out)

	for _, c := range []rune{'p', 'u', 'l', 'h', 'z'} {
		if err := j.Handle(Key{Char: c}); err != nil {
			t.Fatal(err)
		}
	}
	if strings.Join(p.calls, ",") != "unlock,lock,home" {
		t.Errorf("Unexpected calls %v", p.calls)
	}
	if !strings.Contains(out.String(), "x=10 y=0") {
		t.Errorf("Expected position report, got %q", out.String())
	}

	for _, k := range []Key{{Code: keyboard.KeyEsc}, {Char: 'q'}, {Code: keyboard.KeyCtrlC}} {
		if err := j.Handle(k); !errors.Is(err, ErrQuit) {
			t.Errorf("%+v: expected ErrQuit, got %v", k, err)
		}
	}
}
