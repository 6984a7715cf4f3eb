package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"k40nano/board"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig([]byte(`{"device": "/dev/ttyUSB1"}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Device != "/dev/ttyUSB1" {
		t.Errorf("Expected device /dev/ttyUSB1, got %q", config.Device)
	}
	if config.Board != "" || config.DefaultSpeed != 75 || config.Retries != 5 || config.JogStep != 100 {
		t.Errorf("Defaults not applied: %+v", config)
	}
	if config.Limits() != nil {
		t.Errorf("Expected no limits without a bed")
	}
	if _, err := config.SpeedTable(); !errors.Is(err, board.ErrNoBoard) {
		t.Errorf("Expected ErrNoBoard without a board, got %v", err)
	}

	conn := config.ConnectionConfig()
	if conn.PollInterval != 100*time.Millisecond || conn.Timeout != 300*time.Second {
		t.Errorf("Unexpected connection config %+v", conn)
	}
	if sc := config.SerialConfig("COM3"); sc.Device != "COM3" || sc.Baud != 115200 || sc.ReadTimeout != 100 {
		t.Errorf("Unexpected serial config %+v", sc)
	}
}

func TestLoadConfigValues(t *testing.T) {
	data := []byte(`{
		"board": "LASER-M2",
		"default_speed": 20,
		"bed": {"width_mm": 25.4, "height_mm": 50.8},
		"retries": 2,
		"flip_y": true,
		"jog_step": 250
	}`)
	config, err := LoadConfig(data)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	limits := config.Limits()
	if limits == nil || limits.MaxX != 1000 || limits.MaxY != 2000 {
		t.Errorf("Unexpected limits %+v", limits)
	}
	pc := config.PlotterConfig(nil)
	if pc.DefaultSpeed != 20 || pc.Limits == nil {
		t.Errorf("Unexpected plotter config %+v", pc)
	}
	if !config.FlipY || config.JogStep != 250 || config.ConnectionConfig().Retries != 2 {
		t.Errorf("Values not loaded: %+v", config)
	}
	if _, err := config.SpeedTable(); err != nil {
		t.Errorf("SpeedTable failed: %v", err)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	testCases := []string{
		`{`,
		`{"board": "B1"}`,
		`{"default_speed": -1}`,
		`{"bed": {"width_mm": 0, "height_mm": 10}}`,
		`{"jog_step": -5}`,
	}
	for _, tc := range testCases {
		if _, err := LoadConfig([]byte(tc)); err == nil {
			t.Errorf("%s: expected error", tc)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "k40.json")
	if err := os.WriteFile(path, []byte(`{"monitor_addr": ":8040"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	config, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if config.MonitorAddr != ":8040" {
		t.Errorf("Expected monitor address, got %q", config.MonitorAddr)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for a missing file")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if limits := config.Limits(); limits.MaxX != 11811 || limits.MaxY != 7874 {
		t.Errorf("Unexpected default limits %+v", limits)
	}
}
