package serial

import (
	"io"
)

// Port is a byte link to the controller.
// Implementations:
// - NativePort (github.com/tarm/serial)
// - in-memory fakes in tests
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate (the CH341 bridge on the Nano ignores it)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns a default configuration for a K40 Nano board
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
