// Package nano carries the plotter's command stream to a K40 Nano board.
//
// The board takes the stream in fixed size packets and acknowledges each one
// through a status exchange: the host writes a hello byte and reads a short
// reply whose second byte is the board status.
package nano

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"k40nano/host/serial"
	"k40nano/plotter"
	"k40nano/protocol"
)

var (
	ErrPacketRejected = errors.New("packet rejected by board")
	ErrTimeout        = errors.New("board did not answer in time")
	ErrPowerCycle     = errors.New("board needs a power cycle")
	ErrClosed         = errors.New("connection closed")
)

var _ plotter.Transport = (*Connection)(nil)

// Config holds connection settings
type Config struct {
	// Retries is how often a packet is resent after a CRC error
	Retries int

	// PollInterval between status requests while the board is busy
	PollInterval time.Duration

	// Timeout bounds a single busy wait, zero means no limit
	Timeout time.Duration

	// OnPacket is called with every packet the board accepted
	OnPacket func(packet []byte)

	// Logger traces packets and status replies. Nil disables tracing.
	Logger *log.Logger
}

// DefaultConfig returns the settings used for real hardware
func DefaultConfig() Config {
	return Config{
		Retries:      5,
		PollInterval: 100 * time.Millisecond,
		Timeout:      5 * time.Minute,
	}
}

// Connection is a packetizing plotter.Transport
type Connection struct {
	open func() (serial.Port, error)
	port serial.Port
	cfg  Config

	pending []byte
	output  *protocol.ScratchOutput
	reply   [protocol.StatusReplySize]byte

	packets int
}

// NewConnection wraps an already opened port. Once closed it cannot be
// reopened.
func NewConnection(port serial.Port, cfg Config) *Connection {
	used := false
	return newConnection(func() (serial.Port, error) {
		if used {
			return nil, ErrClosed
		}
		used = true
		return port, nil
	}, cfg)
}

// Dial returns a connection that opens the serial device on Open
func Dial(serialCfg *serial.Config, cfg Config) *Connection {
	return newConnection(func() (serial.Port, error) {
		return serial.Open(serialCfg)
	}, cfg)
}

func newConnection(open func() (serial.Port, error), cfg Config) *Connection {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Connection{
		open:    open,
		cfg:     cfg,
		pending: make([]byte, 0, protocol.PacketPayloadSize),
		output:  protocol.NewScratchOutput(),
	}
}

// Open opens the port if needed and discards anything left buffered
func (c *Connection) Open() error {
	c.pending = c.pending[:0]
	if c.port != nil {
		return nil
	}
	port, err := c.open()
	if err != nil {
		return err
	}
	c.port = port
	return nil
}

// Close closes the port. Buffered data that was not flushed is dropped.
func (c *Connection) Close() error {
	if c.port == nil {
		return nil
	}
	err := c.port.Close()
	c.port = nil
	c.pending = c.pending[:0]
	return err
}

// Packets returns the number of packets the board accepted
func (c *Connection) Packets() int {
	return c.packets
}

// Write buffers data and transmits every packet that fills up
func (c *Connection) Write(data []byte) error {
	if c.port == nil {
		return ErrClosed
	}
	for len(data) > 0 {
		n := min(protocol.PacketPayloadSize-len(c.pending), len(data))
		c.pending = append(c.pending, data[:n]...)
		data = data[n:]
		if len(c.pending) == protocol.PacketPayloadSize {
			if err := c.transmitPending(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Send writes data and transmits it without waiting for a full packet
func (c *Connection) Send(data []byte) error {
	if err := c.Write(data); err != nil {
		return err
	}
	return c.Flush()
}

// Flush pads and transmits the partially filled packet, if any
func (c *Connection) Flush() error {
	if c.port == nil {
		return ErrClosed
	}
	if len(c.pending) == 0 {
		return nil
	}
	return c.transmitPending()
}

// Wait polls the board until it reports the transmitted work finished
func (c *Connection) Wait() error {
	if err := c.Flush(); err != nil {
		return err
	}
	deadline := c.deadline()
	for {
		status, err := c.status()
		if err != nil {
			return err
		}
		switch status {
		case protocol.StatusFinished:
			return nil
		case protocol.StatusPowerCycle:
			return ErrPowerCycle
		}
		if err := c.pause(deadline); err != nil {
			return fmt.Errorf("wait for finish: %w", err)
		}
	}
}

func (c *Connection) transmitPending() error {
	c.output.Reset()
	if err := protocol.EncodePacketTo(c.output, c.pending); err != nil {
		return err
	}
	c.pending = c.pending[:0]
	return c.transmit(c.output.Result())
}

// transmit writes one packet and runs the status exchange until the board
// accepts it
func (c *Connection) transmit(packet []byte) error {
	resends := 0
	for {
		if _, err := c.port.Write(packet); err != nil {
			return fmt.Errorf("write packet: %w", err)
		}
		if c.cfg.Logger != nil {
			c.cfg.Logger.Printf("packet %q", packet[2:2+protocol.PacketPayloadSize])
		}

		accepted, err := c.acknowledge()
		if err != nil {
			return err
		}
		if accepted {
			c.packets++
			if c.cfg.OnPacket != nil {
				c.cfg.OnPacket(packet)
			}
			return nil
		}

		resends++
		if resends > c.cfg.Retries {
			return fmt.Errorf("%w: %d crc errors", ErrPacketRejected, resends)
		}
	}
}

// acknowledge reads the status after a packet. It reports false when the
// packet has to be resent.
func (c *Connection) acknowledge() (bool, error) {
	deadline := c.deadline()
	for {
		status, err := c.status()
		if err != nil {
			return false, err
		}
		switch status {
		case protocol.StatusOK, protocol.StatusFinished:
			return true, nil
		case protocol.StatusCRCError:
			return false, nil
		case protocol.StatusPowerCycle:
			return false, ErrPowerCycle
		case protocol.StatusBusy:
			if err := c.pause(deadline); err != nil {
				return false, err
			}
		default:
			return false, fmt.Errorf("unknown board status %d", status)
		}
	}
}

// status performs one hello exchange
func (c *Connection) status() (byte, error) {
	if _, err := c.port.Write([]byte{protocol.HelloByte}); err != nil {
		return 0, fmt.Errorf("write hello: %w", err)
	}
	if _, err := io.ReadFull(c.port, c.reply[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return 0, fmt.Errorf("read status: %w", err)
	}
	status := c.reply[protocol.StatusPosition]
	if c.cfg.Logger != nil {
		c.cfg.Logger.Printf("status %d", status)
	}
	return status, nil
}

func (c *Connection) deadline() time.Time {
	if c.cfg.Timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.cfg.Timeout)
}

func (c *Connection) pause(deadline time.Time) error {
	if !deadline.IsZero() && time.Now().After(deadline) {
		return ErrTimeout
	}
	if c.cfg.PollInterval > 0 {
		time.Sleep(c.cfg.PollInterval)
	}
	return nil
}
