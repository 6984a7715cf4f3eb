package nano

import (
	"bufio"
	"io"

	"k40nano/plotter"
)

var _ plotter.Transport = (*Capture)(nil)

// Capture is a transport that writes the bare command stream to w instead of
// a board. It is used for dry runs and to save jobs to a file.
type Capture struct {
	w   io.Writer
	buf *bufio.Writer
}

// NewCapture creates a capture transport. If w is an io.Closer it is closed
// with the transport.
func NewCapture(w io.Writer) *Capture {
	return &Capture{w: w}
}

func (c *Capture) Open() error {
	if c.buf == nil {
		c.buf = bufio.NewWriter(c.w)
	}
	return nil
}

func (c *Capture) Close() error {
	if c.buf == nil {
		return nil
	}
	err := c.buf.Flush()
	c.buf = nil
	if closer, ok := c.w.(io.Closer); ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (c *Capture) Write(data []byte) error {
	if c.buf == nil {
		return ErrClosed
	}
	_, err := c.buf.Write(data)
	return err
}

func (c *Capture) Send(data []byte) error {
	return c.Write(data)
}

func (c *Capture) Flush() error {
	if c.buf == nil {
		return ErrClosed
	}
	return c.buf.Flush()
}

// Wait returns immediately, there is no board to wait for
func (c *Capture) Wait() error {
	return c.Flush()
}
