package protocol

// OutputBuffer provides an abstraction for writing outgoing command data
type OutputBuffer interface {
	// Output writes data to the buffer
	Output(data []byte)

	// CurPosition returns the current write position
	CurPosition() int

	// DataSince returns data from a specific position to current
	DataSince(pos int) []byte
}

// ScratchOutput implements OutputBuffer using a growable scratch buffer
type ScratchOutput struct {
	buf []byte
}

// NewScratchOutput creates a new ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{buf: make([]byte, 0, PacketPayloadSize)}
}

func (s *ScratchOutput) Output(data []byte) {
	s.buf = append(s.buf, data...)
}

func (s *ScratchOutput) CurPosition() int {
	return len(s.buf)
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > len(s.buf) {
		return nil
	}
	return s.buf[pos:]
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.buf = s.buf[:0]
}
