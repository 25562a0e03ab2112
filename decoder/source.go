package decoder

import (
	"io"
)

// Source is the byte source adapter the decoder reads from. Peek may be
// called at most once before the next Next; it must not advance the
// stream. Implementations translate their own end-of-stream/error
// conditions into the io.EOF / wrapped-error convention Next and Peek use
// here — the decoder itself turns those into the appropriate DecodingError
// kind (EndOfStream vs PartialInstruction depends on whether any byte of
// the current instruction has already been consumed, which only the
// decoder, not the source, knows).
type Source interface {
	// Peek returns the next byte without consuming it, or io.EOF.
	Peek() (byte, error)
	// Next consumes and returns the next byte, or io.EOF.
	Next() (byte, error)
}

// readerSource adapts an io.Reader, grounded on the teacher assembler's
// bufio.Scanner-over-os.File pull-based reading in main.go's
// ReadAssemblyFile: buffer at most one byte of lookahead.
type readerSource struct {
	r       io.Reader
	peeked  byte
	hasPeek bool
	buf     [1]byte
}

// NewReaderSource adapts any io.Reader into a decoder.Source.
func NewReaderSource(r io.Reader) Source {
	return &readerSource{r: r}
}

func (s *readerSource) Peek() (byte, error) {
	if s.hasPeek {
		return s.peeked, nil
	}
	n, err := s.r.Read(s.buf[:])
	if n == 1 {
		s.peeked = s.buf[0]
		s.hasPeek = true
		return s.peeked, nil
	}
	if err == nil {
		err = io.EOF
	}
	return 0, err
}

func (s *readerSource) Next() (byte, error) {
	if s.hasPeek {
		s.hasPeek = false
		return s.peeked, nil
	}
	n, err := s.r.Read(s.buf[:])
	if n == 1 {
		return s.buf[0], nil
	}
	if err == nil {
		err = io.EOF
	}
	return 0, err
}

// byteSource is an in-memory Source over a fixed byte slice, used by the
// decoder's own tests.
type byteSource struct {
	data []byte
	pos  int
}

// NewByteSource adapts a byte slice into a decoder.Source.
func NewByteSource(data []byte) Source {
	return &byteSource{data: data}
}

func (s *byteSource) Peek() (byte, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	return s.data[s.pos], nil
}

func (s *byteSource) Next() (byte, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}
