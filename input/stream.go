package input

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrWindow reports that a parse needed to keep more bytes buffered
// than the stream's window allows. This is not a syntax error: it means
// the grammar backtracks or looks ahead further than the configured
// window, and the window (or the grammar) needs to change.
var ErrWindow = errors.New("input: lookahead window exceeded")

const (
	defaultWindow = 64 * 1024
	readChunk     = 4 * 1024
)

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithWindow bounds the number of bytes a Stream keeps buffered between
// its earliest live checkpoint and the furthest byte peeked.
func WithWindow(n int) StreamOption {
	return func(s *Stream) {
		s.window = n
	}
}

// Stream is a Source that pulls bytes from an io.Reader on demand and
// keeps only a sliding window of them in memory. Live checkpoints pin
// the window: refilling never drops bytes the earliest one could still
// rewind to. An explicit Discard unpins everything; rewinding across
// one panics.
type Stream struct {
	name   string
	r      io.Reader
	window int

	buf  []byte // buffered bytes; buf[0] is at offset base
	base int
	pos  Position
	prev byte
	eof  bool

	gen   uint64 // bumped by Discard; checkpoints from older epochs are dead
	marks []int  // offsets of live checkpoints, oldest first
}

// NewStream returns a streaming Source over r.
func NewStream(name string, r io.Reader, opts ...StreamOption) *Stream {
	s := &Stream{
		name:   name,
		r:      r,
		window: defaultWindow,
		pos:    Position{Source: name, Line: 1, Column: 1},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenStream opens the named file as a streaming Source. The caller
// owns the returned closer.
func OpenStream(path string, opts ...StreamOption) (*Stream, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return NewStream(path, f, opts...), f, nil
}

func (s *Stream) Name() string { return s.name }

func (s *Stream) Pos() Position { return s.pos }

// low returns the earliest offset that must stay buffered.
func (s *Stream) low() int {
	if len(s.marks) > 0 {
		return s.marks[0]
	}
	return s.pos.Offset
}

// compact releases buffered bytes no live checkpoint can reach.
func (s *Stream) compact() {
	low := s.low()
	if low <= s.base {
		return
	}
	n := copy(s.buf, s.buf[low-s.base:])
	s.buf = s.buf[:n]
	s.base = low
}

func (s *Stream) Peek(n int) ([]byte, error) {
	for s.base+len(s.buf)-s.pos.Offset < n && !s.eof {
		s.compact()
		if s.pos.Offset+n-s.low() > s.window {
			return nil, fmt.Errorf("%w (window %d, need %d)", ErrWindow, s.window, s.pos.Offset+n-s.low())
		}
		if err := s.fill(); err != nil {
			return nil, err
		}
	}
	rest := s.buf[s.pos.Offset-s.base:]
	if len(rest) > n {
		rest = rest[:n]
	}
	return rest, nil
}

// fill reads one chunk from the underlying reader. End of stream is a
// zero-length refill, not an error.
func (s *Stream) fill() error {
	free := s.window - len(s.buf)
	if free > readChunk {
		free = readChunk
	}
	start := len(s.buf)
	s.buf = append(s.buf, make([]byte, free)...)
	n, err := s.r.Read(s.buf[start:])
	s.buf = s.buf[:start+n]
	if err == io.EOF {
		s.eof = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("input %s: read: %w", s.name, err)
	}
	if n == 0 {
		s.eof = true
	}
	return nil
}

func (s *Stream) Advance(n int) {
	from := s.pos.Offset - s.base
	s.pos, s.prev = advance(s.pos, s.prev, s.buf[from:from+n])
}

func (s *Stream) Checkpoint() Checkpoint {
	c := Checkpoint{pos: s.pos, prev: s.prev, gen: s.gen, mark: len(s.marks)}
	s.marks = append(s.marks, s.pos.Offset)
	return c
}

func (s *Stream) Rewind(c Checkpoint) {
	if c.gen != s.gen {
		panic(fmt.Sprintf("input: rewind to offset %d across a discard (window base %d)",
			c.pos.Offset, s.base))
	}
	s.drop(c)
	s.pos = c.pos
	s.prev = c.prev
}

func (s *Stream) Release(c Checkpoint) {
	if c.gen != s.gen {
		// Taken before a discard; there is nothing left to release.
		return
	}
	s.drop(c)
}

// Discard drops every buffered byte behind the cursor and invalidates
// all outstanding checkpoints. The grammar promises that no rewind
// will ever target a position before the cursor again.
func (s *Stream) Discard() {
	s.marks = s.marks[:0]
	s.gen++
	if s.pos.Offset > s.base {
		n := copy(s.buf, s.buf[s.pos.Offset-s.base:])
		s.buf = s.buf[:n]
		s.base = s.pos.Offset
	}
}

// drop removes c and every later checkpoint from the mark stack.
func (s *Stream) drop(c Checkpoint) {
	if c.mark < 0 || c.mark >= len(s.marks) || s.marks[c.mark] != c.pos.Offset {
		panic("input: checkpoint does not belong to this stream")
	}
	s.marks = s.marks[:c.mark]
}

func (s *Stream) Text(c Checkpoint) string {
	if c.gen != s.gen || c.pos.Offset < s.base {
		panic("input: text for a checkpoint invalidated by discard")
	}
	return string(s.buf[c.pos.Offset-s.base : s.pos.Offset-s.base])
}
