package input

import (
	"fmt"
	"os"
)

// Buffer is a Source over bytes that are entirely in memory. It never
// copies or discards storage, so checkpoints are plain position
// snapshots and always stay valid.
type Buffer struct {
	name string
	data []byte
	pos  Position
	prev byte
}

// NewBuffer returns a Source over data. The slice is not copied; the
// caller must not mutate it while parsing.
func NewBuffer(name string, data []byte) *Buffer {
	return &Buffer{
		name: name,
		data: data,
		pos:  Position{Source: name, Line: 1, Column: 1},
	}
}

// NewString returns a Source over s.
func NewString(name, s string) *Buffer {
	return NewBuffer(name, []byte(s))
}

// NewFile reads the named file fully into memory and returns a Source
// over its contents.
func NewFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return NewBuffer(path, data), nil
}

func (b *Buffer) Name() string { return b.name }

func (b *Buffer) Pos() Position { return b.pos }

func (b *Buffer) Peek(n int) ([]byte, error) {
	rest := b.data[b.pos.Offset:]
	if len(rest) > n {
		rest = rest[:n]
	}
	return rest, nil
}

func (b *Buffer) Advance(n int) {
	end := b.pos.Offset + n
	b.pos, b.prev = advance(b.pos, b.prev, b.data[b.pos.Offset:end])
}

func (b *Buffer) Checkpoint() Checkpoint {
	return Checkpoint{pos: b.pos, prev: b.prev, mark: -1}
}

func (b *Buffer) Rewind(c Checkpoint) {
	if c.mark != -1 {
		panic("input: rewind with a checkpoint from a different source")
	}
	b.pos = c.pos
	b.prev = c.prev
}

func (b *Buffer) Release(Checkpoint) {}

func (b *Buffer) Discard() {}

func (b *Buffer) Text(c Checkpoint) string {
	return string(b.data[c.pos.Offset:b.pos.Offset])
}
