// Package input provides the byte sources a parse runs against.
//
// A Source owns the bytes being matched and the cursor position within
// them. Matching code never touches storage directly: it peeks at
// upcoming bytes, advances over consumed ones, and uses checkpoints to
// back out of failed attempts.
//
// Two implementations share the contract: Buffer holds the whole input
// in memory, Stream keeps a bounded sliding window over an io.Reader
// and refills it on demand.
package input

import "fmt"

// Position is a location in a source.
type Position struct {
	Source string // source name, e.g. a file path
	Offset int    // byte offset from the start of the input
	Line   int    // 1-based line number
	Column int    // 1-based column, counted in bytes
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Source, p.Line, p.Column)
}

// Span is a half-open byte range [Start, End) in a source.
type Span struct {
	Start Position
	End   Position
}

// Checkpoint is a restorable snapshot of a Source's cursor. It is only
// valid on the Source that issued it, and only until the bytes between
// the checkpoint and the cursor have been discarded.
type Checkpoint struct {
	pos  Position
	prev byte   // byte before pos, for CRLF accounting across a rewind
	gen  uint64 // discard epoch of the issuing Stream; 0 for Buffer
	mark int    // index into the issuing Stream's mark stack; -1 for Buffer
}

// Pos returns the position the checkpoint was taken at.
func (c Checkpoint) Pos() Position { return c.pos }

// Source is the cursor contract the matching code runs against.
//
// Checkpoints follow a stack discipline: every Checkpoint call must be
// paired with exactly one Rewind or Release, and pairs nest. Rewinding
// to a checkpoint whose bytes a Stream has already discarded is a bug
// in the caller and panics.
type Source interface {
	// Name returns the source name used in positions and diagnostics.
	Name() string

	// Pos returns the current cursor position.
	Pos() Position

	// Peek returns the next n bytes without consuming them. It
	// returns fewer than n bytes only at end of input. The returned
	// slice is valid until the next Peek, Advance, or Rewind. A
	// non-nil error means the underlying producer failed, or a
	// Stream's window bound was exceeded; both are fatal.
	Peek(n int) ([]byte, error)

	// Advance consumes n bytes. The bytes must have been returned by
	// a previous Peek. Line and column accounting: a CR or an LF ends
	// a line, except that an LF immediately following a CR is part of
	// the same CRLF terminator and does not count again; every other
	// byte advances the column by one.
	Advance(n int)

	// Checkpoint snapshots the cursor in O(1).
	Checkpoint() Checkpoint

	// Rewind restores the cursor to c and drops c along with any
	// checkpoints taken after it.
	Rewind(c Checkpoint)

	// Release drops c (and any later checkpoints) without moving the
	// cursor, allowing a Stream to discard bytes before the cursor.
	// Releasing a checkpoint invalidated by Discard is a no-op.
	Release(c Checkpoint)

	// Discard drops every buffered byte behind the cursor and
	// invalidates all outstanding checkpoints. The caller promises
	// that no rewind will ever target a position before the cursor
	// again; a Buffer treats this as a no-op.
	Discard()

	// Text returns the bytes between c and the current cursor. Valid
	// only while c is live.
	Text(c Checkpoint) string
}

// advance updates a position over the bytes in b, applying the line
// terminator convention documented on Source.Advance. prev is the byte
// consumed immediately before b (0 at the start of input); the updated
// last byte is returned so CRLF pairs split across calls count once.
func advance(p Position, prev byte, b []byte) (Position, byte) {
	for _, ch := range b {
		p.Offset++
		switch {
		case ch == '\r':
			p.Line++
			p.Column = 1
		case ch == '\n' && prev == '\r':
			// second half of a CRLF, already counted
		case ch == '\n':
			p.Line++
			p.Column = 1
		default:
			p.Column++
		}
		prev = ch
	}
	return p, prev
}
