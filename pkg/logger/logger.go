package logger

import (
	"bytes"
	"io"
	"sync"
)

// Buffer is an append-only, line-oriented log sink safe for concurrent use.
// Partial writes are held until a newline arrives.
type Buffer struct {
	mu      sync.Mutex
	lines   []string
	pending bytes.Buffer
}

var _ io.Writer = (*Buffer)(nil)

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Write appends p, splitting it into lines.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending.Write(p)
	for {
		data := b.pending.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		b.lines = append(b.lines, string(data[:idx]))
		b.pending.Next(idx + 1)
	}
	return len(p), nil
}

// Lines returns a copy of every complete line written so far.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Since returns the lines after the first offset lines together with the
// offset to pass on the next call.
func (b *Buffer) Since(offset int) ([]string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(b.lines) {
		return nil, len(b.lines)
	}
	out := make([]string, len(b.lines)-offset)
	copy(out, b.lines[offset:])
	return out, len(b.lines)
}
