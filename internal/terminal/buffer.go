package terminal

import "sync"

// Buffer is a thread-safe circular buffer for terminal output. Once full,
// the oldest bytes are overwritten.
type Buffer struct {
	data []byte
	size int
	head int
	len  int
	mu   sync.RWMutex
}

// NewBuffer creates a new circular buffer
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = 1
	}
	return &Buffer{
		data: make([]byte, size),
		size: size,
	}
}

// Write appends p, discarding the oldest bytes when full
func (b *Buffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range p {
		tail := (b.head + b.len) % b.size
		b.data[tail] = c
		if b.len < b.size {
			b.len++
		} else {
			b.head = (b.head + 1) % b.size
		}
	}

	return len(p), nil
}

// Bytes returns a copy of the buffered data, oldest first
func (b *Buffer) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]byte, b.len)
	if b.head+b.len <= b.size {
		copy(result, b.data[b.head:b.head+b.len])
		return result
	}

	// Buffer wrapped around
	n := copy(result, b.data[b.head:])
	copy(result[n:], b.data[:b.len-n])
	return result
}

// Len returns the number of buffered bytes
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.len
}

// Reset discards all buffered data
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.len = 0
}
