package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferKeepsNewestBytes(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		writes []string
		want   string
	}{
		{"empty", 8, nil, ""},
		{"fits", 8, []string{"abc", "de"}, "abcde"},
		{"exactly full", 4, []string{"abcd"}, "abcd"},
		{"wraps", 4, []string{"abc", "def"}, "cdef"},
		{"single large write", 3, []string{"abcdefg"}, "efg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(tt.size)
			for _, w := range tt.writes {
				n, err := b.Write([]byte(w))
				assert.NoError(t, err)
				assert.Equal(t, len(w), n)
			}
			assert.Equal(t, tt.want, string(b.Bytes()))
			assert.Equal(t, len(tt.want), b.Len())
		})
	}
}

func TestBufferBytesIsNonDestructive(t *testing.T) {
	b := NewBuffer(16)
	b.Write([]byte("hello"))

	assert.Equal(t, "hello", string(b.Bytes()))
	assert.Equal(t, "hello", string(b.Bytes()))

	b.Reset()
	assert.Empty(t, b.Bytes())
	b.Write([]byte("x"))
	assert.Equal(t, "x", string(b.Bytes()))
}
