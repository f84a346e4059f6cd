package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"REACT", React, true},
		{"nextjs", NextJS, true},
		{" Hono ", Hono, true},
		{"svelte", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseKind(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindFallback(t *testing.T) {
	assert.Equal(t, React, KindOrFallback("unknown"))
	assert.Equal(t, Vue, KindOrFallback("vue"))
	assert.Equal(t, React, Kind("ELM").Resolve())
	assert.True(t, Angular.Known())
	assert.False(t, Kind("ELM").Known())
	assert.Len(t, Kinds(), 6)
}
