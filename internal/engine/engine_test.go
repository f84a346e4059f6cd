package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalSizeValidate(t *testing.T) {
	tests := []struct {
		name string
		size TerminalSize
		ok   bool
	}{
		{"typical", TerminalSize{Cols: 80, Rows: 24}, true},
		{"smallest", TerminalSize{Cols: 1, Rows: 1}, true},
		{"largest", TerminalSize{Cols: MaxTerminalDimension, Rows: MaxTerminalDimension}, true},
		{"zero cols", TerminalSize{Cols: 0, Rows: 24}, false},
		{"negative rows", TerminalSize{Cols: 80, Rows: -1}, false},
		{"cols past bound", TerminalSize{Cols: MaxTerminalDimension + 1, Rows: 24}, false},
		{"cols past uint16", TerminalSize{Cols: 65636, Rows: 24}, false},
		{"huge grid", TerminalSize{Cols: 100000, Rows: 100000}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.size.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSize)
			}
		})
	}
}
