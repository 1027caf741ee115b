package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to AnalysisStatus
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusComplete, true},
		{StatusProcessing, StatusFailed, true},
		{StatusFailed, StatusProcessing, true},

		{StatusPending, StatusComplete, false},
		{StatusPending, StatusFailed, false},
		{StatusComplete, StatusProcessing, false},
		{StatusComplete, StatusFailed, false},
		{StatusFailed, StatusComplete, false},
		{StatusProcessing, StatusPending, false},
		{StatusComplete, StatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.True(t, StatusComplete.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}
