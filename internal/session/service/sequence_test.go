package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceManager_NextOutbound(t *testing.T) {
	m := NewSequenceManager(1, 1)

	seen := map[int]bool{}
	prev := 0
	for i := 0; i < 100; i++ {
		seq := m.NextOutbound()
		assert.Equal(t, prev+1, seq, "outbound must increase by one")
		assert.False(t, seen[seq], "sequence %d reused", seq)
		seen[seq] = true
		prev = seq
	}
	assert.Equal(t, 101, m.PeekOutbound())
}

func TestSequenceManager_OnInbound(t *testing.T) {
	tests := []struct {
		name         string
		expected     int
		seq          int
		wantOutcome  Outcome
		wantRange    SeqRange
		wantExpected int
	}{
		{"in order", 3, 3, InOrder, SeqRange{}, 4},
		{"duplicate", 3, 2, Duplicate, SeqRange{}, 3},
		{"gap", 3, 5, Gap, SeqRange{Begin: 3, End: 4}, 3},
		{"single gap", 1, 2, Gap, SeqRange{Begin: 1, End: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewSequenceManager(1, tt.expected)
			outcome, r := m.OnInbound(tt.seq)
			assert.Equal(t, tt.wantOutcome, outcome)
			assert.Equal(t, tt.wantRange, r)
			assert.Equal(t, tt.wantExpected, m.InboundExpected())
		})
	}
}

func TestSequenceManager_Reset(t *testing.T) {
	m := NewSequenceManager(10, 20)

	require.NoError(t, m.Reset(1, 1))
	assert.Equal(t, 1, m.PeekOutbound())
	assert.Equal(t, 1, m.InboundExpected())

	assert.Error(t, m.Reset(0, 1))
	assert.Error(t, m.Reset(1, -4))
}

func TestSequenceManager_ResetInbound(t *testing.T) {
	m := NewSequenceManager(1, 5)

	require.NoError(t, m.ResetInbound(9))
	assert.Equal(t, 9, m.InboundExpected())

	assert.Error(t, m.ResetInbound(3), "expected inbound never decreases")
	assert.Equal(t, 9, m.InboundExpected())
}

func TestSeqRangeContains(t *testing.T) {
	r := SeqRange{Begin: 3, End: 4}
	assert.True(t, r.Contains(3))
	assert.True(t, r.Contains(4))
	assert.False(t, r.Contains(5))
	assert.False(t, r.Contains(2))
}
