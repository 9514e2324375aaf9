package service

import (
	"fmt"
	"sync"
)

// Outcome classifies an inbound MsgSeqNum against the expected one.
type Outcome int

const (
	InOrder Outcome = iota
	Duplicate
	Gap
)

func (o Outcome) String() string {
	switch o {
	case InOrder:
		return "IN_ORDER"
	case Duplicate:
		return "DUPLICATE"
	case Gap:
		return "GAP"
	default:
		return "UNKNOWN"
	}
}

// SeqRange is an inclusive range of sequence numbers.
type SeqRange struct {
	Begin int
	End   int
}

func (r SeqRange) Contains(seq int) bool {
	return seq >= r.Begin && seq <= r.End
}

// SequenceManager owns the outbound and expected inbound sequence numbers.
type SequenceManager struct {
	mu              sync.Mutex
	outboundNext    int
	inboundExpected int
}

func NewSequenceManager(outboundNext, inboundExpected int) *SequenceManager {
	if outboundNext < 1 {
		outboundNext = 1
	}
	if inboundExpected < 1 {
		inboundExpected = 1
	}
	return &SequenceManager{outboundNext: outboundNext, inboundExpected: inboundExpected}
}

// NextOutbound returns the number to stamp on the message about to be transmitted.
func (m *SequenceManager) NextOutbound() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	seq := m.outboundNext
	m.outboundNext++
	return seq
}

func (m *SequenceManager) PeekOutbound() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outboundNext
}

func (m *SequenceManager) InboundExpected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inboundExpected
}

// OnInbound advances the expected number only for an in-order message. For a gap the
// returned range holds the missing numbers.
func (m *SequenceManager) OnInbound(seq int) (Outcome, SeqRange) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case seq == m.inboundExpected:
		m.inboundExpected++
		return InOrder, SeqRange{}
	case seq < m.inboundExpected:
		return Duplicate, SeqRange{}
	default:
		return Gap, SeqRange{Begin: m.inboundExpected, End: seq - 1}
	}
}

// Reset overwrites both counters. Only an authenticated Sequence Reset or Logon reset may
// call it.
func (m *SequenceManager) Reset(outboundNext, inboundExpected int) error {
	if outboundNext < 1 || inboundExpected < 1 {
		return fmt.Errorf("invalid sequence reset %d/%d", outboundNext, inboundExpected)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.outboundNext = outboundNext
	m.inboundExpected = inboundExpected
	return nil
}

// ResetInbound moves the expected inbound number forward to newSeq.
func (m *SequenceManager) ResetInbound(newSeq int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if newSeq < m.inboundExpected {
		return fmt.Errorf("NewSeqNo %d lower than expected %d", newSeq, m.inboundExpected)
	}
	m.inboundExpected = newSeq
	return nil
}
