package service

import (
	"time"

	"github.com/google/uuid"
)

type EventKind int

const (
	EventHeartbeat EventKind = iota
	EventTestRequest
	EventCounterpartyTimeout
)

func (k EventKind) String() string {
	switch k {
	case EventHeartbeat:
		return "HEARTBEAT"
	case EventTestRequest:
		return "TEST_REQUEST"
	case EventCounterpartyTimeout:
		return "COUNTERPARTY_TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// HeartbeatEvent is raised by the monitor for the session to act on.
type HeartbeatEvent struct {
	Kind      EventKind
	TestReqID string
}

// HeartbeatMonitor tracks outbound and inbound silence. It never writes to the transport;
// Check only reports what is due.
type HeartbeatMonitor struct {
	interval         time.Duration
	testRequestDelay time.Duration
	timeout          time.Duration

	lastInbound  time.Time
	lastOutbound time.Time

	pendingTestReqID string
	testReqSentAt    time.Time
	timedOut         bool

	newTestReqID func() string
}

// NewHeartbeatMonitor uses a Test Request delay of 1.2 intervals and declares the
// counterparty dead 2 intervals after an unanswered Test Request.
func NewHeartbeatMonitor(interval time.Duration, now time.Time) *HeartbeatMonitor {
	return &HeartbeatMonitor{
		interval:         interval,
		testRequestDelay: interval + interval/5,
		timeout:          2 * interval,
		lastInbound:      now,
		lastOutbound:     now,
		newTestReqID:     uuid.NewString,
	}
}

func (m *HeartbeatMonitor) Interval() time.Duration {
	return m.interval
}

// OnInbound records traffic of any type from the counterparty.
func (m *HeartbeatMonitor) OnInbound(now time.Time) {
	m.lastInbound = now
	m.pendingTestReqID = ""
	m.timedOut = false
}

func (m *HeartbeatMonitor) OnOutbound(now time.Time) {
	m.lastOutbound = now
}

// PendingTestRequest returns the token of the unanswered Test Request, if any.
func (m *HeartbeatMonitor) PendingTestRequest() (string, bool) {
	return m.pendingTestReqID, m.pendingTestReqID != ""
}

// Check returns the events due at now. A Test Request counts as outbound traffic, so no
// Heartbeat is reported alongside one. The timeout event is reported once.
func (m *HeartbeatMonitor) Check(now time.Time) []HeartbeatEvent {
	if m.timedOut {
		return nil
	}

	if m.pendingTestReqID != "" {
		if now.Sub(m.testReqSentAt) >= m.timeout {
			m.timedOut = true
			return []HeartbeatEvent{{Kind: EventCounterpartyTimeout, TestReqID: m.pendingTestReqID}}
		}
	} else if now.Sub(m.lastInbound) >= m.testRequestDelay {
		m.pendingTestReqID = m.newTestReqID()
		m.testReqSentAt = now
		return []HeartbeatEvent{{Kind: EventTestRequest, TestReqID: m.pendingTestReqID}}
	}

	if now.Sub(m.lastOutbound) >= m.interval {
		return []HeartbeatEvent{{Kind: EventHeartbeat}}
	}
	return nil
}
