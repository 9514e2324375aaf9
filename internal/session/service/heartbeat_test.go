package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2023, 6, 14, 8, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return epoch.Add(time.Duration(seconds * float64(time.Second)))
}

func newTestMonitor() *HeartbeatMonitor {
	m := NewHeartbeatMonitor(30*time.Second, epoch)
	n := 0
	m.newTestReqID = func() string {
		n++
		return "TEST-" + string(rune('0'+n))
	}
	return m
}

// drive checks the monitor every second and feeds sends back as outbound traffic.
func drive(m *HeartbeatMonitor, from, to float64) map[float64][]HeartbeatEvent {
	seen := map[float64][]HeartbeatEvent{}
	for s := from; s <= to; s++ {
		events := m.Check(at(s))
		for _, e := range events {
			if e.Kind != EventCounterpartyTimeout {
				m.OnOutbound(at(s))
			}
		}
		if len(events) > 0 {
			seen[s] = events
		}
	}
	return seen
}

func TestHeartbeatMonitor_Liveness(t *testing.T) {
	m := newTestMonitor()

	seen := drive(m, 1, 35)
	require.Len(t, seen, 1, "exactly one event in the first 35 seconds")
	assert.Equal(t, []HeartbeatEvent{{Kind: EventHeartbeat}}, seen[30])

	seen = drive(m, 36, 36)
	assert.Equal(t, []HeartbeatEvent{{Kind: EventTestRequest, TestReqID: "TEST-1"}}, seen[36])

	seen = drive(m, 37, 95)
	for s, events := range seen {
		for _, e := range events {
			assert.Equal(t, EventHeartbeat, e.Kind, "only heartbeats before the timeout, got %v at %v", e.Kind, s)
		}
	}

	seen = drive(m, 96, 96)
	assert.Equal(t, []HeartbeatEvent{{Kind: EventCounterpartyTimeout, TestReqID: "TEST-1"}}, seen[96])

	assert.Empty(t, m.Check(at(200)), "timeout is reported once")
}

func TestHeartbeatMonitor_OutboundResetsHeartbeat(t *testing.T) {
	m := newTestMonitor()
	m.OnInbound(at(20))
	m.OnOutbound(at(20))

	assert.Empty(t, m.Check(at(30)))
	assert.Equal(t, []HeartbeatEvent{{Kind: EventHeartbeat}}, m.Check(at(50)))
}

func TestHeartbeatMonitor_InboundAnswersTestRequest(t *testing.T) {
	m := newTestMonitor()

	events := m.Check(at(36))
	require.Len(t, events, 1)
	assert.Equal(t, EventTestRequest, events[0].Kind)
	m.OnOutbound(at(36))

	id, ok := m.PendingTestRequest()
	assert.True(t, ok)
	assert.Equal(t, "TEST-1", id)

	m.OnInbound(at(40))
	_, ok = m.PendingTestRequest()
	assert.False(t, ok)

	assert.Empty(t, m.Check(at(60)))
	events = m.Check(at(76))
	require.Len(t, events, 1)
	assert.Equal(t, HeartbeatEvent{Kind: EventTestRequest, TestReqID: "TEST-2"}, events[0])
}

func TestHeartbeatMonitor_DefaultTokensAreUnique(t *testing.T) {
	m := NewHeartbeatMonitor(time.Second, epoch)

	first := m.Check(at(2))
	require.Len(t, first, 1)
	m.OnInbound(at(2))
	second := m.Check(at(4))
	require.Len(t, second, 1)

	assert.NotEmpty(t, first[0].TestReqID)
	assert.NotEqual(t, first[0].TestReqID, second[0].TestReqID)
}
