package model

// Status is a point-in-time view of a session for operators.
type Status struct {
	SessionID       string             `json:"sessionId"`
	Phase           Phase              `json:"phase"`
	NextOutbound    int                `json:"nextOutbound"`
	InboundExpected int                `json:"inboundExpected"`
	PendingResend   []int              `json:"pendingResend,omitempty"`
	Buffered        int                `json:"buffered"`
	Reason          *TerminationReason `json:"reason,omitempty"`
}
