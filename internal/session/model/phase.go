package model

type Phase string

const (
	Disconnected  Phase = "DISCONNECTED"
	LogonPending  Phase = "LOGON_PENDING"
	Active        Phase = "ACTIVE"
	LogoutPending Phase = "LOGOUT_PENDING"
	Terminated    Phase = "TERMINATED"
)

func (p Phase) String() string {
	return string(p)
}

// Phases lists every phase in lifecycle order.
var Phases = []Phase{Disconnected, LogonPending, Active, LogoutPending, Terminated}

type ReasonCode int

const (
	ReasonNone ReasonCode = iota
	ReasonLogoutComplete
	ReasonLocalClose
	ReasonCounterpartyTimeout
	ReasonProtocolViolation
	ReasonGarbledLimit
	ReasonChecksumLimit
	ReasonResendLimit
	ReasonLogonTimeout
	ReasonLogoutTimeout
	ReasonTransportClosed
	ReasonTransportFault
)

var reasonNames = map[ReasonCode]string{
	ReasonNone:                "NONE",
	ReasonLogoutComplete:      "LOGOUT_COMPLETE",
	ReasonLocalClose:          "LOCAL_CLOSE",
	ReasonCounterpartyTimeout: "COUNTERPARTY_TIMEOUT",
	ReasonProtocolViolation:   "PROTOCOL_VIOLATION",
	ReasonGarbledLimit:        "GARBLED_LIMIT",
	ReasonChecksumLimit:       "CHECKSUM_LIMIT",
	ReasonResendLimit:         "RESEND_LIMIT",
	ReasonLogonTimeout:        "LOGON_TIMEOUT",
	ReasonLogoutTimeout:       "LOGOUT_TIMEOUT",
	ReasonTransportClosed:     "TRANSPORT_CLOSED",
	ReasonTransportFault:      "TRANSPORT_FAULT",
}

func (c ReasonCode) String() string {
	if name, ok := reasonNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// TerminationReason is handed to the application on every transition into Terminated.
type TerminationReason struct {
	Code ReasonCode `json:"code"`
	Text string     `json:"text,omitempty"`
}

func (r TerminationReason) String() string {
	if r.Text == "" {
		return r.Code.String()
	}
	return r.Code.String() + ": " + r.Text
}

// Graceful reports whether the session ended through a completed logout or a local close.
func (r TerminationReason) Graceful() bool {
	return r.Code == ReasonLogoutComplete || r.Code == ReasonLocalClose
}
