package fix

import (
	"strconv"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/tag"
)

// SOH is the only field delimiter allowed on compliant wire output.
const SOH byte = 0x01

// Tag is a FIX field number.
type Tag int

const (
	TagBeginSeqNo      = Tag(tag.BeginSeqNo)
	TagBeginString     = Tag(tag.BeginString)
	TagBodyLength      = Tag(tag.BodyLength)
	TagCheckSum        = Tag(tag.CheckSum)
	TagEncryptMethod   = Tag(tag.EncryptMethod)
	TagEndSeqNo        = Tag(tag.EndSeqNo)
	TagGapFillFlag     = Tag(tag.GapFillFlag)
	TagHeartBtInt      = Tag(tag.HeartBtInt)
	TagMsgSeqNum       = Tag(tag.MsgSeqNum)
	TagMsgType         = Tag(tag.MsgType)
	TagNewSeqNo        = Tag(tag.NewSeqNo)
	TagOrigSendingTime = Tag(tag.OrigSendingTime)
	TagPassword        = Tag(tag.Password)
	TagPossDupFlag     = Tag(tag.PossDupFlag)
	TagRefSeqNum       = Tag(tag.RefSeqNum)
	TagResetSeqNumFlag = Tag(tag.ResetSeqNumFlag)
	TagSenderCompID    = Tag(tag.SenderCompID)
	TagSendingTime     = Tag(tag.SendingTime)
	TagTargetCompID    = Tag(tag.TargetCompID)
	TagTestReqID       = Tag(tag.TestReqID)
	TagText            = Tag(tag.Text)
	TagUsername        = Tag(tag.Username)
)

// Session level message types.
const (
	MsgTypeHeartbeat     = string(enum.MsgType_HEARTBEAT)
	MsgTypeTestRequest   = string(enum.MsgType_TEST_REQUEST)
	MsgTypeResendRequest = string(enum.MsgType_RESEND_REQUEST)
	MsgTypeReject        = string(enum.MsgType_REJECT)
	MsgTypeSequenceReset = string(enum.MsgType_SEQUENCE_RESET)
	MsgTypeLogout        = string(enum.MsgType_LOGOUT)
	MsgTypeLogon         = string(enum.MsgType_LOGON)
)

// headerTags are the standard header fields the codec writes itself.
var headerTags = map[Tag]bool{
	TagBeginString:     true,
	TagBodyLength:      true,
	TagMsgType:         true,
	TagSenderCompID:    true,
	TagTargetCompID:    true,
	TagMsgSeqNum:       true,
	TagSendingTime:     true,
	TagPossDupFlag:     true,
	TagOrigSendingTime: true,
}

// IsAdmin reports whether msgType is consumed by the session layer.
func IsAdmin(msgType string) bool {
	switch msgType {
	case MsgTypeHeartbeat, MsgTypeTestRequest, MsgTypeResendRequest,
		MsgTypeReject, MsgTypeSequenceReset, MsgTypeLogout, MsgTypeLogon:
		return true
	}
	return false
}

// Field is one tag=value pair in wire order.
type Field struct {
	Tag   Tag
	Value []byte
}

// NewField builds a field from a string value.
func NewField(t Tag, value string) Field {
	return Field{Tag: t, Value: []byte(value)}
}

// IntField builds a field from an integer value.
func IntField(t Tag, value int) Field {
	return Field{Tag: t, Value: []byte(strconv.Itoa(value))}
}

func (f Field) String() string {
	return strconv.Itoa(int(f.Tag)) + "=" + string(f.Value)
}

// Message is a decoded FIX message. Fields keep their wire order, header and trailer included.
type Message struct {
	Fields     []Field
	BodyLength int
	CheckSum   int

	raw []byte
}

// Raw returns the exact bytes the message was decoded from.
func (m *Message) Raw() []byte {
	return m.raw
}

// Get returns the value of the first field carrying t.
func (m *Message) Get(t Tag) (string, bool) {
	for _, f := range m.Fields {
		if f.Tag == t {
			return string(f.Value), true
		}
	}
	return "", false
}

// GetInt returns the integer value of the first field carrying t.
func (m *Message) GetInt(t Tag) (int, error) {
	v, ok := m.Get(t)
	if !ok {
		return 0, &FieldError{Tag: t, Reason: "required tag missing"}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &FieldError{Tag: t, Reason: "incorrect data format"}
	}
	return n, nil
}

// GetBool treats "Y" as true; a missing field is false.
func (m *Message) GetBool(t Tag) bool {
	v, ok := m.Get(t)
	return ok && v == "Y"
}

// MsgType returns tag 35, or "" when absent.
func (m *Message) MsgType() string {
	v, _ := m.Get(TagMsgType)
	return v
}

// SeqNum returns MsgSeqNum (34).
func (m *Message) SeqNum() (int, error) {
	return m.GetInt(TagMsgSeqNum)
}

// IsPossDup reports whether PossDupFlag (43) is Y.
func (m *Message) IsPossDup() bool {
	return m.GetBool(TagPossDupFlag)
}

// Body returns the fields between the standard header and the CheckSum trailer.
func (m *Message) Body() []Field {
	i := 0
	for i < len(m.Fields) && headerTags[m.Fields[i].Tag] {
		i++
	}
	end := len(m.Fields)
	if end > i && m.Fields[end-1].Tag == TagCheckSum {
		end--
	}
	return m.Fields[i:end]
}

// String renders the message with '|' in place of SOH, for logs.
func (m *Message) String() string {
	b := make([]byte, 0, len(m.raw))
	for _, f := range m.Fields {
		b = append(b, f.String()...)
		b = append(b, '|')
	}
	return string(b)
}
