package fix

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEnvelope = Envelope{
	BeginString:  "FIX.4.2",
	SenderCompID: "SENDER",
	TargetCompID: "TARGET",
	MsgSeqNum:    7,
	SendingTime:  time.Date(2023, 6, 14, 8, 11, 12, 930000000, time.UTC),
}

func trailerOffset(t *testing.T, wire []byte) int {
	idx := bytes.LastIndex(wire, []byte{SOH, '1', '0', '='})
	require.True(t, idx > 0, "CheckSum field should be present")
	return idx + 1
}

func fieldStrings(fields []Field) []string {
	out := []string{}
	for _, f := range fields {
		out = append(out, f.String())
	}
	return out
}

func TestChecksumPadding(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"sum of seven", []byte{3, 4}, "007"},
		{"two digits", []byte{40, 2}, "042"},
		{"wraps at 256", []byte{200, 100}, "044"},
		{"empty", nil, "000"},
		{"exactly 255", []byte{255}, "255"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatChecksum(Checksum(tt.input)))
		})
	}
}

func TestChecksumSumsBytesNotRunes(t *testing.T) {
	// "é" is two bytes in UTF-8: 0xC3 0xA9
	assert.Equal(t, (0xC3+0xA9)%256, Checksum([]byte("é")))
}

func TestEncodeHeaderOrder(t *testing.T) {
	wire, err := Encode(MsgTypeLogon, []Field{
		IntField(TagEncryptMethod, 0),
		IntField(TagHeartBtInt, 30),
	}, testEnvelope)
	require.NoError(t, err)

	msg, n, err := NewDecoder().Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, len(wire), n)

	var tags []Tag
	for _, f := range msg.Fields {
		tags = append(tags, f.Tag)
	}
	assert.Equal(t, []Tag{8, 9, 35, 49, 56, 34, 52, 98, 108, 10}, tags)
	assert.Equal(t, byte(SOH), wire[len(wire)-1], "last field must be SOH terminated")
	assert.NotContains(t, string(wire), "|")
}

func TestEncodeBodyLength(t *testing.T) {
	wire, err := Encode("D", []Field{
		NewField(11, "ORD-1"),
		NewField(55, "BTC-30JUN23-30000-C"),
	}, testEnvelope)
	require.NoError(t, err)

	lengthStart := bytes.Index(wire, []byte{SOH, '9', '='}) + 3
	lengthEnd := lengthStart + bytes.IndexByte(wire[lengthStart:], SOH)
	declared, err := strconv.Atoi(string(wire[lengthStart:lengthEnd]))
	require.NoError(t, err)

	assert.Equal(t, trailerOffset(t, wire)-(lengthEnd+1), declared)
}

func TestEncodeChecksum(t *testing.T) {
	wire, err := Encode(MsgTypeHeartbeat, nil, testEnvelope)
	require.NoError(t, err)

	off := trailerOffset(t, wire)
	assert.Equal(t, FormatChecksum(Checksum(wire[:off])), string(wire[off+3:off+6]))
}

func TestEncodePossDup(t *testing.T) {
	env := testEnvelope
	env.PossDup = true
	env.OrigSendingTime = env.SendingTime.Add(-time.Minute)

	wire, err := Encode("D", []Field{NewField(11, "ORD-1")}, env)
	require.NoError(t, err)

	msg, _, err := NewDecoder().Decode(wire)
	require.NoError(t, err)
	assert.True(t, msg.IsPossDup())
	orig, ok := msg.Get(TagOrigSendingTime)
	assert.True(t, ok)
	assert.Equal(t, "20230614-08:10:12.930", orig)
	assert.Equal(t, []Field{NewField(11, "ORD-1")}, msg.Body())
}

func TestEncodeRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name    string
		msgType string
		body    []Field
	}{
		{"empty msg type", "", nil},
		{"soh in value", "D", []Field{{Tag: 58, Value: []byte{'a', SOH, 'b'}}}},
		{"zero tag", "D", []Field{NewField(0, "x")}},
		{"negative tag", "D", []Field{NewField(-1, "x")}},
		{"checksum in body", "D", []Field{NewField(TagCheckSum, "123")}},
		{"body length in body", "D", []Field{NewField(TagBodyLength, "9")}},
		{"seq num in body", "D", []Field{IntField(TagMsgSeqNum, 77)}},
		{"sending time in body", "D", []Field{NewField(TagSendingTime, "x"), NewField(55, "IBM")}},
		{"begin string in body", "D", []Field{NewField(55, "IBM"), NewField(TagBeginString, "FIX.4.4")}},
		{"sender in body", "D", []Field{NewField(TagSenderCompID, "OTHER")}},
		{"target in body", "D", []Field{NewField(TagTargetCompID, "OTHER")}},
		{"msg type in body", "D", []Field{NewField(TagMsgType, "8")}},
		{"poss dup in body", "D", []Field{NewField(TagPossDupFlag, "Y")}},
		{"orig sending time in body", "D", []Field{NewField(TagOrigSendingTime, "x")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.msgType, tt.body, testEnvelope)
			assert.ErrorIs(t, err, ErrInvalidField)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		body []Field
	}{
		{"no body", nil},
		{"simple", []Field{NewField(112, "TEST")}},
		{"value with equals", []Field{NewField(58, "a=b=c"), NewField(11, "x")}},
		{"repeated tags", []Field{NewField(269, "0"), NewField(269, "1"), NewField(269, "2")}},
		{"empty value", []Field{NewField(58, "")}},
		{"binary value", []Field{{Tag: 96, Value: []byte{0x00, 0xff, '=', 0x7f}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := Encode("D", tt.body, testEnvelope)
			require.NoError(t, err)

			msg, n, err := NewDecoder().Decode(wire)
			require.NoError(t, err)
			assert.Equal(t, len(wire), n)
			assert.Equal(t, "D", msg.MsgType())

			seq, err := msg.SeqNum()
			require.NoError(t, err)
			assert.Equal(t, 7, seq)

			off := trailerOffset(t, wire)
			assert.Equal(t, Checksum(wire[:off]), msg.CheckSum)

			assert.Equal(t, fieldStrings(tt.body), fieldStrings(msg.Body()))
			assert.Equal(t, wire, msg.Raw())
		})
	}
}

func TestDecodeIncomplete(t *testing.T) {
	wire, err := Encode(MsgTypeHeartbeat, nil, testEnvelope)
	require.NoError(t, err)

	d := NewDecoder()
	for i := 0; i < len(wire); i++ {
		_, n, err := d.Decode(wire[:i])
		assert.ErrorIs(t, err, ErrIncomplete, "prefix of %d bytes", i)
		assert.Equal(t, 0, n)
	}
}

func TestDecodeUnderPromisedBodyLength(t *testing.T) {
	buf := []byte("8=FIX.4.2\x019=5\x0135=A\x01")

	_, _, err := NewDecoder().Decode(buf)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.False(t, IsGarbled(err))

	// once the trailer arrives the message decodes
	buf = append(buf, []byte("10="+FormatChecksum(Checksum(buf))+"\x01")...)
	msg, n, err := NewDecoder().Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, MsgTypeLogon, msg.MsgType())
}

func TestDecodeConcatenated(t *testing.T) {
	first, err := Encode(MsgTypeHeartbeat, nil, testEnvelope)
	require.NoError(t, err)
	env := testEnvelope
	env.MsgSeqNum = 8
	second, err := Encode(MsgTypeTestRequest, []Field{NewField(TagTestReqID, "abc")}, env)
	require.NoError(t, err)

	buf := append(append([]byte{}, first...), second...)
	buf = append(buf, second[:10]...)

	d := NewDecoder()
	msg, n, err := d.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, MsgTypeHeartbeat, msg.MsgType())
	buf = buf[n:]

	msg, n, err = d.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, MsgTypeTestRequest, msg.MsgType())
	buf = buf[n:]

	_, _, err = d.Decode(buf)
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestDecodeChecksumMismatch(t *testing.T) {
	wire, err := Encode(MsgTypeTestRequest, []Field{NewField(TagTestReqID, "abc")}, testEnvelope)
	require.NoError(t, err)

	corrupted := append([]byte{}, wire...)
	idx := bytes.Index(corrupted, []byte("112=abc"))
	corrupted[idx+4] = 'x'

	_, n, err := NewDecoder().Decode(corrupted)
	require.Error(t, err)
	assert.True(t, IsChecksum(err))
	assert.Equal(t, len(wire), n, "offset is kept so the caller can skip the message")
}

func TestDecodeGarbled(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not begin string", "9=5|35=0|10=000|"},
		{"body length not numeric", "8=FIX.4.2|9=abc|35=0|10=000|"},
		{"body length missing", "8=FIX.4.2|35=0|10=000|"},
		{"checksum not numeric", "8=FIX.4.2|9=5|35=0|10=0a0|"},
		{"checksum misplaced", "8=FIX.4.2|9=3|35=0|10=000|"},
		{"unterminated begin string", "8=FIX.4.2FIX.4.2FIX.4.2FIX.4.2FIX.4.2FIX.4.2"},
		{"body length too large", "8=FIX.4.2|9=999999999|35=0|"},
	}
	d := NewDecoderWithDelimiter('|')
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, n, err := d.Decode([]byte(tt.input))
			assert.True(t, IsGarbled(err), "got %v", err)
			assert.Equal(t, 0, n)
		})
	}
}

func TestDecodeGarbledFields(t *testing.T) {
	withChecksum := func(s string) []byte {
		return []byte(s + "10=" + FormatChecksum(Checksum([]byte(s))) + "|")
	}
	tests := []struct {
		name string
		body string
	}{
		{"missing equals", "35=0|49S|"},
		{"non-numeric tag", "35=0|4x=S|"},
		{"msg type not third", "49=S|35=0|"},
	}
	d := NewDecoderWithDelimiter('|')
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := withChecksum("8=FIX.4.2|9=" + strconv.Itoa(len(tt.body)) + "|" + tt.body)
			_, _, err := d.Decode(buf)
			assert.True(t, IsGarbled(err), "got %v", err)
		})
	}
}

func TestDecodeVisibleDelimiterFixture(t *testing.T) {
	body := "35=0|49=TARGET|56=SENDER|34=1|52=20230614-08:11:12.930|"
	head := "8=FIX.4.2|9=" + strconv.Itoa(len(body)) + "|"
	raw := head + body
	raw += "10=" + FormatChecksum(Checksum([]byte(raw))) + "|"

	msg, n, err := NewDecoderWithDelimiter('|').Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, len(raw), n)
	assert.Equal(t, MsgTypeHeartbeat, msg.MsgType())
	sender, _ := msg.Get(TagSenderCompID)
	assert.Equal(t, "TARGET", sender)
}

func TestResync(t *testing.T) {
	d := NewDecoderWithDelimiter('|')
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"next message", "8=XX|garbage|8=FIX.4.2|9=", 13},
		{"nothing to keep", "garbage", 7},
		{"partial marker", "garbage|8", 8},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Resync([]byte(tt.input)))
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2023, 6, 14, 8, 11, 12, 930000000, time.UTC)

	got, err := ParseTimestamp(FormatTimestamp(want))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = ParseTimestamp("20230614-08:11:12")
	require.NoError(t, err)
	assert.True(t, want.Truncate(time.Second).Equal(got))

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}
