package fix

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// TimestampFormat is the UTCTimestamp layout used for SendingTime and OrigSendingTime.
const TimestampFormat = "20060102-15:04:05.000"

// trailerLen is the size of "10=nnn" plus its delimiter.
const trailerLen = 7

// maxHeaderValueLen bounds how far the decoder scans for the end of BeginString or
// BodyLength before it gives up on the buffer.
const maxHeaderValueLen = 32

// MaxBodyLength is the largest BodyLength the decoder waits for before treating the
// header as garbage.
const MaxBodyLength = 1 << 20

var (
	beginStringPrefix = []byte("8=")
	bodyLengthPrefix  = []byte("9=")
	checkSumPrefix    = []byte("10=")
)

// Envelope carries the standard header values stamped on every outbound message.
type Envelope struct {
	BeginString  string
	SenderCompID string
	TargetCompID string
	MsgSeqNum    int
	SendingTime  time.Time

	// PossDup marks a retransmission; OrigSendingTime is written alongside it.
	PossDup         bool
	OrigSendingTime time.Time
}

// Checksum is the sum of the bytes of b modulo 256.
func Checksum(b []byte) int {
	var sum int
	for _, c := range b {
		sum += int(c)
	}
	return sum % 256
}

// FormatChecksum renders n as the three digit CheckSum value.
func FormatChecksum(n int) string {
	return fmt.Sprintf("%03d", n%256)
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// ParseTimestamp reads a UTCTimestamp with or without milliseconds.
func ParseTimestamp(v string) (time.Time, error) {
	if t, err := time.Parse(TimestampFormat, v); err == nil {
		return t, nil
	}
	return time.Parse("20060102-15:04:05", v)
}

// Encode builds the full wire form of a message. BodyLength and CheckSum are always derived
// from the assembled bytes.
func Encode(msgType string, body []Field, env Envelope) ([]byte, error) {
	if msgType == "" {
		return nil, fmt.Errorf("%w: empty MsgType", ErrInvalidField)
	}
	if env.BeginString == "" {
		return nil, fmt.Errorf("%w: empty BeginString", ErrInvalidField)
	}
	for _, v := range []string{msgType, env.BeginString, env.SenderCompID, env.TargetCompID} {
		if containsDelimiter([]byte(v)) {
			return nil, fmt.Errorf("%w: header value contains SOH", ErrInvalidField)
		}
	}

	var b bytes.Buffer
	appendField(&b, TagMsgType, []byte(msgType))
	appendField(&b, TagSenderCompID, []byte(env.SenderCompID))
	appendField(&b, TagTargetCompID, []byte(env.TargetCompID))
	appendField(&b, TagMsgSeqNum, []byte(strconv.Itoa(env.MsgSeqNum)))
	appendField(&b, TagSendingTime, []byte(FormatTimestamp(env.SendingTime)))
	if env.PossDup {
		appendField(&b, TagPossDupFlag, []byte("Y"))
		if !env.OrigSendingTime.IsZero() {
			appendField(&b, TagOrigSendingTime, []byte(FormatTimestamp(env.OrigSendingTime)))
		}
	}
	for _, f := range body {
		if f.Tag <= 0 {
			return nil, fmt.Errorf("%w: tag %d", ErrInvalidField, f.Tag)
		}
		if headerTags[f.Tag] || f.Tag == TagCheckSum {
			return nil, fmt.Errorf("%w: tag %d is written by the codec", ErrInvalidField, f.Tag)
		}
		if containsDelimiter(f.Value) {
			return nil, fmt.Errorf("%w: tag %d value contains SOH", ErrInvalidField, f.Tag)
		}
		appendField(&b, f.Tag, f.Value)
	}

	var out bytes.Buffer
	out.Grow(b.Len() + 32)
	appendField(&out, TagBeginString, []byte(env.BeginString))
	appendField(&out, TagBodyLength, []byte(strconv.Itoa(b.Len())))
	out.Write(b.Bytes())
	appendField(&out, TagCheckSum, []byte(FormatChecksum(Checksum(out.Bytes()))))

	return out.Bytes(), nil
}

func appendField(b *bytes.Buffer, t Tag, value []byte) {
	b.WriteString(strconv.Itoa(int(t)))
	b.WriteByte('=')
	b.Write(value)
	b.WriteByte(SOH)
}

func containsDelimiter(v []byte) bool {
	return bytes.IndexByte(v, SOH) >= 0
}

// Decoder extracts one message at a time from an accumulating byte buffer.
type Decoder struct {
	delim byte
}

// NewDecoder returns a decoder for compliant SOH delimited input.
func NewDecoder() *Decoder {
	return &Decoder{delim: SOH}
}

// NewDecoderWithDelimiter accepts a visible substitute delimiter such as '|', for fixtures.
func NewDecoderWithDelimiter(delim byte) *Decoder {
	return &Decoder{delim: delim}
}

// Decode reads the message at the start of buf and returns it with the number of bytes it
// occupies. ErrIncomplete is returned with n == 0 while the buffer is short. A *ChecksumError
// still reports n so the caller can skip the message; a *GarbledError reports n == 0 and the
// caller should drop to Resync(buf).
func (d *Decoder) Decode(buf []byte) (msg *Message, n int, err error) {
	beginEnd, err := d.headerField(buf, 0, beginStringPrefix)
	if err != nil {
		return nil, 0, err
	}
	if beginEnd == len(beginStringPrefix) {
		return nil, 0, garbled("empty BeginString")
	}

	lengthEnd, err := d.headerField(buf, beginEnd+1, bodyLengthPrefix)
	if err != nil {
		return nil, 0, err
	}
	bodyLength, ok := parseDigits(buf[beginEnd+1+len(bodyLengthPrefix) : lengthEnd])
	if !ok {
		return nil, 0, garbled("non-numeric BodyLength")
	}
	if bodyLength > MaxBodyLength {
		return nil, 0, garbled("BodyLength %d exceeds %d", bodyLength, MaxBodyLength)
	}

	bodyStart := lengthEnd + 1
	bodyEnd := bodyStart + bodyLength
	total := bodyEnd + trailerLen
	if len(buf) < total {
		return nil, 0, ErrIncomplete
	}

	if bodyLength == 0 || buf[bodyEnd-1] != d.delim {
		return nil, 0, garbled("BodyLength %d does not end on a field boundary", bodyLength)
	}
	trailer := buf[bodyEnd:total]
	if !bytes.HasPrefix(trailer, checkSumPrefix) || trailer[trailerLen-1] != d.delim {
		return nil, 0, garbled("CheckSum not found where BodyLength %d points", bodyLength)
	}
	transmitted, ok := parseDigits(trailer[len(checkSumPrefix) : trailerLen-1])
	if !ok {
		return nil, 0, garbled("non-numeric CheckSum")
	}

	if computed := Checksum(buf[:bodyEnd]); computed != transmitted {
		return nil, total, &ChecksumError{Expected: transmitted, Actual: computed}
	}

	raw := make([]byte, total)
	copy(raw, buf[:total])

	fields, err := d.splitFields(raw)
	if err != nil {
		return nil, 0, err
	}
	if len(fields) < 4 || fields[2].Tag != TagMsgType {
		return nil, 0, garbled("MsgType must be the third field")
	}

	return &Message{
		Fields:     fields,
		BodyLength: bodyLength,
		CheckSum:   transmitted,
		raw:        raw,
	}, total, nil
}

// headerField checks that buf[start:] begins with prefix and returns the index of the
// delimiter that ends the field.
func (d *Decoder) headerField(buf []byte, start int, prefix []byte) (int, error) {
	rest := buf[start:]
	if len(rest) < len(prefix) {
		if bytes.HasPrefix(prefix, rest) {
			return 0, ErrIncomplete
		}
		return 0, garbled("expected %q", prefix)
	}
	if !bytes.HasPrefix(rest, prefix) {
		return 0, garbled("expected %q", prefix)
	}
	idx := bytes.IndexByte(rest[len(prefix):], d.delim)
	if idx < 0 {
		if len(rest)-len(prefix) > maxHeaderValueLen {
			return 0, garbled("unterminated %q field", prefix)
		}
		return 0, ErrIncomplete
	}
	return start + len(prefix) + idx, nil
}

func (d *Decoder) splitFields(raw []byte) ([]Field, error) {
	fields := make([]Field, 0, bytes.Count(raw, []byte{d.delim}))
	for pos := 0; pos < len(raw); {
		end := bytes.IndexByte(raw[pos:], d.delim)
		if end < 0 {
			return nil, garbled("unterminated field at offset %d", pos)
		}
		pair := raw[pos : pos+end]
		eq := bytes.IndexByte(pair, '=')
		if eq < 0 {
			return nil, garbled("missing '=' at offset %d", pos)
		}
		t, ok := parseDigits(pair[:eq])
		if !ok || t == 0 {
			return nil, garbled("non-numeric tag at offset %d", pos)
		}
		fields = append(fields, Field{Tag: Tag(t), Value: pair[eq+1:]})
		pos += end + 1
	}
	return fields, nil
}

// Resync returns how many leading bytes to drop so that buf starts at the next candidate
// BeginString. All of buf is dropped when no candidate is present.
func (d *Decoder) Resync(buf []byte) int {
	if len(buf) == 0 {
		return 0
	}
	marker := []byte{d.delim, '8', '='}
	if idx := bytes.Index(buf[1:], marker); idx >= 0 {
		return 1 + idx + 1
	}
	if n := len(buf); n >= 2 && buf[n-2] == d.delim && buf[n-1] == '8' {
		return n - 1
	}
	return len(buf)
}

func parseDigits(b []byte) (int, bool) {
	if len(b) == 0 || len(b) > 9 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
