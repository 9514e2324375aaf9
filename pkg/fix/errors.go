package fix

import (
	"errors"
	"fmt"
)

// ErrIncomplete means the buffer does not yet hold a whole message. It is not a failure:
// the caller keeps the bytes and waits for more.
var ErrIncomplete = errors.New("incomplete message")

// ErrInvalidField is returned by Encode for values that cannot be put on the wire.
var ErrInvalidField = errors.New("invalid field")

// GarbledError reports malformed framing. The sequence number must not advance.
type GarbledError struct {
	Reason string
}

func (e *GarbledError) Error() string {
	return "garbled message: " + e.Reason
}

// ChecksumError reports a well framed message whose CheckSum does not match its bytes.
type ChecksumError struct {
	Expected int
	Actual   int
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: transmitted %s, computed %s",
		FormatChecksum(e.Expected), FormatChecksum(e.Actual))
}

// FieldError reports a required field that is missing or not in the expected format.
type FieldError struct {
	Tag    Tag
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("tag %d: %s", e.Tag, e.Reason)
}

func garbled(format string, args ...interface{}) error {
	return &GarbledError{Reason: fmt.Sprintf(format, args...)}
}

// IsGarbled reports whether err is a framing error.
func IsGarbled(err error) bool {
	var g *GarbledError
	return errors.As(err, &g)
}

// IsChecksum reports whether err is a checksum mismatch.
func IsChecksum(err error) bool {
	var c *ChecksumError
	return errors.As(err, &c)
}
