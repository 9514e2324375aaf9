package repository

import (
	"context"

	"fixsession/schema"
)

// IMessageStore persists the outbound journal and sequence numbers of one session.
type IMessageStore interface {
	SaveMessage(ctx context.Context, msg schema.Message) error
	// GetMessages returns stored messages with begin <= SeqNum <= end, ordered by SeqNum.
	GetMessages(ctx context.Context, begin, end int) ([]schema.Message, error)

	NextSenderSeq(ctx context.Context) (int, error)
	NextTargetSeq(ctx context.Context) (int, error)
	SetNextSenderSeq(ctx context.Context, seq int) error
	SetNextTargetSeq(ctx context.Context, seq int) error

	// Reset drops the journal and sets both sequence numbers back to 1.
	Reset(ctx context.Context) error
	Close() error
}
