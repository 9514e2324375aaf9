package repository

import (
	"context"
	"errors"

	"fixsession/pkg/memdb"
	"fixsession/schema"
)

type MemoryStore struct {
	sessionID string
	schemas   *memdb.Schemas
}

func NewMemoryStore(sessionID string) (*MemoryStore, error) {
	schemas, err := memdb.InitSchemas()
	if err != nil {
		return nil, err
	}

	return &MemoryStore{sessionID: sessionID, schemas: schemas}, nil
}

func (s *MemoryStore) SaveMessage(_ context.Context, msg schema.Message) error {
	msg.SessionID = s.sessionID
	return s.schemas.Message.Upsert(&msg)
}

func (s *MemoryStore) GetMessages(_ context.Context, begin, end int) ([]schema.Message, error) {
	if begin < 1 || end < begin {
		return nil, nil
	}

	res := []schema.Message{}
	for seq := begin; seq <= end; seq++ {
		raw, err := s.schemas.Message.FindOne("id", s.sessionID, seq)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}

		msg, ok := raw.(*schema.Message)
		if !ok {
			return nil, errors.New("unexpected object in message table")
		}
		res = append(res, *msg)
	}

	return res, nil
}

func (s *MemoryStore) sequence() (schema.Sequence, error) {
	raw, err := s.schemas.Sequence.FindOne("id", s.sessionID)
	if err != nil {
		return schema.Sequence{}, err
	}
	if raw == nil {
		return schema.Sequence{SessionID: s.sessionID, NextSender: 1, NextTarget: 1}, nil
	}

	seq, ok := raw.(*schema.Sequence)
	if !ok {
		return schema.Sequence{}, errors.New("unexpected object in sequence table")
	}
	return *seq, nil
}

func (s *MemoryStore) NextSenderSeq(_ context.Context) (int, error) {
	seq, err := s.sequence()
	return seq.NextSender, err
}

func (s *MemoryStore) NextTargetSeq(_ context.Context) (int, error) {
	seq, err := s.sequence()
	return seq.NextTarget, err
}

func (s *MemoryStore) SetNextSenderSeq(_ context.Context, next int) error {
	seq, err := s.sequence()
	if err != nil {
		return err
	}
	seq.NextSender = next
	return s.schemas.Sequence.Upsert(&seq)
}

func (s *MemoryStore) SetNextTargetSeq(_ context.Context, next int) error {
	seq, err := s.sequence()
	if err != nil {
		return err
	}
	seq.NextTarget = next
	return s.schemas.Sequence.Upsert(&seq)
}

func (s *MemoryStore) Reset(_ context.Context) error {
	if _, err := s.schemas.Message.Clear("session_id", s.sessionID); err != nil {
		return err
	}
	return s.schemas.Sequence.Upsert(&schema.Sequence{SessionID: s.sessionID, NextSender: 1, NextTarget: 1})
}

func (s *MemoryStore) Close() error {
	return nil
}
