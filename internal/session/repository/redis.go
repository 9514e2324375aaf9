package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"fixsession/pkg/redis"
	"fixsession/schema"
)

// RedisStore keeps the journal in redis so a restarted process can resume its sequence
// numbers and answer Resend Requests for messages sent before the restart.
type RedisStore struct {
	sessionID string
	pool      *redis.RedisConnectionPool
}

func NewRedisStore(sessionID string, pool *redis.RedisConnectionPool) *RedisStore {
	return &RedisStore{sessionID: sessionID, pool: pool}
}

func (s *RedisStore) messageKey(seq int) string {
	return fmt.Sprintf("fix:%s:msg:%d", s.sessionID, seq)
}

func (s *RedisStore) indexKey() string {
	return fmt.Sprintf("fix:%s:msgs", s.sessionID)
}

func (s *RedisStore) senderKey() string {
	return fmt.Sprintf("fix:%s:next_sender", s.sessionID)
}

func (s *RedisStore) targetKey() string {
	return fmt.Sprintf("fix:%s:next_target", s.sessionID)
}

func (s *RedisStore) SaveMessage(_ context.Context, msg schema.Message) error {
	msg.SessionID = s.sessionID
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.pool.SetWithMember(s.messageKey(msg.SeqNum), b, s.indexKey())
}

func (s *RedisStore) GetMessages(_ context.Context, begin, end int) ([]schema.Message, error) {
	if begin < 1 || end < begin {
		return nil, nil
	}

	keys := make([]string, 0, end-begin+1)
	for seq := begin; seq <= end; seq++ {
		keys = append(keys, s.messageKey(seq))
	}

	values, err := s.pool.MGetBytes(keys...)
	if err != nil {
		return nil, err
	}

	res := []schema.Message{}
	for _, v := range values {
		if v == nil {
			continue
		}
		var msg schema.Message
		if err := json.Unmarshal(v, &msg); err != nil {
			return nil, fmt.Errorf("decode stored message: %w", err)
		}
		res = append(res, msg)
	}
	return res, nil
}

func (s *RedisStore) nextSeq(key string) (int, error) {
	seq, ok, err := s.pool.GetInt(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 1, nil
	}
	return seq, nil
}

func (s *RedisStore) NextSenderSeq(_ context.Context) (int, error) {
	return s.nextSeq(s.senderKey())
}

func (s *RedisStore) NextTargetSeq(_ context.Context) (int, error) {
	return s.nextSeq(s.targetKey())
}

func (s *RedisStore) SetNextSenderSeq(_ context.Context, seq int) error {
	return s.pool.Set(s.senderKey(), seq)
}

func (s *RedisStore) SetNextTargetSeq(_ context.Context, seq int) error {
	return s.pool.Set(s.targetKey(), seq)
}

func (s *RedisStore) Reset(_ context.Context) error {
	keys, err := s.pool.Members(s.indexKey())
	if err != nil {
		return err
	}
	keys = append(keys, s.indexKey(), s.senderKey(), s.targetKey())
	return s.pool.Del(keys...)
}

func (s *RedisStore) Close() error {
	return s.pool.Close()
}
