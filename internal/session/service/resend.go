package service

import (
	"context"
	"fmt"

	"fixsession/pkg/collector"
	"fixsession/pkg/fix"
	"fixsession/schema"
)

// infiniteSeqNo is the EndSeqNo that FIX 4.2 and earlier use for "up to the last sent".
const infiniteSeqNo = 999999

// requestResend marks r as pending and asks the counterparty for it.
func (s *Session) requestResend(r SeqRange) {
	s.pendingResend = &r
	s.resendAttempts = 0
	s.sendResendRequest()
}

// sendResendRequest (re)issues the pending request from the first number still missing.
func (s *Session) sendResendRequest() {
	r := s.pendingResend
	if expected := s.seq.InboundExpected(); expected > r.Begin {
		r.Begin = expected
	}

	s.resendAttempts++
	s.resendSentAt = s.now()
	collector.ResendRequestCounter.WithLabelValues(string(collector.OUT)).Inc()
	s.logger.Info().
		Int("begin", r.Begin).
		Int("end", r.End).
		Int("attempt", s.resendAttempts).
		Msg("requesting resend")

	s.send(fix.MsgTypeResendRequest,
		fix.IntField(fix.TagBeginSeqNo, r.Begin),
		fix.IntField(fix.TagEndSeqNo, r.End),
	)
}

// serviceResend answers a Resend Request from the journal. Application messages go out
// again with PossDupFlag under their original numbers; administrative messages and numbers
// missing from the journal are covered by SequenceReset-GapFill.
func (s *Session) serviceResend(msg *fix.Message) {
	begin, err := msg.GetInt(fix.TagBeginSeqNo)
	if err != nil {
		s.reject(msg, err.Error())
		return
	}
	end, err := msg.GetInt(fix.TagEndSeqNo)
	if err != nil {
		s.reject(msg, err.Error())
		return
	}
	collector.ResendRequestCounter.WithLabelValues(string(collector.IN)).Inc()

	last := s.seq.PeekOutbound() - 1
	if end == 0 || end == infiniteSeqNo || end > last {
		end = last
	}
	if begin < 1 || begin > end {
		s.logger.Warn().Int("begin", begin).Int("end", end).Msg("nothing to resend")
		return
	}
	s.logger.Info().Int("begin", begin).Int("end", end).Msg("servicing resend request")

	stored, err := s.store.GetMessages(context.Background(), begin, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read journal, gap filling the whole range")
		stored = nil
	}

	next := begin
	for _, m := range stored {
		if m.SeqNum < next || fix.IsAdmin(m.MsgType) {
			continue
		}
		if m.SeqNum > next {
			if err := s.gapFill(next, m.SeqNum); err != nil {
				return
			}
		}
		if err := s.retransmit(m); err != nil {
			return
		}
		next = m.SeqNum + 1
	}
	if next <= end {
		s.gapFill(next, end+1)
	}
}

// gapFill sends a SequenceReset-GapFill numbered seq that moves the counterparty to newSeq.
func (s *Session) gapFill(seq, newSeq int) error {
	now := s.now()
	env := s.envelope(seq, now)
	env.PossDup = true
	env.OrigSendingTime = now

	wire, err := fix.Encode(fix.MsgTypeSequenceReset, []fix.Field{
		fix.NewField(fix.TagGapFillFlag, "Y"),
		fix.IntField(fix.TagNewSeqNo, newSeq),
	}, env)
	if err != nil {
		return err
	}
	return s.write(wire, fix.MsgTypeSequenceReset, now)
}

func (s *Session) retransmit(m schema.Message) error {
	orig, _, err := fix.NewDecoder().Decode(m.Raw)
	if err != nil {
		s.logger.Error().Err(err).Int("seq", m.SeqNum).Msg("journal entry unreadable, gap filling it")
		return s.gapFill(m.SeqNum, m.SeqNum+1)
	}

	now := s.now()
	env := s.envelope(m.SeqNum, now)
	env.PossDup = true
	env.OrigSendingTime = m.SentAt
	if v, ok := orig.Get(fix.TagSendingTime); ok {
		if t, err := fix.ParseTimestamp(v); err == nil {
			env.OrigSendingTime = t
		}
	}

	wire, err := fix.Encode(m.MsgType, orig.Body(), env)
	if err != nil {
		return fmt.Errorf("re-encode seq %d: %w", m.SeqNum, err)
	}
	return s.write(wire, m.MsgType, now)
}
