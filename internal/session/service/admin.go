package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quickfixgo/enum"

	"fixsession/internal/session/model"
	"fixsession/pkg/collector"
	"fixsession/pkg/fix"
)

const encryptNone = enum.EncryptMethod_NONE_OTHER

// onBytes accumulates transport bytes and handles every complete message in them.
func (s *Session) onBytes(b []byte) {
	if s.terminated() {
		return
	}
	s.inbuf = append(s.inbuf, b...)

	for len(s.inbuf) > 0 && !s.terminated() {
		msg, n, err := s.decoder.Decode(s.inbuf)
		switch {
		case err == nil:
			s.inbuf = s.inbuf[n:]
			s.consecutiveErrors = 0
			s.onMessage(msg)
		case errors.Is(err, fix.ErrIncomplete):
			return
		case fix.IsChecksum(err):
			s.inbuf = s.inbuf[n:]
			s.onDecodeError(err, "checksum", model.ReasonChecksumLimit)
		default:
			s.inbuf = s.inbuf[s.decoder.Resync(s.inbuf):]
			s.onDecodeError(err, "garbled", model.ReasonGarbledLimit)
		}
	}

	if len(s.inbuf) == 0 {
		s.inbuf = nil
	}
}

// onDecodeError drops what could not be decoded. Nothing is sequenced for it.
func (s *Session) onDecodeError(err error, kind string, code model.ReasonCode) {
	s.consecutiveErrors++
	collector.DecodeErrorCounter.WithLabelValues(kind).Inc()
	s.logger.Warn().Err(err).Int("consecutive", s.consecutiveErrors).Msg("inbound message dropped")

	if s.consecutiveErrors > s.settings.MaxConsecutiveErrors {
		s.terminate(code, fmt.Sprintf("%d consecutive errors, last: %v", s.consecutiveErrors, err))
	}
}

func (s *Session) onMessage(msg *fix.Message) {
	s.heartbeat.OnInbound(s.now())
	msgType := msg.MsgType()
	collector.CountMessage(collector.IN, msgType)
	s.logger.Debug().Str("msg", msg.String()).Msg("received")

	if sender, _ := msg.Get(fix.TagSenderCompID); sender != s.cfg.TargetCompID {
		s.terminate(model.ReasonProtocolViolation, fmt.Sprintf("unexpected SenderCompID %q", sender))
		return
	}
	if target, _ := msg.Get(fix.TagTargetCompID); target != s.cfg.SenderCompID {
		s.terminate(model.ReasonProtocolViolation, fmt.Sprintf("unexpected TargetCompID %q", target))
		return
	}

	seq, err := msg.SeqNum()
	if err != nil {
		s.onDecodeError(err, "garbled", model.ReasonGarbledLimit)
		return
	}

	switch s.Phase() {
	case model.Disconnected, model.LogonPending:
		if msgType != fix.MsgTypeLogon {
			s.terminate(model.ReasonProtocolViolation,
				fmt.Sprintf("MsgType %s received before Logon", msgType))
			return
		}
		s.onLogon(msg, seq)
	case model.Active, model.LogoutPending:
		s.onSequenced(msg, seq)
	}
}

// onLogon completes the logon of an initiating session, or answers the counterparty Logon
// of an accepting one.
func (s *Session) onLogon(msg *fix.Message, seq int) {
	accepting := s.Phase() == model.Disconnected

	heartBtInt, err := msg.GetInt(fix.TagHeartBtInt)
	if err != nil || heartBtInt <= 0 {
		s.terminate(model.ReasonProtocolViolation, fmt.Sprintf("invalid Logon HeartBtInt: %v", err))
		return
	}
	if !accepting {
		heartBtInt = s.cfg.HeartBtInt
	}

	reset := msg.GetBool(fix.TagResetSeqNumFlag)
	if reset {
		outbound := s.seq.PeekOutbound()
		if accepting {
			if err := s.store.Reset(context.Background()); err != nil {
				s.logger.Error().Err(err).Msg("failed to reset message store")
			}
			outbound = 1
		}
		if err := s.seq.Reset(outbound, 1); err != nil {
			s.terminate(model.ReasonProtocolViolation, err.Error())
			return
		}
		s.logger.Info().Msg("sequence numbers reset by Logon")
	}

	outcome, gap := s.seq.OnInbound(seq)
	if outcome == Duplicate {
		s.terminate(model.ReasonProtocolViolation,
			fmt.Sprintf("Logon MsgSeqNum %d lower than expected %d", seq, s.seq.InboundExpected()))
		return
	}
	if outcome == InOrder {
		s.persistTarget()
	}

	event := eventLogon
	if accepting {
		event = eventAccept
	}
	if err := s.transition(event); err != nil {
		s.terminate(model.ReasonProtocolViolation, err.Error())
		return
	}
	s.heartbeat = NewHeartbeatMonitor(time.Duration(heartBtInt)*time.Second, s.now())

	if accepting {
		if err := s.send(fix.MsgTypeLogon, s.logonBody(heartBtInt, reset)...); err != nil {
			return
		}
	}

	s.notify(func() { s.app.OnLogon(s.id) })

	if outcome == Gap {
		s.buffer(msg, seq, true)
		s.requestResend(gap)
	}
}

// onSequenced applies sequence checks to traffic of an established session.
func (s *Session) onSequenced(msg *fix.Message, seq int) {
	if msg.MsgType() == fix.MsgTypeSequenceReset && !msg.GetBool(fix.TagGapFillFlag) {
		s.onSequenceReset(msg)
		return
	}

	outcome, gap := s.seq.OnInbound(seq)
	if outcome != InOrder {
		collector.SequenceCounter.WithLabelValues(outcome.String()).Inc()
	}

	switch outcome {
	case InOrder:
		s.dispatch(msg)
		s.advanced()
		s.drainBuffered()
	case Duplicate:
		if msg.IsPossDup() {
			s.logger.Debug().Int("seq", seq).Msg("ignoring possible duplicate")
			return
		}
		s.logger.Warn().
			Int("seq", seq).
			Int("expected", s.seq.InboundExpected()).
			Msg("MsgSeqNum too low without PossDupFlag")
	case Gap:
		s.onGap(msg, seq, gap)
	}
}

// onGap handles what cannot wait for redelivery and buffers the rest.
func (s *Session) onGap(msg *fix.Message, seq int, gap SeqRange) {
	handled := false
	switch msg.MsgType() {
	case fix.MsgTypeTestRequest, fix.MsgTypeResendRequest, fix.MsgTypeLogout:
		s.dispatch(msg)
		handled = true
	}
	if s.terminated() {
		return
	}

	s.buffer(msg, seq, handled)
	if s.pendingResend == nil {
		s.requestResend(gap)
	}
}

func (s *Session) buffer(msg *fix.Message, seq int, handled bool) {
	if s.buffered.Length() > 0 && seq <= s.lastBuffered {
		s.logger.Debug().Int("seq", seq).Msg("already buffered")
		return
	}
	s.lastBuffered = seq
	if s.buffered.Length() >= s.settings.MaxBufferedMessages {
		collector.SequenceCounter.WithLabelValues("DISCARDED").Inc()
		s.logger.Warn().Int("seq", seq).Msg("OutOfSequence: buffer full, message discarded")
		return
	}

	s.buffered.Add(bufferedMessage{msg: msg, seq: seq, handled: handled})
}

// drainBuffered replays buffered messages that became in order. A hole left in the buffer,
// or numbers discarded when it was full, are requested again.
func (s *Session) drainBuffered() {
	defer func() {
		expected := s.seq.InboundExpected()
		if !s.terminated() && s.buffered.Length() == 0 && s.pendingResend == nil && s.lastBuffered >= expected {
			s.requestResend(SeqRange{Begin: expected, End: s.lastBuffered})
		}
	}()

	for s.buffered.Length() > 0 && !s.terminated() {
		next := s.buffered.Peek().(bufferedMessage)
		expected := s.seq.InboundExpected()
		if next.seq < expected {
			s.buffered.Remove()
			continue
		}
		if next.seq > expected {
			if s.pendingResend == nil {
				s.requestResend(SeqRange{Begin: expected, End: next.seq - 1})
			}
			return
		}

		s.buffered.Remove()
		s.seq.OnInbound(next.seq)
		if !next.handled {
			s.dispatch(next.msg)
		}
		s.advanced()
	}
}

// advanced persists the expected inbound number and clears a filled resend range.
func (s *Session) advanced() {
	s.persistTarget()

	if s.pendingResend != nil && s.seq.InboundExpected() > s.pendingResend.End {
		s.logger.Info().
			Int("begin", s.pendingResend.Begin).
			Int("end", s.pendingResend.End).
			Msg("gap filled")
		s.pendingResend = nil
		s.resendAttempts = 0
	}
}

// dispatch handles one in-order message by MsgType. Anything not administrative goes to
// the application.
func (s *Session) dispatch(msg *fix.Message) {
	switch msgType := msg.MsgType(); msgType {
	case fix.MsgTypeHeartbeat:
	case fix.MsgTypeTestRequest:
		id, ok := msg.Get(fix.TagTestReqID)
		if !ok {
			s.reject(msg, "TestReqID missing")
			return
		}
		s.send(fix.MsgTypeHeartbeat, fix.NewField(fix.TagTestReqID, id))
	case fix.MsgTypeResendRequest:
		s.serviceResend(msg)
	case fix.MsgTypeSequenceReset:
		s.onGapFill(msg)
	case fix.MsgTypeReject:
		text, _ := msg.Get(fix.TagText)
		ref, _ := msg.Get(fix.TagRefSeqNum)
		s.logger.Warn().Str("refSeqNum", ref).Str("text", text).Msg("counterparty rejected a message")
	case fix.MsgTypeLogout:
		s.onLogout(msg)
	case fix.MsgTypeLogon:
		s.terminate(model.ReasonProtocolViolation, "Logon received on an established session")
	default:
		s.notify(func() {
			if err := s.app.FromApp(msgType, msg); err != nil {
				s.logger.Error().Err(err).Str("msgType", msgType).Msg("application rejected message")
			}
		})
	}
}

func (s *Session) onGapFill(msg *fix.Message) {
	newSeq, err := msg.GetInt(fix.TagNewSeqNo)
	if err != nil {
		s.reject(msg, err.Error())
		return
	}
	if err := s.seq.ResetInbound(newSeq); err != nil {
		s.reject(msg, err.Error())
	}
}

// onSequenceReset applies a reset-mode SequenceReset. Its MsgSeqNum is ignored.
func (s *Session) onSequenceReset(msg *fix.Message) {
	newSeq, err := msg.GetInt(fix.TagNewSeqNo)
	if err != nil {
		s.reject(msg, err.Error())
		return
	}
	if err := s.seq.ResetInbound(newSeq); err != nil {
		s.logger.Warn().Err(err).Msg("SequenceReset rejected")
		s.reject(msg, err.Error())
		return
	}

	s.logger.Info().Int("newSeqNo", newSeq).Msg("inbound sequence reset")
	s.advanced()
	s.drainBuffered()
}

func (s *Session) onLogout(msg *fix.Message) {
	text, _ := msg.Get(fix.TagText)

	switch s.Phase() {
	case model.LogoutPending:
		s.terminate(model.ReasonLogoutComplete, text)
	case model.Active:
		if err := s.send(fix.MsgTypeLogout); err != nil {
			return
		}
		if err := s.transition(eventLogout); err != nil {
			s.logger.Error().Err(err).Msg("")
		}
		s.terminate(model.ReasonLogoutComplete, text)
	}
}

// reject answers a malformed administrative message without ending the session.
func (s *Session) reject(ref *fix.Message, text string) {
	seq, _ := ref.SeqNum()
	s.logger.Warn().Int("refSeqNum", seq).Str("text", text).Msg("rejecting message")
	s.send(fix.MsgTypeReject,
		fix.IntField(fix.TagRefSeqNum, seq),
		fix.NewField(fix.TagText, text),
	)
}

// onTick enforces phase timeouts, keep-alive and the resend bound.
func (s *Session) onTick() {
	if s.terminated() {
		return
	}
	now := s.now()
	elapsed := now.Sub(s.phaseSince)

	switch s.Phase() {
	case model.Disconnected:
		if s.started && elapsed >= s.settings.LogonTimeout {
			s.terminate(model.ReasonLogonTimeout, "no Logon received")
		}
		return
	case model.LogonPending:
		if elapsed >= s.settings.LogonTimeout {
			s.terminate(model.ReasonLogonTimeout, "no Logon response")
		}
		return
	case model.LogoutPending:
		if elapsed >= s.settings.LogoutTimeout {
			s.terminate(model.ReasonLogoutTimeout, "no Logout response")
			return
		}
	}

	for _, e := range s.heartbeat.Check(now) {
		switch e.Kind {
		case EventHeartbeat:
			s.send(fix.MsgTypeHeartbeat)
		case EventTestRequest:
			s.send(fix.MsgTypeTestRequest, fix.NewField(fix.TagTestReqID, e.TestReqID))
		case EventCounterpartyTimeout:
			s.terminate(model.ReasonCounterpartyTimeout,
				fmt.Sprintf("no response to TestRequest %s", e.TestReqID))
			return
		}
	}

	if s.pendingResend != nil && now.Sub(s.resendSentAt) >= 2*s.heartbeat.Interval() {
		if s.resendAttempts >= s.settings.MaxResendAttempts {
			s.terminate(model.ReasonResendLimit,
				fmt.Sprintf("gap %d-%d not filled after %d requests",
					s.pendingResend.Begin, s.pendingResend.End, s.resendAttempts))
			return
		}
		s.sendResendRequest()
	}
}
