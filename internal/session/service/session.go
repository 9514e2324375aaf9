package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog"

	"fixsession/internal/session/model"
	"fixsession/internal/session/repository"
	"fixsession/pkg/collector"
	"fixsession/pkg/fix"
	"fixsession/pkg/throttle"
	"fixsession/pkg/utils"
	"fixsession/schema"
)

var (
	ErrNotActive      = errors.New("session is not active")
	ErrAlreadyStarted = errors.New("session already started")
	ErrAdminMsgType   = errors.New("administrative MsgType is reserved for the session layer")
	ErrThrottled      = errors.New("outbound message rate exceeded")
	ErrTerminated     = errors.New("session terminated")
)

const readBufferSize = 4096

const (
	eventInitiate  = "initiate"
	eventAccept    = "accept"
	eventLogon     = "logon"
	eventLogout    = "logout"
	eventTerminate = "terminate"
)

type Option func(*Session)

// WithStore replaces the default in-memory journal. The caller keeps ownership of the store.
func WithStore(store repository.IMessageStore) Option {
	return func(s *Session) { s.store = store }
}

// WithClock injects the time source used for timestamps and timers.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func WithThrottle(t *throttle.Throttle) Option {
	return func(s *Session) { s.throttle = t }
}

// Session drives one FIX session over a connected transport. Every effect on the phase,
// the sequence numbers and the transport happens under mu.
type Session struct {
	id       string
	cfg      model.SessionConfig
	settings model.Settings
	conn     io.ReadWriteCloser
	app      IApplication
	store    repository.IMessageStore
	throttle *throttle.Throttle
	logger   zerolog.Logger
	now      func() time.Time

	mu        sync.Mutex
	phase     *fsm.FSM
	seq       *SequenceManager
	heartbeat *HeartbeatMonitor
	decoder   *fix.Decoder
	inbuf     []byte

	pendingResend  *SeqRange
	resendSentAt   time.Time
	resendAttempts int
	buffered       *queue.Queue

	// lastBuffered is the highest number seen ahead of a gap, buffered or not.
	lastBuffered int

	consecutiveErrors int
	phaseSince        time.Time
	reason            *model.TerminationReason
	started           bool

	// callbacks is the FIFO of application callbacks, drained by a single goroutine.
	callbacks   *queue.Queue
	wake        chan struct{}
	dispatching bool

	closing   atomic.Bool
	closeOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

type bufferedMessage struct {
	msg     *fix.Message
	seq     int
	handled bool
}

func NewSession(cfg model.SessionConfig, settings model.Settings, conn io.ReadWriteCloser, app IApplication, opts ...Option) (*Session, error) {
	settings = settings.WithDefaults()
	if err := model.Validate(cfg, settings); err != nil {
		return nil, err
	}
	if settings.WriteTimeout == 0 {
		settings.WriteTimeout = cfg.HeartbeatInterval()
	}
	if conn == nil || app == nil {
		return nil, errors.New("session needs a transport and an application")
	}

	s := &Session{
		id:        cfg.ID(),
		cfg:       cfg,
		settings:  settings,
		conn:      conn,
		app:       app,
		logger:    utils.Logger.With().Str("session", cfg.ID()).Logger(),
		now:       time.Now,
		decoder:   fix.NewDecoder(),
		buffered:  queue.New(),
		callbacks: queue.New(),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		store, err := repository.NewMemoryStore(s.id)
		if err != nil {
			return nil, err
		}
		s.store = store
	}
	if s.throttle == nil && settings.MaxMessagesPerSecond > 0 {
		s.throttle = throttle.New(settings.MaxMessagesPerSecond, s.id)
	}

	ctx := context.Background()
	out, err := s.store.NextSenderSeq(ctx)
	if err != nil {
		return nil, err
	}
	in, err := s.store.NextTargetSeq(ctx)
	if err != nil {
		return nil, err
	}
	s.seq = NewSequenceManager(out, in)

	s.phaseSince = s.now()
	s.heartbeat = NewHeartbeatMonitor(cfg.HeartbeatInterval(), s.phaseSince)
	s.ctx, s.cancel = context.WithCancel(ctx)

	nonTerminal := []string{
		string(model.Disconnected), string(model.LogonPending),
		string(model.Active), string(model.LogoutPending),
	}
	s.phase = fsm.NewFSM(
		string(model.Disconnected),
		fsm.Events{
			{Name: eventInitiate, Src: []string{string(model.Disconnected)}, Dst: string(model.LogonPending)},
			{Name: eventAccept, Src: []string{string(model.Disconnected)}, Dst: string(model.Active)},
			{Name: eventLogon, Src: []string{string(model.LogonPending)}, Dst: string(model.Active)},
			{Name: eventLogout, Src: []string{string(model.Active)}, Dst: string(model.LogoutPending)},
			{Name: eventTerminate, Src: nonTerminal, Dst: string(model.Terminated)},
		},
		fsm.Callbacks{
			"enter_state": s.enterState,
		},
	)
	collector.SessionPhaseGauge.WithLabelValues(s.id, string(model.Disconnected)).Set(1)

	s.logger.Info().
		Int("nextOutbound", out).
		Int("inboundExpected", in).
		Msg("session created")

	return s, nil
}

func (s *Session) enterState(_ context.Context, e *fsm.Event) {
	s.phaseSince = s.now()
	collector.SessionPhaseGauge.WithLabelValues(s.id, e.Src).Set(0)
	collector.SessionPhaseGauge.WithLabelValues(s.id, e.Dst).Set(1)
	s.logger.Info().Str("from", e.Src).Str("to", e.Dst).Msg("phase changed")
}

func (s *Session) transition(event string) error {
	return s.phase.Event(context.Background(), event)
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Phase() model.Phase {
	return model.Phase(s.phase.Current())
}

// Done is closed after the session reached Terminated and OnTerminated returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Status() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := model.Status{
		SessionID:       s.id,
		Phase:           s.Phase(),
		NextOutbound:    s.seq.PeekOutbound(),
		InboundExpected: s.seq.InboundExpected(),
		Buffered:        s.buffered.Length(),
	}
	if s.pendingResend != nil {
		status.PendingResend = []int{s.pendingResend.Begin, s.pendingResend.End}
	}
	if s.reason != nil {
		reason := *s.reason
		status.Reason = &reason
	}
	return status
}

// Initiate sends the Logon and starts the reader and timer goroutines.
func (s *Session) Initiate(ctx context.Context) error {
	var err error
	s.locked(func() {
		if s.started {
			err = ErrAlreadyStarted
			return
		}
		if err = s.transition(eventInitiate); err != nil {
			return
		}
		s.started = true

		reset := s.settings.ResetOnLogon
		if reset {
			if err = s.resetSequences(ctx); err != nil {
				s.terminate(model.ReasonProtocolViolation, err.Error())
				return
			}
		}
		err = s.send(fix.MsgTypeLogon, s.logonBody(s.cfg.HeartBtInt, reset)...)
	})
	if err != nil {
		return err
	}

	s.start(ctx)
	return nil
}

// Run starts the goroutines of an accepting session, which waits for the counterparty Logon.
func (s *Session) Run(ctx context.Context) error {
	var err error
	s.locked(func() {
		if s.started {
			err = ErrAlreadyStarted
			return
		}
		s.started = true
		s.phaseSince = s.now()
	})
	if err != nil {
		return err
	}

	s.start(ctx)
	return nil
}

func (s *Session) start(parent context.Context) {
	go s.readLoop()
	go s.tickLoop(parent)
}

// SendApp stamps and transmits an application message. Only allowed while Active.
func (s *Session) SendApp(msgType string, fields ...fix.Field) error {
	if fix.IsAdmin(msgType) {
		return ErrAdminMsgType
	}
	if s.throttle != nil {
		ok, err := s.throttle.Allow(s.ctx)
		if err != nil {
			return err
		}
		if !ok {
			return ErrThrottled
		}
	}

	var err error
	s.locked(func() {
		if s.Phase() != model.Active {
			err = ErrNotActive
			return
		}
		err = s.send(msgType, fields...)
	})
	return err
}

// Logout starts a graceful logout. The session terminates once the counterparty answers
// or LogoutTimeout elapses.
func (s *Session) Logout(text string) error {
	var err error
	s.locked(func() {
		if s.Phase() != model.Active {
			err = ErrNotActive
			return
		}
		if err = s.transition(eventLogout); err != nil {
			return
		}

		var fields []fix.Field
		if text != "" {
			fields = append(fields, fix.NewField(fix.TagText, text))
		}
		err = s.send(fix.MsgTypeLogout, fields...)
	})
	return err
}

// Close terminates the session without a logout exchange. The transport is closed before
// mu is taken, so a write blocked on a stalled counterparty fails and releases it.
func (s *Session) Close() error {
	s.closing.Store(true)
	s.closeConn()
	s.locked(func() {
		s.terminate(model.ReasonLocalClose, "")
	})
	return nil
}

func (s *Session) closeConn() {
	s.closeOnce.Do(func() {
		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("transport close")
		}
	})
}

func (s *Session) locked(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// notify queues an application callback. Must be called with mu held, which fixes the
// delivery order to the order in which the session saw the events.
func (s *Session) notify(cb func()) {
	s.callbacks.Add(cb)
	if !s.dispatching {
		s.dispatching = true
		go s.dispatchLoop()
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// dispatchLoop runs callbacks one at a time, outside mu, until Done has been closed.
func (s *Session) dispatchLoop() {
	for range s.wake {
		for {
			s.mu.Lock()
			if s.callbacks.Length() == 0 {
				s.mu.Unlock()
				break
			}
			cb := s.callbacks.Remove().(func())
			s.mu.Unlock()
			cb()
		}

		select {
		case <-s.done:
			return
		default:
		}
	}
}

func (s *Session) readLoop() {
	buf := make([]byte, readBufferSize)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			s.locked(func() { s.onBytes(chunk) })
		}
		if err != nil {
			s.locked(func() {
				if errors.Is(err, io.EOF) {
					s.terminate(model.ReasonTransportClosed, "connection closed by counterparty")
					return
				}
				s.terminate(model.ReasonTransportClosed, err.Error())
			})
			return
		}
	}
}

func (s *Session) tickLoop(parent context.Context) {
	ticker := time.NewTicker(s.settings.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-parent.Done():
			s.Close()
			return
		case <-ticker.C:
			s.locked(s.onTick)
		}
	}
}

func (s *Session) envelope(seq int, now time.Time) fix.Envelope {
	return fix.Envelope{
		BeginString:  s.cfg.BeginString,
		SenderCompID: s.cfg.SenderCompID,
		TargetCompID: s.cfg.TargetCompID,
		MsgSeqNum:    seq,
		SendingTime:  now,
	}
}

// send stamps the next outbound number, journals the message and writes it.
func (s *Session) send(msgType string, fields ...fix.Field) error {
	if s.terminated() {
		return ErrTerminated
	}

	now := s.now()
	seq := s.seq.PeekOutbound()
	wire, err := fix.Encode(msgType, fields, s.envelope(seq, now))
	if err != nil {
		return err
	}
	s.seq.NextOutbound()

	ctx := context.Background()
	if err := s.store.SaveMessage(ctx, schema.Message{SeqNum: seq, MsgType: msgType, Raw: wire, SentAt: now}); err != nil {
		s.logger.Error().Err(err).Int("seq", seq).Msg("failed to journal outbound message")
	}
	if err := s.store.SetNextSenderSeq(ctx, seq+1); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist sender sequence")
	}

	return s.write(wire, msgType, now)
}

// write puts already stamped bytes on the transport. A partial write cannot be resumed
// and terminates the session, as does a write that misses WriteTimeout.
func (s *Session) write(wire []byte, msgType string, now time.Time) error {
	start := time.Now()
	if d, ok := s.conn.(writeDeadliner); ok {
		if err := d.SetWriteDeadline(start.Add(s.settings.WriteTimeout)); err != nil {
			s.logger.Debug().Err(err).Msg("set write deadline")
		}
	}
	n, err := s.conn.Write(wire)
	collector.WriteDurationHistogram.Observe(float64(time.Since(start).Microseconds()))
	if err == nil && n < len(wire) {
		err = io.ErrShortWrite
	}
	if err != nil {
		s.terminate(model.ReasonTransportFault, err.Error())
		return err
	}

	s.heartbeat.OnOutbound(now)
	collector.CountMessage(collector.OUT, msgType)
	s.logger.Debug().Str("msgType", msgType).Bytes("wire", wire).Msg("sent")
	return nil
}

func (s *Session) logonBody(heartBtInt int, reset bool) []fix.Field {
	fields := []fix.Field{
		fix.NewField(fix.TagEncryptMethod, string(encryptNone)),
		fix.IntField(fix.TagHeartBtInt, heartBtInt),
	}
	if reset {
		fields = append(fields, fix.NewField(fix.TagResetSeqNumFlag, "Y"))
	}
	if s.settings.Username != "" {
		fields = append(fields, fix.NewField(fix.TagUsername, s.settings.Username))
	}
	if s.settings.Password != "" {
		fields = append(fields, fix.NewField(fix.TagPassword, s.settings.Password))
	}
	return fields
}

// resetSequences restarts both directions at 1 and drops the journal.
func (s *Session) resetSequences(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return err
	}
	return s.seq.Reset(1, 1)
}

func (s *Session) persistTarget() {
	if err := s.store.SetNextTargetSeq(context.Background(), s.seq.InboundExpected()); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist target sequence")
	}
}

func (s *Session) terminated() bool {
	return s.reason != nil
}

// terminate moves to Terminated once: it stops the timer, closes the transport and
// schedules OnTerminated followed by the close of Done.
func (s *Session) terminate(code model.ReasonCode, text string) {
	if s.terminated() {
		return
	}

	// Transport errors caused by Close itself are reported as the local close.
	if s.closing.Load() {
		code, text = model.ReasonLocalClose, ""
	}

	reason := model.TerminationReason{Code: code, Text: text}
	s.reason = &reason
	if err := s.transition(eventTerminate); err != nil {
		s.logger.Error().Err(err).Msg("")
	}
	s.cancel()
	s.closeConn()

	collector.TerminationCounter.WithLabelValues(code.String()).Inc()
	event := s.logger.Warn()
	if reason.Graceful() {
		event = s.logger.Info()
	}
	event.Str("reason", reason.String()).Msg("session terminated")

	s.notify(func() { s.app.OnTerminated(s.id, reason) })
	s.notify(func() { close(s.done) })
}
