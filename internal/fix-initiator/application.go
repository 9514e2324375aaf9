package initiator

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"fixsession/internal/session/model"
	"fixsession/pkg/fix"
	"fixsession/pkg/kafka/producer"
	"fixsession/pkg/utils"
)

// ForwardedMessage is what gets published to kafka for every inbound application message.
type ForwardedMessage struct {
	SessionID  string    `json:"sessionId"`
	MsgType    string    `json:"msgType"`
	SeqNum     int       `json:"seqNum"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Application prints received application messages and, when a producer is
// configured, forwards them to kafka.
type Application struct {
	sessionID string
	producer  *producer.Producer
	out       io.Writer
	now       func() time.Time
}

func NewApplication(sessionID string, p *producer.Producer, out io.Writer) *Application {
	return &Application{
		sessionID: sessionID,
		producer:  p,
		out:       out,
		now:       time.Now,
	}
}

// OnLogon implemented as part of IApplication interface
func (a *Application) OnLogon(sessionID string) {
	utils.Logger.Info().Str("session", sessionID).Msg("logged on")
	fmt.Fprintf(a.out, "Logged on %s\n", sessionID)
}

// FromApp implemented as part of IApplication interface
func (a *Application) FromApp(msgType string, msg *fix.Message) error {
	fmt.Fprintf(a.out, "<- %s\n", msg.String())
	if a.producer == nil {
		return nil
	}

	seq, _ := msg.SeqNum()
	payload, err := json.Marshal(ForwardedMessage{
		SessionID:  a.sessionID,
		MsgType:    msgType,
		SeqNum:     seq,
		Message:    msg.String(),
		ReceivedAt: a.now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := a.producer.Send(a.sessionID, payload); err != nil {
		utils.Logger.Error().Err(err).Str("topic", a.producer.Topic()).Msg("failed to forward message")
		return err
	}
	return nil
}

// OnTerminated implemented as part of IApplication interface
func (a *Application) OnTerminated(sessionID string, reason model.TerminationReason) {
	event := utils.Logger.Info()
	if !reason.Graceful() {
		event = utils.Logger.Warn()
	}
	event.Str("session", sessionID).Str("reason", reason.String()).Msg("session terminated")
	fmt.Fprintf(a.out, "Session %s terminated: %s\n", sessionID, reason)
}

func (a *Application) Close() error {
	if a.producer == nil {
		return nil
	}
	return a.producer.Close()
}
