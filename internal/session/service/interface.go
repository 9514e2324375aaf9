package service

import (
	"context"

	"fixsession/internal/session/model"
	"fixsession/pkg/fix"
)

//go:generate mockgen -source=interface.go -destination=mock/mock_interface.go -package=mock

// IApplication receives what the session layer does not consume itself. Callbacks are
// delivered one at a time, in the order the session saw the events, from a goroutine the
// session owns; OnTerminated never overlaps an earlier FromApp. Callbacks may call back
// into the session.
type IApplication interface {
	//Notification of a session successfully logging on.
	OnLogon(sessionID string)

	//Notification of app message being received from target.
	FromApp(msgType string, msg *fix.Message) error

	//Notification of a session ending, with the reason. Called exactly once.
	OnTerminated(sessionID string, reason model.TerminationReason)
}

type ISession interface {
	ID() string
	Initiate(ctx context.Context) error
	Run(ctx context.Context) error
	SendApp(msgType string, fields ...fix.Field) error
	Logout(text string) error
	Close() error
	Done() <-chan struct{}
	Phase() model.Phase
	Status() model.Status
}
