package model

import (
	"fmt"
	"time"

	"fixsession/pkg/utils"
)

// SessionConfig identifies one session. It is a value type: copies never change the original.
type SessionConfig struct {
	BeginString  string `json:"beginString" validate:"required,startswith=FIX"`
	SenderCompID string `json:"senderCompId" validate:"required,nefield=TargetCompID"`
	TargetCompID string `json:"targetCompId" validate:"required"`
	HeartBtInt   int    `json:"heartBtInt" validate:"gt=0"`
}

// ID is the conventional BeginString:Sender->Target session identifier.
func (c SessionConfig) ID() string {
	return fmt.Sprintf("%s:%s->%s", c.BeginString, c.SenderCompID, c.TargetCompID)
}

func (c SessionConfig) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartBtInt) * time.Second
}

// Settings are the engine tunables. Zero values are replaced by defaults in WithDefaults.
// WriteTimeout bounds one transport write; zero means one heartbeat interval.
type Settings struct {
	LogonTimeout         time.Duration `json:"logonTimeout" validate:"gte=0"`
	LogoutTimeout        time.Duration `json:"logoutTimeout" validate:"gte=0"`
	MaxConsecutiveErrors int           `json:"maxConsecutiveErrors" validate:"gte=0"`
	MaxResendAttempts    int           `json:"maxResendAttempts" validate:"gte=0"`
	MaxBufferedMessages  int           `json:"maxBufferedMessages" validate:"gte=0"`
	TickInterval         time.Duration `json:"tickInterval" validate:"gte=0"`
	WriteTimeout         time.Duration `json:"writeTimeout" validate:"gte=0"`
	MaxMessagesPerSecond int64         `json:"maxMessagesPerSecond" validate:"gte=0"`
	ResetOnLogon         bool          `json:"resetOnLogon"`
	Username             string        `json:"username"`
	Password             string        `json:"-"`
}

const (
	DefaultLogonTimeout         = 10 * time.Second
	DefaultLogoutTimeout        = 10 * time.Second
	DefaultMaxConsecutiveErrors = 3
	DefaultMaxResendAttempts    = 3
	DefaultMaxBufferedMessages  = 1000
	DefaultTickInterval         = time.Second
)

func (s Settings) WithDefaults() Settings {
	if s.LogonTimeout == 0 {
		s.LogonTimeout = DefaultLogonTimeout
	}
	if s.LogoutTimeout == 0 {
		s.LogoutTimeout = DefaultLogoutTimeout
	}
	if s.MaxConsecutiveErrors == 0 {
		s.MaxConsecutiveErrors = DefaultMaxConsecutiveErrors
	}
	if s.MaxResendAttempts == 0 {
		s.MaxResendAttempts = DefaultMaxResendAttempts
	}
	if s.MaxBufferedMessages == 0 {
		s.MaxBufferedMessages = DefaultMaxBufferedMessages
	}
	if s.TickInterval == 0 {
		s.TickInterval = DefaultTickInterval
	}
	return s
}

// Validate checks the session identity and tunables.
func Validate(cfg SessionConfig, settings Settings) error {
	if err := utils.ValidateStruct(cfg); err != nil {
		return fmt.Errorf("invalid session config: %w", err)
	}
	if err := utils.ValidateStruct(settings); err != nil {
		return fmt.Errorf("invalid session settings: %w", err)
	}
	return nil
}
