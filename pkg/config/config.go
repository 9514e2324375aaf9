package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/quickfixgo/quickfix"
	qfconfig "github.com/quickfixgo/quickfix/config"

	"fixsession/internal/session/model"
)

// Setting keys without a quickfix constant.
const (
	Username             = "Username"
	Password             = "Password"
	MaxResendAttempts    = "MaxResendAttempts"
	MaxBufferedMessages  = "MaxBufferedMessages"
	MaxMessagesPerSecond = "MaxMessagesPerSecond"
	WriteTimeout         = "WriteTimeout"
)

const (
	DefaultHost       = "localhost"
	DefaultPort       = 9876
	DefaultStatusPort = "8080"
)

// Config is everything the fixsession commands need.
type Config struct {
	Session  model.SessionConfig
	Settings model.Settings

	Host       string
	Port       int
	AcceptPort int

	KafkaBrokers []string
	KafkaTopic   string
	RedisURL     string
	StatusPort   string

	LogLevel  string
	LogPretty bool
}

// Default is the session of the plain command line client.
func Default() *Config {
	return &Config{
		Session: model.SessionConfig{
			BeginString:  "FIX.4.2",
			SenderCompID: "CLIENT",
			TargetCompID: "SERVER",
			HeartBtInt:   30,
		},
		Host:       DefaultHost,
		Port:       DefaultPort,
		AcceptPort: DefaultPort,
		StatusPort: DefaultStatusPort,
		LogLevel:   "info",
	}
}

// LoadEnv reads a .env file when present. A missing file is not an error.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Load builds the configuration from the environment and, when set, the session file it
// names (cfgPath wins over FIX_CONFIG).
func Load(cfgPath string) (*Config, error) {
	cfg := Default()

	if cfgPath == "" {
		cfgPath = os.Getenv("FIX_CONFIG")
	}
	if cfgPath != "" {
		data, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("error opening %v, %v", cfgPath, err)
		}
		if err := cfg.parseSession(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("error reading cfg: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := model.Validate(cfg.Session, cfg.Settings.WithDefaults()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads a QuickFIX style session file on top of the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.parseSession(r); err != nil {
		return nil, err
	}
	return cfg, nil
}

// layered resolves a key in the session block first and in [DEFAULT] second.
type layered struct {
	global  *quickfix.SessionSettings
	session *quickfix.SessionSettings
}

func (l layered) has(key string) bool {
	return l.session.HasSetting(key) || l.global.HasSetting(key)
}

func (l layered) pick(key string) *quickfix.SessionSettings {
	if l.session.HasSetting(key) {
		return l.session
	}
	return l.global
}

func (l layered) str(key string) (string, error) {
	return l.pick(key).Setting(key)
}

func (l layered) integer(key string) (int, error) {
	return l.pick(key).IntSetting(key)
}

// parseSession takes the only [SESSION] block; [DEFAULT] values are inherited.
func (c *Config) parseSession(r io.Reader) error {
	appSettings, err := quickfix.ParseSettings(r)
	if err != nil {
		return err
	}

	sessions := appSettings.SessionSettings()
	if len(sessions) != 1 {
		return fmt.Errorf("exactly one [SESSION] block is supported, found %d", len(sessions))
	}
	settings := layered{global: appSettings.GlobalSettings()}
	for _, s := range sessions {
		settings.session = s
	}

	strs := []struct {
		key string
		dst *string
	}{
		{qfconfig.BeginString, &c.Session.BeginString},
		{qfconfig.SenderCompID, &c.Session.SenderCompID},
		{qfconfig.TargetCompID, &c.Session.TargetCompID},
		{qfconfig.SocketConnectHost, &c.Host},
		{Username, &c.Settings.Username},
		{Password, &c.Settings.Password},
	}
	for _, s := range strs {
		if !settings.has(s.key) {
			continue
		}
		if *s.dst, err = settings.str(s.key); err != nil {
			return err
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{qfconfig.HeartBtInt, &c.Session.HeartBtInt},
		{qfconfig.SocketConnectPort, &c.Port},
		{qfconfig.SocketAcceptPort, &c.AcceptPort},
		{MaxResendAttempts, &c.Settings.MaxResendAttempts},
		{MaxBufferedMessages, &c.Settings.MaxBufferedMessages},
	}
	for _, i := range ints {
		if !settings.has(i.key) {
			continue
		}
		if *i.dst, err = settings.integer(i.key); err != nil {
			return err
		}
	}

	seconds := []struct {
		key string
		dst *time.Duration
	}{
		{qfconfig.LogonTimeout, &c.Settings.LogonTimeout},
		{qfconfig.LogoutTimeout, &c.Settings.LogoutTimeout},
		{WriteTimeout, &c.Settings.WriteTimeout},
	}
	for _, d := range seconds {
		if !settings.has(d.key) {
			continue
		}
		n, err := settings.integer(d.key)
		if err != nil {
			return err
		}
		*d.dst = time.Duration(n) * time.Second
	}

	if settings.has(MaxMessagesPerSecond) {
		n, err := settings.integer(MaxMessagesPerSecond)
		if err != nil {
			return err
		}
		c.Settings.MaxMessagesPerSecond = int64(n)
	}
	if settings.has(qfconfig.ResetOnLogon) {
		if c.Settings.ResetOnLogon, err = settings.pick(qfconfig.ResetOnLogon).BoolSetting(qfconfig.ResetOnLogon); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) applyEnv() error {
	if host := os.Getenv("FIX_HOST"); host != "" {
		c.Host = host
	}
	if port := os.Getenv("FIX_PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid FIX_PORT %q: %w", port, err)
		}
		c.Port = n
		c.AcceptPort = n
	}
	if brokers := os.Getenv("KAFKA_BROKER"); brokers != "" {
		c.KafkaBrokers = strings.Split(brokers, ",")
	}
	c.KafkaTopic = os.Getenv("KAFKA_TOPIC")
	c.RedisURL = os.Getenv("REDIS_URL")
	if port := os.Getenv("STATUS_PORT"); port != "" {
		c.StatusPort = port
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	c.LogPretty = os.Getenv("LOG_PRETTY") == "true"
	return nil
}

// Addr is the host:port an initiator dials.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
