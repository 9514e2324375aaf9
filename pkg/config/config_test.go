package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionFile = `
[DEFAULT]
SocketConnectHost=127.0.0.1
SocketConnectPort=5001
HeartBtInt=20
LogonTimeout=5

[SESSION]
BeginString=FIX.4.4
SenderCompID=BUYSIDE
TargetCompID=SELLSIDE
ResetOnLogon=Y
LogoutTimeout=3
WriteTimeout=2
MaxMessagesPerSecond=50
Username=trader
`

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sessionFile))
	require.NoError(t, err)

	assert.Equal(t, "FIX.4.4", cfg.Session.BeginString)
	assert.Equal(t, "BUYSIDE", cfg.Session.SenderCompID)
	assert.Equal(t, "SELLSIDE", cfg.Session.TargetCompID)
	assert.Equal(t, 20, cfg.Session.HeartBtInt, "inherited from [DEFAULT]")
	assert.Equal(t, "127.0.0.1:5001", cfg.Addr())
	assert.Equal(t, 5*time.Second, cfg.Settings.LogonTimeout)
	assert.Equal(t, 3*time.Second, cfg.Settings.LogoutTimeout)
	assert.Equal(t, 2*time.Second, cfg.Settings.WriteTimeout)
	assert.True(t, cfg.Settings.ResetOnLogon)
	assert.Equal(t, int64(50), cfg.Settings.MaxMessagesPerSecond)
	assert.Equal(t, "trader", cfg.Settings.Username)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no session", "[DEFAULT]\nHeartBtInt=30\n"},
		{"bad heartbeat", "[SESSION]\nBeginString=FIX.4.2\nSenderCompID=A\nTargetCompID=B\nHeartBtInt=often\n"},
		{"two sessions", "[SESSION]\nBeginString=FIX.4.2\nSenderCompID=A\nTargetCompID=B\n[SESSION]\nBeginString=FIX.4.2\nSenderCompID=A\nTargetCompID=C\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FIX_CONFIG", "")
	t.Setenv("FIX_HOST", "")
	t.Setenv("FIX_PORT", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "localhost:9876", cfg.Addr())
	assert.Equal(t, "FIX.4.2", cfg.Session.BeginString)
	assert.Equal(t, 30, cfg.Session.HeartBtInt)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cfg")
	require.NoError(t, os.WriteFile(path, []byte(sessionFile), 0644))

	t.Setenv("FIX_PORT", "7001")
	t.Setenv("KAFKA_BROKER", "k1:9092,k2:9092")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7001", cfg.Addr())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.LogPretty)

	t.Setenv("FIX_PORT", "seventy")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FIX_TEST_VALUE=loaded\n"), 0644))
	t.Setenv("FIX_TEST_VALUE", "")
	os.Unsetenv("FIX_TEST_VALUE")

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "loaded", os.Getenv("FIX_TEST_VALUE"))
}
