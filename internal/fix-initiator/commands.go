package initiator

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fixsession/cmd/server"
	"fixsession/internal/session/repository"
	"fixsession/internal/session/service"
	"fixsession/pkg/config"
	"fixsession/pkg/kafka/producer"
	"fixsession/pkg/redis"
	"fixsession/pkg/utils"
)

const dialTimeout = 10 * time.Second

var cfgFile string

// Cmd dials the counterparty and logs on.
var Cmd = &cobra.Command{
	Use:     "initiate",
	Aliases: []string{"init"},
	Short:   "Connect to a FIX counterparty and log on",
	Long: `Dial SocketConnectHost:SocketConnectPort from the session file, send a Logon and
keep the session alive until the counterparty logs out or the process is interrupted.
Interrupting sends a Logout and waits for the acknowledgement.`,
	Example: "fixsession initiate -c session.cfg",
	RunE:    executeInitiate,
}

// AcceptCmd waits for a single counterparty connection and answers its Logon.
var AcceptCmd = &cobra.Command{
	Use:     "accept",
	Short:   "Wait for a FIX counterparty and answer its Logon",
	Example: "fixsession accept -c session.cfg",
	RunE:    executeAccept,
}

func init() {
	for _, c := range []*cobra.Command{Cmd, AcceptCmd} {
		c.Flags().StringVarP(&cfgFile, "config", "c", "", "session settings file (defaults to $FIX_CONFIG)")
	}
}

func executeInitiate(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	utils.Logger.Info().Str("addr", cfg.Addr()).Msg("connecting")
	conn, err := net.DialTimeout("tcp", cfg.Addr(), dialTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.Addr(), err)
	}
	return run(cmd.Context(), cfg, conn, true)
}

func executeAccept(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.AcceptPort))
	if err != nil {
		return err
	}
	defer ln.Close()

	utils.Logger.Info().Str("addr", ln.Addr().String()).Msg("waiting for counterparty")
	conn, err := ln.Accept()
	if err != nil {
		return err
	}
	return run(cmd.Context(), cfg, conn, false)
}

func setup() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogPretty)
	return cfg, nil
}

func run(parent context.Context, cfg *config.Config, conn net.Conn, initiate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(cfg)
	if err != nil {
		conn.Close()
		return err
	}
	defer store.Close()

	app, err := newApplication(cfg)
	if err != nil {
		conn.Close()
		return err
	}
	defer app.Close()

	session, err := service.NewSession(cfg.Session, cfg.Settings, conn, app, service.WithStore(store))
	if err != nil {
		conn.Close()
		return err
	}

	statusCtx, cancelStatus := context.WithCancel(context.Background())
	defer cancelStatus()
	go func() {
		if err := server.Serve(statusCtx, cfg.StatusPort, server.NewEngine(session)); err != nil {
			utils.Logger.Error().Err(err).Msg("status server stopped")
		}
	}()

	// The session outlives ctx so an interrupt can still run the logout handshake.
	if initiate {
		err = session.Initiate(context.Background())
	} else {
		err = session.Run(context.Background())
	}
	if err != nil {
		session.Close()
		return err
	}

	select {
	case <-session.Done():
	case <-ctx.Done():
		utils.Logger.Info().Msg("interrupted, logging out")
		if err := session.Logout("user requested logout"); err != nil {
			session.Close()
		}
		select {
		case <-session.Done():
		case <-time.After(cfg.Settings.WithDefaults().LogoutTimeout + time.Second):
			session.Close()
		}
	}

	status := session.Status()
	if status.Reason != nil && !status.Reason.Graceful() {
		return fmt.Errorf("session ended: %s", status.Reason)
	}
	return nil
}

func newStore(cfg *config.Config) (repository.IMessageStore, error) {
	if cfg.RedisURL == "" {
		return repository.NewMemoryStore(cfg.Session.ID())
	}

	pool := redis.NewRedisConnectionPool(cfg.RedisURL)
	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	return repository.NewRedisStore(cfg.Session.ID(), pool), nil
}

func newApplication(cfg *config.Config) (*Application, error) {
	var p *producer.Producer
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic != "" {
		var err error
		if p, err = producer.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic); err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
	}
	return NewApplication(cfg.Session.ID(), p, os.Stdout), nil
}
