package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/chess-relay/internal/client"
	"github.com/rocketscienceinc/chess-relay/internal/client/terminal"
	"github.com/rocketscienceinc/chess-relay/internal/config"
	"github.com/rocketscienceinc/chess-relay/internal/repository"
	"github.com/rocketscienceinc/chess-relay/internal/repository/storage"
	"github.com/rocketscienceinc/chess-relay/internal/telemetry"
	"github.com/rocketscienceinc/chess-relay/internal/transport/relay"
	"github.com/rocketscienceinc/chess-relay/transport/rest"
)

var (
	ErrAddrNotFound = errors.New("redis address string is empty")
	ErrUnknownRole  = errors.New("unknown role")
)

// RunApp - runs the application in the configured role.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	shutdownOtel, err := telemetry.InitOtel(ctx, conf.Telemetry)
	if err != nil {
		return fmt.Errorf("could not initialize telemetry: %w", err)
	}

	defer func() {
		if err = shutdownOtel(context.WithoutCancel(ctx)); err != nil {
			log.Error("could not shutdown telemetry", "error", err)
		}
	}()

	matches, closeStorage, err := openLedger(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer closeStorage()

	switch conf.Role {
	case config.RoleRelay:
		return runRelay(ctx, logger, conf, matches)
	case config.RoleHost, config.RoleJoin:
		return runPlayer(ctx, logger, conf, matches)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRole, conf.Role)
	}
}

// openLedger - redis backed match ledger when enabled, in memory otherwise.
func openLedger(ctx context.Context, logger *slog.Logger, conf *config.Config) (repository.MatchRepository, func(), error) {
	log := logger.With("component", "app")

	if !conf.Redis.Enabled {
		log.Info("Redis disabled, keeping matches in memory")
		return repository.NewMemoryMatchRepository(), func() {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStorage := func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewMatchRepository(logger, redisStorage), closeStorage, nil
}

func runRelay(ctx context.Context, logger *slog.Logger, conf *config.Config, matches repository.MatchRepository) error {
	log := logger.With("component", "app")

	server, err := relay.New(logger, relay.Options{Capacity: conf.Relay.Capacity}, matches)
	if err != nil {
		return err
	}

	// run HTTP server
	httpErrCh := make(chan error, 1)
	if conf.HTTPPort != "" {
		go func() {
			log.Info("Starting HTTP server", "port", conf.HTTPPort)
			handlers := rest.NewHandlers(logger, server, matches)
			if httpErr := rest.Start(ctx, conf.HTTPPort, rest.NewRouter(handlers)); httpErr != nil {
				log.Error("HTTP server error", "error", httpErr)
				httpErrCh <- httpErr
			}
		}()
	}

	// run relay server
	relayErrCh := make(chan error, 1)
	go func() {
		addr := conf.Relay.GetListenAddr()
		log.Info("Starting relay server", "addr", addr)
		relayErrCh <- server.Start(ctx, addr)
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-relayErrCh:
		if err != nil {
			return fmt.Errorf("relay server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		<-relayErrCh
		return nil
	}
}

// runPlayer - plays from the terminal, hosting the relay in this process for
// the host role.
func runPlayer(ctx context.Context, logger *slog.Logger, conf *config.Config, matches repository.MatchRepository) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	console := terminal.New(logger, os.Stdin, os.Stdout)
	deps := console.Deps(logger)

	var (
		peer *client.Client
		err  error
	)

	if conf.Role == config.RoleHost {
		opts := relay.Options{Capacity: conf.Relay.Capacity}
		peer, err = client.Host(ctx, conf.Relay.GetListenAddr(), deps, opts, matches)
	} else {
		peer, err = client.Dial(ctx, conf.Client.GetRelayAddr(), deps)
	}

	if err != nil {
		return fmt.Errorf("failed to join game: %w", err)
	}

	clientErrCh := make(chan error, 1)
	go func() {
		clientErrCh <- peer.Run(ctx)
	}()

	consoleErrCh := make(chan error, 1)
	go func() {
		consoleErrCh <- console.Run(ctx, peer)
	}()

	select {
	case err = <-clientErrCh:
		if err != nil {
			return fmt.Errorf("game client error: %w", err)
		}
		return nil
	case err = <-consoleErrCh:
		log.Info("Player left")
		cancel()
		<-clientErrCh
		return err
	}
}
