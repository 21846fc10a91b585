package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sasha-s/go-deadlock"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/broadcast"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/config"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/repository"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/transport/redis"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-gateway/transport/rest"
	"github.com/rocketscienceinc/tictactoe-gateway/transport/websocket"
)

type roomBroadcaster interface {
	Join(room string, recipient entity.Recipient)
	Leave(room string, recipient entity.Recipient)
	Emit(ctx context.Context, room string, event entity.Event) error
}

// RunApp - runs the application.
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

	configureLocks(log, conf.DebugLocks)

	registry := repository.NewMatchRegistry(logger, repository.PolicyFor(conf.Registry.MatchTTL))
	go registry.Run(ctx, conf.Registry.SweepInterval)

	rooms, closeRooms, err := newBroadcaster(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer closeRooms()

	gateway := usecase.NewGameGateway(logger, registry, rooms)

	var wg sync.WaitGroup

	// run HTTP server
	httpErrCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, logger, conf.HTTPPort, registry); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gateway)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		wg.Wait()
		return nil
	}
}

// newBroadcaster - the in-process hub, or the hub behind Redis pub/sub for multi-node setups.
func newBroadcaster(ctx context.Context, logger *slog.Logger, conf *config.Config) (roomBroadcaster, func(), error) {
	log := logger.With("component", "app")
	hub := broadcast.NewHub(logger)

	if conf.Broadcast.Driver != config.DriverRedis {
		log.Info("using local broadcaster")
		return hub, func() {}, nil
	}

	client, err := redis.New(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis: %w", err)
	}

	closeClient := func() {
		if err := client.Close(); err != nil {
			log.Error("could not close redis client", "error", err)
		}
	}

	broadcaster := redis.NewBroadcaster(logger, client.Connection, hub, conf.Broadcast.ChannelPrefix)
	if err = broadcaster.Start(ctx); err != nil {
		closeClient()
		return nil, nil, fmt.Errorf("could not start redis broadcaster: %w", err)
	}

	log.Info("using redis broadcaster", "addr", conf.Redis.GetRedisAddr())

	return broadcaster, closeClient, nil
}

func configureLocks(log *slog.Logger, debug bool) {
	deadlock.Opts.Disable = !debug
	if !debug {
		return
	}

	deadlock.Opts.OnPotentialDeadlock = func() {
		log.Error("potential deadlock detected, see stderr for goroutine dump")
	}

	log.Warn("lock order and deadlock detection enabled")
}
