package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type gameGateway interface {
	HandleConnection(ctx context.Context, client usecase.Client, matchID string) (entity.Session, error)
	HandleMark(ctx context.Context, client usecase.Client, session entity.Session, cmd usecase.MarkCommand) error
	HandleDisconnect(client usecase.Client, session entity.Session)
}

type handlerFunc func(ctx context.Context, client *Client, session entity.Session, message *Message) error

type Server struct {
	logger   *slog.Logger
	gateway  gameGateway
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, gateway gameGateway) *Server {
	server := &Server{
		logger:  logger.With("component", "websocket"),
		gateway: gateway,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionMarkCell] = server.handleMarkCell

	return server
}

// Handler - routes GET /game to the match socket. Connections live until ctx is done.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /game", func(writer http.ResponseWriter, req *http.Request) {
		that.serveGame(ctx, writer, req)
	})

	return mux
}

// Start - starts WebSocket server and blocks until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveGame - upgrades the request, binds the connection to a match and serves it
// until either side closes.
func (that *Server) serveGame(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveGame")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(that.logger, conn)
	go client.writeLoop()

	// hijacked connections outlive shutdown, close them explicitly
	stop := context.AfterFunc(ctx, client.Disconnect)
	defer stop()

	session, err := that.gateway.HandleConnection(ctx, client, req.URL.Query().Get("matchId"))
	if err != nil {
		log.Debug("connection rejected", "playerID", client.ID(), "error", err)
		return
	}

	client.readLoop(func(data []byte) {
		that.dispatch(ctx, client, session, data)
	})

	that.gateway.HandleDisconnect(client, session)
	client.Disconnect()
}
