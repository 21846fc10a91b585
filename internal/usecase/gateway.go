package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/entity"
)

type matchRegistry interface {
	CreateMatch(player string) string
	GetMatch(id string) (*entity.Match, error)
	JoinMatch(id, player string) error
}

type broadcaster interface {
	Join(room string, recipient entity.Recipient)
	Leave(room string, recipient entity.Recipient)
	Emit(ctx context.Context, room string, event entity.Event) error
}

// Client is one live connection as the gateway sees it.
type Client interface {
	entity.Recipient
	// Disconnect flushes what was already sent and closes the connection. It must not block.
	Disconnect()
}

// MarkCommand is a validated markCell request. An empty MatchID means the session's match.
type MarkCommand struct {
	MatchID string
	RowID   int
	ColID   int
}

// GameGateway sequences connections, marks and disconnects against the registry and the rooms.
type GameGateway struct {
	logger      *slog.Logger
	registry    matchRegistry
	broadcaster broadcaster
	now         func() time.Time
}

func NewGameGateway(logger *slog.Logger, registry matchRegistry, broadcaster broadcaster) *GameGateway {
	return &GameGateway{
		logger:      logger.With("component", "gateway"),
		registry:    registry,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// HandleConnection - creates a match when matchID is empty or joins the given one,
// binds the client to the match room and announces it.
func (that *GameGateway) HandleConnection(ctx context.Context, client Client, matchID string) (entity.Session, error) {
	log := that.logger.With("method", "HandleConnection", "playerID", client.ID())

	isNew := matchID == ""
	if isNew {
		matchID = that.registry.CreateMatch(client.ID())
	}

	log = log.With("matchID", matchID)

	match, err := that.registry.GetMatch(matchID)
	if err != nil {
		that.reject(client, err)
		return entity.Session{}, fmt.Errorf("failed to get match: %w", err)
	}

	if !isNew {
		if err = that.registry.JoinMatch(matchID, client.ID()); err != nil {
			that.reject(client, err)
			return entity.Session{}, fmt.Errorf("failed to join match: %w", err)
		}
	}

	that.broadcaster.Join(matchID, client)

	if isNew {
		client.Send(entity.MatchCreated(matchID))
	}

	match.Lock()
	defer match.Unlock()

	that.emit(ctx, log, matchID,
		entity.MatchJoined(client.ID()),
		entity.TurnChanged(match.CurrentPlayer()),
	)

	log.Info("player connected", "isNew", isNew, "players", len(match.Players()))

	return entity.Session{
		ConnectionID: client.ID(),
		MatchID:      matchID,
		IsNew:        isNew,
	}, nil
}

// HandleMark - applies a mark for client and broadcasts the outcome to the room.
// Rejections are reported to client only and leave the match untouched.
func (that *GameGateway) HandleMark(ctx context.Context, client Client, session entity.Session, cmd MarkCommand) error {
	matchID := cmd.MatchID
	if matchID == "" {
		matchID = session.MatchID
	}

	log := that.logger.With("method", "HandleMark", "playerID", client.ID(), "matchID", matchID)

	match, err := that.registry.GetMatch(matchID)
	if err != nil {
		client.Send(entity.ErrorEvent(err))
		return fmt.Errorf("failed to get match: %w", err)
	}

	// held through the emits, so the room sees marks in commit order
	match.Lock()
	defer match.Unlock()

	result, err := match.AttemptMark(client.ID(), cmd.RowID, cmd.ColID, that.now())
	if err != nil {
		client.Send(entity.ErrorEvent(err))
		return fmt.Errorf("failed to mark cell: %w", err)
	}

	that.emit(ctx, log, matchID,
		entity.CellMarked(result),
		entity.TurnChanged(result.CurrentPlayer),
		entity.MatchStats(result),
	)

	if result.IsEnded {
		log.Info("match ended", "winner", result.Winner, "isDraw", result.IsDraw)
	}

	return nil
}

// HandleDisconnect - removes client from its room. The match itself is left as is.
func (that *GameGateway) HandleDisconnect(client Client, session entity.Session) {
	if session.MatchID == "" {
		return
	}

	that.broadcaster.Leave(session.MatchID, client)

	that.logger.Info("player disconnected", "playerID", client.ID(), "matchID", session.MatchID)
}

func (that *GameGateway) reject(client Client, err error) {
	client.Send(entity.ErrorEvent(err))
	client.Disconnect()
}

func (that *GameGateway) emit(ctx context.Context, log *slog.Logger, room string, events ...entity.Event) {
	for _, event := range events {
		if err := that.broadcaster.Emit(ctx, room, event); err != nil {
			log.Error("failed to emit event", "action", event.Action, "error", err)
		}
	}
}
