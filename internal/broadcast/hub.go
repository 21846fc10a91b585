package broadcast

import (
	"context"
	"log/slog"

	"github.com/sasha-s/go-deadlock"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/entity"
)

// Hub keeps the recipients of this process grouped by room, one room per match.
type Hub struct {
	logger *slog.Logger

	mu    deadlock.RWMutex
	rooms map[string]map[entity.Recipient]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "hub"),
		rooms:  make(map[string]map[entity.Recipient]struct{}),
	}
}

func (that *Hub) Join(room string, recipient entity.Recipient) {
	that.mu.Lock()
	defer that.mu.Unlock()

	members, ok := that.rooms[room]
	if !ok {
		members = make(map[entity.Recipient]struct{})
		that.rooms[room] = members
	}

	members[recipient] = struct{}{}
}

func (that *Hub) Leave(room string, recipient entity.Recipient) {
	that.mu.Lock()
	defer that.mu.Unlock()

	members, ok := that.rooms[room]
	if !ok {
		return
	}

	delete(members, recipient)

	if len(members) == 0 {
		delete(that.rooms, room)
	}
}

// Emit - delivers event to every local member of room.
func (that *Hub) Emit(_ context.Context, room string, event entity.Event) error {
	that.Deliver(room, event)
	return nil
}

// Deliver - hands event to each member's non-blocking Send. Members are copied out
// first so a Send that disconnects its recipient can leave the room safely.
func (that *Hub) Deliver(room string, event entity.Event) {
	members := that.Members(room)

	that.logger.Debug("delivering event", "room", room, "action", event.Action, "recipients", len(members))

	for _, member := range members {
		member.Send(event)
	}
}

func (that *Hub) Members(room string) []entity.Recipient {
	that.mu.RLock()
	defer that.mu.RUnlock()

	members := make([]entity.Recipient, 0, len(that.rooms[room]))
	for member := range that.rooms[room] {
		members = append(members, member)
	}

	return members
}

func (that *Hub) Rooms() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}
