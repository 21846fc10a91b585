package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/broadcast"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/entity"
)

const DefaultChannelPrefix = "tictactoe:room:"

// envelope is what travels over the pub/sub channel of a room.
type envelope struct {
	Room  string       `json:"room"`
	Event entity.Event `json:"event"`
}

// Broadcaster fans room events out to every node through Redis pub/sub.
// Membership stays local, each node delivers to its own connections.
type Broadcaster struct {
	logger *slog.Logger
	client *redis.Client
	hub    *broadcast.Hub
	prefix string
}

func NewBroadcaster(logger *slog.Logger, client *redis.Client, hub *broadcast.Hub, prefix string) *Broadcaster {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}

	return &Broadcaster{
		logger: logger.With("component", "redis-broadcaster"),
		client: client,
		hub:    hub,
		prefix: prefix,
	}
}

func (that *Broadcaster) Join(room string, recipient entity.Recipient) {
	that.hub.Join(room, recipient)
}

func (that *Broadcaster) Leave(room string, recipient entity.Recipient) {
	that.hub.Leave(room, recipient)
}

// Emit - publishes event on the room channel. Local members receive it back through the subscription.
func (that *Broadcaster) Emit(ctx context.Context, room string, event entity.Event) error {
	payload, err := json.Marshal(envelope{Room: room, Event: event})
	if err != nil {
		return fmt.Errorf("failed to marshal room event: %w", err)
	}

	if err = that.client.Publish(ctx, that.channel(room), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish room event: %w", err)
	}

	return nil
}

// Start - subscribes to every room channel and delivers incoming events until ctx is done.
// It returns once the subscription is confirmed.
func (that *Broadcaster) Start(ctx context.Context) error {
	log := that.logger.With("method", "Start")

	pubsub := that.client.PSubscribe(ctx, that.prefix+"*")

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to room channels: %w", err)
	}

	log.Info("subscribed to room channels", "pattern", that.prefix+"*")

	go func() {
		<-ctx.Done()
		if err := pubsub.Close(); err != nil {
			log.Error("failed to close subscription", "error", err)
		}
	}()

	go that.deliver(pubsub.Channel())

	return nil
}

func (that *Broadcaster) deliver(messages <-chan *redis.Message) {
	log := that.logger.With("method", "deliver")

	for message := range messages {
		var incoming envelope
		if err := json.Unmarshal([]byte(message.Payload), &incoming); err != nil {
			log.Error("failed to unmarshal room event", "channel", message.Channel, "error", err)
			continue
		}

		room := incoming.Room
		if room == "" {
			room = strings.TrimPrefix(message.Channel, that.prefix)
		}

		that.hub.Deliver(room, incoming.Event)
	}

	log.Debug("subscription closed")
}

func (that *Broadcaster) channel(room string) string {
	return that.prefix + room
}
