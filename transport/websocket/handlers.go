package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/entity"
)

func (that *Server) dispatch(ctx context.Context, client *Client, session entity.Session, data []byte) {
	log := that.logger.With("method", "dispatch", "playerID", client.ID())

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		client.Send(entity.BadRequest("message must be a JSON object with action and payload"))
		return
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		client.Send(entity.BadRequest("unknown action " + message.Action))
		return
	}

	if err := handler(ctx, client, session, &message); err != nil {
		log.Debug("message rejected", "action", message.Action, "error", err)
	}
}

func (that *Server) handleMarkCell(ctx context.Context, client *Client, session entity.Session, message *Message) error {
	var request MarkRequest
	if err := json.Unmarshal(message.Payload, &request); err != nil {
		client.Send(entity.BadRequest("payload must be an object"))
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	cmd, problems := request.Validate()
	if len(problems) > 0 {
		client.Send(entity.BadRequest(problems...))
		return fmt.Errorf("invalid markCell payload: %v", problems)
	}

	if err := that.gateway.HandleMark(ctx, client, session, cmd); err != nil {
		return fmt.Errorf("failed to handle mark: %w", err)
	}

	return nil
}
