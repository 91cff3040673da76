package events

import (
	"context"
	"encoding/json"

	"github.com/beatvote/beatvote/internal/domain"
	"github.com/beatvote/beatvote/internal/infrastructure/messaging"
)

const (
	RoutingRoomCreated     = "room.created"
	RoutingRoomJoined      = "room.joined"
	RoutingWinnerFinalized = "room.winner_finalized"
)

// RoomPublisher mirrors room lifecycle events onto the message broker so
// out-of-process consumers (analytics, archival) can follow along. A nil
// publisher is valid and drops everything, for deployments without a
// broker.
type RoomPublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewRoomPublisher(rabbitmq *messaging.RabbitMQ) *RoomPublisher {
	if rabbitmq == nil {
		return nil
	}
	return &RoomPublisher{
		rabbitmq: rabbitmq,
	}
}

type roomEventData struct {
	RoomCode string       `json:"roomCode"`
	Room     *domain.Room `json:"room,omitempty"`
	Song     *domain.Song `json:"song,omitempty"`
	Name     string       `json:"name,omitempty"`
}

func (p *RoomPublisher) PublishRoomCreated(ctx context.Context, room *domain.Room) error {
	return p.publish(ctx, RoutingRoomCreated, roomEventData{RoomCode: room.Code, Room: room})
}

func (p *RoomPublisher) PublishRoomJoined(ctx context.Context, roomCode, name string) error {
	return p.publish(ctx, RoutingRoomJoined, roomEventData{RoomCode: roomCode, Name: name})
}

func (p *RoomPublisher) PublishWinnerFinalized(ctx context.Context, roomCode string, song *domain.Song) error {
	return p.publish(ctx, RoutingWinnerFinalized, roomEventData{RoomCode: roomCode, Song: song})
}

func (p *RoomPublisher) publish(ctx context.Context, routingKey string, payload roomEventData) error {
	if p == nil {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, routingKey, body)
}
