package rooms

import (
	"time"

	"github.com/beatvote/beatvote/internal/domain"
)

type createRoomRequest struct {
	CreatedBy string `json:"createdBy"`
	RoomCode  string `json:"roomCode"`
}

type createRoomResponse struct {
	Message string      `json:"message"`
	Room    roomSummary `json:"room"`
}

type roomSummary struct {
	ID        string    `json:"id"`
	RoomCode  string    `json:"roomCode"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func newRoomSummary(room *domain.Room) roomSummary {
	return roomSummary{
		ID:        room.ID,
		RoomCode:  room.Code,
		CreatedBy: room.CreatedBy,
		CreatedAt: room.CreatedAt,
	}
}

type joinRoomRequest struct {
	Name     string `json:"name"`
	RoomCode string `json:"roomCode"`
}

type joinRoomResponse struct {
	Message     string `json:"message"`
	RoomCode    string `json:"roomCode"`
	JoinedCount int    `json:"joinedCount"`
}

type newRoundRequest struct {
	RoomCode string `json:"roomCode"`
}

type newRoundResponse struct {
	Message  string `json:"message"`
	RoomCode string `json:"roomCode"`
}
