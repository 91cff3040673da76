package ws

import "github.com/beatvote/beatvote/internal/domain"

type Event struct {
	Type     string `json:"type"`
	RoomCode string `json:"roomCode"`
	Data     any    `json:"data,omitempty"`
}

// Payload structs
type ParticipantPayload struct {
	Name string `json:"name"`
}

type ViewerCountPayload struct {
	Count int `json:"count"`
}

type SongPayload struct {
	Song *domain.Song `json:"song"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewParticipantJoined(roomCode, name string) *Event {
	return &Event{
		Type:     ParticipantJoined,
		RoomCode: roomCode,
		Data:     ParticipantPayload{Name: name},
	}
}

func NewViewerCountUpdated(roomCode string, count int) *Event {
	return &Event{
		Type:     ViewerCountUpdated,
		RoomCode: roomCode,
		Data:     ViewerCountPayload{Count: count},
	}
}

func NewSongAdded(roomCode string, song *domain.Song) *Event {
	return &Event{
		Type:     SongAdded,
		RoomCode: roomCode,
		Data:     SongPayload{Song: song},
	}
}

func NewVoteUpdated(roomCode string, song *domain.Song) *Event {
	return &Event{
		Type:     VoteUpdated,
		RoomCode: roomCode,
		Data:     SongPayload{Song: song},
	}
}

func NewWinnerFinalized(roomCode string, song *domain.Song) *Event {
	return &Event{
		Type:     WinnerFinalized,
		RoomCode: roomCode,
		Data:     SongPayload{Song: song},
	}
}

func NewRoundStarted(roomCode string) *Event {
	return &Event{
		Type:     RoundStarted,
		RoomCode: roomCode,
	}
}

func NewError(roomCode, message string) *Event {
	return &Event{
		Type:     ErrorEvent,
		RoomCode: roomCode,
		Data:     ErrorPayload{Message: message},
	}
}
