package songs

import "github.com/beatvote/beatvote/internal/domain"

type submitSongRequest struct {
	RoomCode     string `json:"roomCode"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Platform     string `json:"platform"`
	PlatformLink string `json:"platformLink"`
	Thumbnail    string `json:"thumbnail"`
	SubmittedBy  string `json:"submittedBy"`
}

type submitSongResponse struct {
	Message string       `json:"message"`
	Song    *domain.Song `json:"song"`
}

type voteRequest struct {
	SongID   string `json:"songId"`
	Username string `json:"username"`
	RoomCode string `json:"roomCode"`
}

type voteResponse struct {
	Message string       `json:"message"`
	Song    *domain.Song `json:"song"`
}

type finalizeRequest struct {
	RoomCode string `json:"roomCode"`
}

type finalizeResponse struct {
	Message string       `json:"message"`
	Winner  *domain.Song `json:"winner"`
}

type listSongsResponse struct {
	Songs []*domain.Song `json:"songs"`
}
