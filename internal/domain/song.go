package domain

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Platform is the music catalog a song proposal points at.
type Platform string

const (
	PlatformSpotify Platform = "Spotify"
	PlatformYouTube Platform = "YouTube"
)

// ParsePlatform validates a caller-supplied platform against the closed
// enumeration.
func ParsePlatform(raw string) (Platform, error) {
	switch Platform(strings.TrimSpace(raw)) {
	case PlatformSpotify:
		return PlatformSpotify, nil
	case PlatformYouTube:
		return PlatformYouTube, nil
	}
	return "", ErrInvalidInput
}

// Song is a submitted track proposal. It belongs to exactly one room for
// its entire lifetime and persists across rounds; only the vote tally
// resets.
type Song struct {
	ID           string   `bson:"_id" json:"id"`
	RoomID       string   `bson:"room_id" json:"roomId"`
	Title        string   `bson:"title" json:"title"`
	Artist       string   `bson:"artist,omitempty" json:"artist,omitempty"`
	Platform     Platform `bson:"platform" json:"platform"`
	PlatformLink string   `bson:"platform_link" json:"platformLink"`
	Thumbnail    string   `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	SubmittedBy  string   `bson:"submitted_by,omitempty" json:"submittedBy,omitempty"`
	VoteCount    int      `bson:"vote_count" json:"voteCount"`
	VotedUsers   []string `bson:"voted_users" json:"votedUsers"`
}

type SongRepository interface {
	Create(ctx context.Context, song *Song) error
	GetByID(ctx context.Context, id string) (*Song, error)
	GetByRoomID(ctx context.Context, roomID string) ([]*Song, error)
	Update(ctx context.Context, song *Song) error
	// ResetVotes zeroes the tally and clears the per-song voter record of
	// every song in the room.
	ResetVotes(ctx context.Context, roomID string) error
	EnsureIndexes(ctx context.Context) error
}

type NewSongParams struct {
	RoomID       string
	Title        string
	Artist       string
	Platform     string
	PlatformLink string
	Thumbnail    string
	SubmittedBy  string
}

func NewSong(p NewSongParams) (*Song, error) {
	title := strings.TrimSpace(p.Title)
	link := strings.TrimSpace(p.PlatformLink)

	if title == "" || link == "" || p.RoomID == "" {
		return nil, ErrInvalidInput
	}

	platform, err := ParsePlatform(p.Platform)
	if err != nil {
		return nil, err
	}

	return &Song{
		ID:           uuid.NewString(),
		RoomID:       p.RoomID,
		Title:        title,
		Artist:       strings.TrimSpace(p.Artist),
		Platform:     platform,
		PlatformLink: link,
		Thumbnail:    strings.TrimSpace(p.Thumbnail),
		SubmittedBy:  strings.TrimSpace(p.SubmittedBy),
		VoteCount:    0,
		VotedUsers:   make([]string, 0),
	}, nil
}

// TrackCandidate is one catalog search result offered to users before
// submission.
type TrackCandidate struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Artist       string   `json:"artist"`
	Platform     Platform `json:"platform"`
	PlatformLink string   `json:"platformLink"`
	Thumbnail    string   `json:"thumbnail,omitempty"`
}
