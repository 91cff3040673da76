package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	minCodeLength = 3
	maxCodeLength = 12
)

// Room is a voting session identified by a shareable code. The code is
// stored upper-cased and is unique for the lifetime of the room.
type Room struct {
	ID            string       `bson:"_id" json:"id"`
	Code          string       `bson:"code" json:"code"`
	CreatedBy     string       `bson:"created_by" json:"createdBy"`
	CreatedAt     time.Time    `bson:"created_at" json:"createdAt"`
	Playlist      []string     `bson:"playlist" json:"playlist"`
	FinalizedSong string       `bson:"finalized_song,omitempty" json:"finalizedSong,omitempty"`
	JoinedUsers   []JoinedUser `bson:"joined_users" json:"joinedUsers"`
	RoundVoters   []string     `bson:"round_voters" json:"roundVoters"`
}

// JoinedUser is a historical membership record, not live presence.
// The list never shrinks.
type JoinedUser struct {
	Name     string    `bson:"name" json:"name"`
	JoinedAt time.Time `bson:"joined_at" json:"joinedAt"`
}

type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	GetByCode(ctx context.Context, code string) (*Room, error)
	Update(ctx context.Context, room *Room) error
	EnsureIndexes(ctx context.Context) error
}

func NewRoom(createdBy, code string) (*Room, error) {
	createdBy = strings.TrimSpace(createdBy)
	code = NormalizeCode(code)

	if createdBy == "" || code == "" {
		return nil, ErrInvalidInput
	}
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return nil, ErrInvalidInput
	}

	return &Room{
		ID:          uuid.NewString(),
		Code:        code,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
		Playlist:    make([]string, 0),
		JoinedUsers: make([]JoinedUser, 0),
		RoundVoters: make([]string, 0),
	}, nil
}

// NormalizeCode maps every case variant of a room code onto the stored form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// HasJoined reports whether name is already in the membership record,
// compared case-insensitively.
func (r *Room) HasJoined(name string) bool {
	for _, u := range r.JoinedUsers {
		if strings.EqualFold(u.Name, name) {
			return true
		}
	}
	return false
}

// AddJoinedUser appends a membership record. Joining is idempotent per
// case-insensitive name; the caller checks HasJoined first.
func (r *Room) AddJoinedUser(name string) {
	r.JoinedUsers = append(r.JoinedUsers, JoinedUser{
		Name:     name,
		JoinedAt: time.Now().UTC(),
	})
}

// HasVotedThisRound reports whether name already cast a vote in the
// current round.
func (r *Room) HasVotedThisRound(name string) bool {
	for _, v := range r.RoundVoters {
		if strings.EqualFold(v, name) {
			return true
		}
	}
	return false
}
