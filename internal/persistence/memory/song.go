package memory

import (
	"context"
	"sync"

	"github.com/beatvote/beatvote/internal/domain"
)

type songRepository struct {
	mu     sync.RWMutex
	songs  map[string]*domain.Song // ID -> song
	byRoom map[string][]string     // room ID -> song IDs, insertion order
}

func NewSongRepository() domain.SongRepository {
	return &songRepository{
		songs:  make(map[string]*domain.Song),
		byRoom: make(map[string][]string),
	}
}

func (r *songRepository) Create(ctx context.Context, song *domain.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.songs[song.ID] = cloneSong(song)
	r.byRoom[song.RoomID] = append(r.byRoom[song.RoomID], song.ID)

	return nil
}

func (r *songRepository) GetByID(ctx context.Context, id string) (*domain.Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	song, exists := r.songs[id]
	if !exists {
		return nil, domain.ErrSongNotFound
	}

	return cloneSong(song), nil
}

func (r *songRepository) GetByRoomID(ctx context.Context, roomID string) ([]*domain.Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byRoom[roomID]
	songs := make([]*domain.Song, 0, len(ids))
	for _, id := range ids {
		if song, exists := r.songs[id]; exists {
			songs = append(songs, cloneSong(song))
		}
	}

	return songs, nil
}

func (r *songRepository) Update(ctx context.Context, song *domain.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.songs[song.ID]; !exists {
		return domain.ErrSongNotFound
	}

	r.songs[song.ID] = cloneSong(song)

	return nil
}

func (r *songRepository) ResetVotes(ctx context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.byRoom[roomID] {
		if song, exists := r.songs[id]; exists {
			song.VoteCount = 0
			song.VotedUsers = make([]string, 0)
		}
	}

	return nil
}

func (r *songRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func cloneSong(song *domain.Song) *domain.Song {
	c := *song
	c.VotedUsers = append([]string(nil), song.VotedUsers...)
	return &c
}
