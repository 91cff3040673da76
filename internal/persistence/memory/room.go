package memory

import (
	"context"
	"sync"

	"github.com/beatvote/beatvote/internal/domain"
)

// roomRepository is the in-memory session store, used by tests and by
// deployments that don't need durability. Documents are copied on the way
// in and out so callers can never mutate stored state without an Update.
type roomRepository struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room // code -> room
	byID  map[string]string       // ID -> code
}

func NewRoomRepository() domain.RoomRepository {
	return &roomRepository{
		rooms: make(map[string]*domain.Room),
		byID:  make(map[string]string),
	}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.Code]; exists {
		return domain.ErrRoomAlreadyExists
	}

	r.rooms[room.Code] = cloneRoom(room)
	r.byID[room.ID] = room.Code

	return nil
}

func (r *roomRepository) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[domain.NormalizeCode(code)]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}

	return cloneRoom(room), nil
}

func (r *roomRepository) Update(ctx context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, exists := r.byID[room.ID]
	if !exists {
		return domain.ErrRoomNotFound
	}

	r.rooms[code] = cloneRoom(room)

	return nil
}

func (r *roomRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func cloneRoom(room *domain.Room) *domain.Room {
	c := *room
	c.Playlist = append([]string(nil), room.Playlist...)
	c.JoinedUsers = append([]domain.JoinedUser(nil), room.JoinedUsers...)
	c.RoundVoters = append([]string(nil), room.RoundVoters...)
	return &c
}
