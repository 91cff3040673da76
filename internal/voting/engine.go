package voting

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/beatvote/beatvote/internal/domain"
	"github.com/beatvote/beatvote/internal/infrastructure/logging"
	"github.com/beatvote/beatvote/internal/infrastructure/metrics"
	"github.com/beatvote/beatvote/internal/infrastructure/ws"
)

// Broadcaster pushes an event to every live viewer of a room. The engine
// only publishes after the corresponding store write succeeded, so every
// event a viewer sees corresponds to durably committed state.
type Broadcaster interface {
	Publish(roomCode string, evt *ws.Event)
}

// Engine owns the authoritative state transitions of a room: membership,
// submission, vote casting, tallying, finalization and round reset.
//
// Mutating operations on the same room are serialized through a per-room
// lock arena; operations on different rooms never contend. Reads take no
// room lock and may observe a momentarily stale view.
type Engine struct {
	rooms       domain.RoomRepository
	songs       domain.SongRepository
	broadcaster Broadcaster
	logger      logging.Logger

	locks sync.Map // room code -> *sync.Mutex
}

func NewEngine(rooms domain.RoomRepository, songs domain.SongRepository, broadcaster Broadcaster, logger logging.Logger) *Engine {
	return &Engine{
		rooms:       rooms,
		songs:       songs,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// roomLock returns the mutual-exclusion domain of a room. Locks are keyed
// by normalized code and live for the process lifetime.
func (e *Engine) roomLock(code string) *sync.Mutex {
	lock, _ := e.locks.LoadOrStore(domain.NormalizeCode(code), &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// CreateRoom persists a new room with an empty playlist and no votes.
// The code is normalized before the uniqueness check; a live room already
// holding it makes this fail with ErrRoomAlreadyExists.
func (e *Engine) CreateRoom(ctx context.Context, createdBy, code string) (*domain.Room, error) {
	room, err := domain.NewRoom(createdBy, code)
	if err != nil {
		return nil, err
	}

	if _, err := e.rooms.GetByCode(ctx, room.Code); err == nil {
		return nil, domain.ErrRoomAlreadyExists
	} else if !errors.Is(err, domain.ErrRoomNotFound) {
		return nil, err
	}

	// The store's unique code index backstops the check above when two
	// creations race.
	if err := e.rooms.Create(ctx, room); err != nil {
		return nil, err
	}

	metrics.RoomsCreated.Inc()
	e.logger.Info(logging.Voting, logging.RoomLifecycle, "room created", map[logging.ExtraKey]any{
		logging.RoomCode: room.Code,
	})

	return room, nil
}

// JoinRoom appends the name to the room's membership record and reports
// the joined count. Joining twice with the same name (any case variant) is
// idempotent: the second call mutates nothing and still succeeds.
func (e *Engine) JoinRoom(ctx context.Context, code, name string) (joinedCount int, alreadyJoined bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, domain.ErrInvalidInput
	}

	count, already, err := func() (int, bool, error) {
		mu := e.roomLock(code)
		mu.Lock()
		defer mu.Unlock()

		room, err := e.rooms.GetByCode(ctx, code)
		if err != nil {
			return 0, false, err
		}

		if room.HasJoined(name) {
			return len(room.JoinedUsers), true, nil
		}

		room.AddJoinedUser(name)
		if err := e.rooms.Update(ctx, room); err != nil {
			return 0, false, err
		}

		return len(room.JoinedUsers), false, nil
	}()
	if err != nil {
		return 0, false, err
	}

	if !already {
		e.broadcaster.Publish(code, ws.NewParticipantJoined(domain.NormalizeCode(code), name))
	}

	return count, already, nil
}

type SubmitSongParams struct {
	RoomCode     string
	Title        string
	Artist       string
	Platform     string
	PlatformLink string
	Thumbnail    string
	SubmittedBy  string
}

// SubmitSong creates the song with a zero tally and appends it to the
// room's playlist in submission order.
func (e *Engine) SubmitSong(ctx context.Context, p SubmitSongParams) (*domain.Song, error) {
	song, err := func() (*domain.Song, error) {
		mu := e.roomLock(p.RoomCode)
		mu.Lock()
		defer mu.Unlock()

		room, err := e.rooms.GetByCode(ctx, p.RoomCode)
		if err != nil {
			return nil, err
		}

		song, err := domain.NewSong(domain.NewSongParams{
			RoomID:       room.ID,
			Title:        p.Title,
			Artist:       p.Artist,
			Platform:     p.Platform,
			PlatformLink: p.PlatformLink,
			Thumbnail:    p.Thumbnail,
			SubmittedBy:  p.SubmittedBy,
		})
		if err != nil {
			return nil, err
		}

		if err := e.songs.Create(ctx, song); err != nil {
			return nil, err
		}

		room.Playlist = append(room.Playlist, song.ID)
		if err := e.rooms.Update(ctx, room); err != nil {
			return nil, err
		}

		return song, nil
	}()
	if err != nil {
		return nil, err
	}

	metrics.SongsSubmitted.Inc()
	e.broadcaster.Publish(p.RoomCode, ws.NewSongAdded(domain.NormalizeCode(p.RoomCode), song))

	return song, nil
}

// CastVote applies one vote to a song. A voter gets exactly one vote per
// round, enforced against the room's round voter record under the room
// lock so concurrent votes can't both increment from a stale tally.
func (e *Engine) CastVote(ctx context.Context, roomCode, songID, voter string) (*domain.Song, error) {
	voter = strings.TrimSpace(voter)
	if voter == "" || songID == "" {
		return nil, domain.ErrInvalidInput
	}

	song, err := func() (*domain.Song, error) {
		mu := e.roomLock(roomCode)
		mu.Lock()
		defer mu.Unlock()

		room, err := e.rooms.GetByCode(ctx, roomCode)
		if err != nil {
			return nil, err
		}

		song, err := e.songs.GetByID(ctx, songID)
		if err != nil {
			return nil, err
		}
		if song.RoomID != room.ID {
			return nil, domain.ErrSongNotFound
		}

		if room.HasVotedThisRound(voter) {
			return nil, domain.ErrDuplicateVote
		}

		song.VoteCount++
		song.VotedUsers = append(song.VotedUsers, voter)
		if err := e.songs.Update(ctx, song); err != nil {
			return nil, err
		}

		room.RoundVoters = append(room.RoundVoters, voter)
		if err := e.rooms.Update(ctx, room); err != nil {
			return nil, err
		}

		return song, nil
	}()
	if err != nil {
		return nil, err
	}

	metrics.VotesCast.Inc()
	e.logger.Debug(logging.Voting, logging.VoteTally, "vote cast", map[logging.ExtraKey]any{
		logging.RoomCode: domain.NormalizeCode(roomCode),
		logging.SongID:   song.ID,
		logging.Voter:    voter,
	})
	e.broadcaster.Publish(roomCode, ws.NewVoteUpdated(domain.NormalizeCode(roomCode), song))

	return song, nil
}

// ListSongs returns the room's songs in submission order. It takes no room
// lock; a concurrent writer may make the view momentarily stale.
func (e *Engine) ListSongs(ctx context.Context, roomCode string) ([]*domain.Song, error) {
	room, err := e.rooms.GetByCode(ctx, roomCode)
	if err != nil {
		return nil, err
	}

	songs, err := e.songs.GetByRoomID(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	return orderByPlaylist(room.Playlist, songs), nil
}

// FinalizeRound picks the winner and opens the next round. The winner is
// the first song in submission order holding the strictly greatest tally,
// so ties break toward the earliest submission. Finalize owns the room for
// the whole select-persist-reset sequence; the returned song carries the
// tally it won with.
func (e *Engine) FinalizeRound(ctx context.Context, roomCode string) (*domain.Song, error) {
	winner, err := func() (*domain.Song, error) {
		mu := e.roomLock(roomCode)
		mu.Lock()
		defer mu.Unlock()

		room, err := e.rooms.GetByCode(ctx, roomCode)
		if err != nil {
			return nil, err
		}

		if len(room.Playlist) == 0 {
			return nil, domain.ErrEmptyPlaylist
		}

		songs, err := e.songs.GetByRoomID(ctx, room.ID)
		if err != nil {
			return nil, err
		}
		ordered := orderByPlaylist(room.Playlist, songs)
		if len(ordered) == 0 {
			return nil, domain.ErrEmptyPlaylist
		}

		winner := ordered[0]
		for _, s := range ordered[1:] {
			if s.VoteCount > winner.VoteCount {
				winner = s
			}
		}

		room.FinalizedSong = winner.ID
		if err := e.rooms.Update(ctx, room); err != nil {
			return nil, err
		}

		if err := e.songs.ResetVotes(ctx, room.ID); err != nil {
			return nil, err
		}

		room.RoundVoters = room.RoundVoters[:0]
		if err := e.rooms.Update(ctx, room); err != nil {
			return nil, err
		}

		return winner, nil
	}()
	if err != nil {
		return nil, err
	}

	metrics.RoundsFinalized.Inc()
	code := domain.NormalizeCode(roomCode)
	e.logger.Info(logging.Voting, logging.RoundReset, "round finalized", map[logging.ExtraKey]any{
		logging.RoomCode: code,
		logging.SongID:   winner.ID,
	})
	e.broadcaster.Publish(roomCode, ws.NewWinnerFinalized(code, winner))
	e.broadcaster.Publish(roomCode, ws.NewRoundStarted(code))

	return winner, nil
}

// StartNewRound reopens voting without declaring a winner: tallies and
// voter records are cleared, the finalized song of previous rounds is left
// alone.
func (e *Engine) StartNewRound(ctx context.Context, roomCode string) error {
	err := func() error {
		mu := e.roomLock(roomCode)
		mu.Lock()
		defer mu.Unlock()

		room, err := e.rooms.GetByCode(ctx, roomCode)
		if err != nil {
			return err
		}

		if err := e.songs.ResetVotes(ctx, room.ID); err != nil {
			return err
		}

		room.RoundVoters = room.RoundVoters[:0]
		return e.rooms.Update(ctx, room)
	}()
	if err != nil {
		return err
	}

	code := domain.NormalizeCode(roomCode)
	e.logger.Info(logging.Voting, logging.RoundReset, "round reset without winner", map[logging.ExtraKey]any{
		logging.RoomCode: code,
	})
	e.broadcaster.Publish(roomCode, ws.NewRoundStarted(code))

	return nil
}

// orderByPlaylist arranges songs into the room's submission order,
// skipping playlist entries whose song is missing from the store.
func orderByPlaylist(playlist []string, songs []*domain.Song) []*domain.Song {
	byID := make(map[string]*domain.Song, len(songs))
	for _, s := range songs {
		byID[s.ID] = s
	}

	ordered := make([]*domain.Song, 0, len(playlist))
	for _, id := range playlist {
		if s, ok := byID[id]; ok {
			ordered = append(ordered, s)
		}
	}
	return ordered
}
