package voting

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatvote/beatvote/internal/domain"
	"github.com/beatvote/beatvote/internal/infrastructure/logging"
	"github.com/beatvote/beatvote/internal/infrastructure/ws"
	"github.com/beatvote/beatvote/internal/persistence/memory"
)

// recorder captures published events in order so tests can assert what the
// engine announced and when.
type recorder struct {
	mu     sync.Mutex
	events []*ws.Event
}

func (r *recorder) Publish(roomCode string, evt *ws.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) byType(eventType string) []*ws.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*ws.Event
	for _, evt := range r.events {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}

func newTestEngine(t *testing.T) (*Engine, *recorder) {
	t.Helper()

	rec := &recorder{}
	engine := NewEngine(memory.NewRoomRepository(), memory.NewSongRepository(), rec, logging.NewNopLogger())
	return engine, rec
}

func submitTestSong(t *testing.T, engine *Engine, roomCode, title, submittedBy string) *domain.Song {
	t.Helper()

	song, err := engine.SubmitSong(context.Background(), SubmitSongParams{
		RoomCode:     roomCode,
		Title:        title,
		Platform:     "Spotify",
		PlatformLink: "https://open.spotify.com/track/" + title,
		SubmittedBy:  submittedBy,
	})
	require.NoError(t, err)
	return song
}

func TestCreateRoom_NormalizesCode(t *testing.T) {
	engine, _ := newTestEngine(t)

	room, err := engine.CreateRoom(context.Background(), "Alice", " abcd ")
	require.NoError(t, err)

	assert.Equal(t, "ABCD", room.Code)
	assert.Equal(t, "Alice", room.CreatedBy)
	assert.Empty(t, room.Playlist)
	assert.Empty(t, room.RoundVoters)
}

func TestCreateRoom_ConflictOnAnyCaseVariant(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "ABCD")
	require.NoError(t, err)

	_, err = engine.CreateRoom(context.Background(), "Bob", "abcd")
	assert.ErrorIs(t, err, domain.ErrRoomAlreadyExists)
}

func TestCreateRoom_Validation(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.CreateRoom(context.Background(), "", "ABCD")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = engine.CreateRoom(context.Background(), "Alice", "AB")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = engine.CreateRoom(context.Background(), "Alice", "WAYTOOLONGCODE")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestJoinRoom_Idempotent(t *testing.T) {
	engine, rec := newTestEngine(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "ABCD")
	require.NoError(t, err)

	count, already, err := engine.JoinRoom(context.Background(), "abcd", "Bob")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.False(t, already)

	count, already, err = engine.JoinRoom(context.Background(), "ABCD", "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, already)

	// Only the first join announces a participant.
	assert.Len(t, rec.byType(ws.ParticipantJoined), 1)
}

func TestJoinRoom_UnknownRoom(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, _, err := engine.JoinRoom(context.Background(), "NOPE", "Bob")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestSubmitSong_AppendsInOrder(t *testing.T) {
	engine, rec := newTestEngine(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "ABCD")
	require.NoError(t, err)

	first := submitTestSong(t, engine, "ABCD", "Track1", "Alice")
	second := submitTestSong(t, engine, "abcd", "Track2", "Bob")

	songs, err := engine.ListSongs(context.Background(), "ABCD")
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, first.ID, songs[0].ID)
	assert.Equal(t, second.ID, songs[1].ID)

	assert.Len(t, rec.byType(ws.SongAdded), 2)
}

func TestSubmitSong_InvalidPlatform(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "ABCD")
	require.NoError(t, err)

	_, err = engine.SubmitSong(context.Background(), SubmitSongParams{
		RoomCode:     "ABCD",
		Title:        "Track1",
		Platform:     "SoundCloud",
		PlatformLink: "https://example.com/t1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCastVote_OnePerParticipantPerRound(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "ABCD")
	require.NoError(t, err)
	song := submitTestSong(t, engine, "ABCD", "Track1", "Alice")
	other := submitTestSong(t, engine, "ABCD", "Track2", "Bob")

	voted, err := engine.CastVote(context.Background(), "ABCD", song.ID, "Bob")
	require.NoError(t, err)
	assert.Equal(t, 1, voted.VoteCount)
	assert.Equal(t, []string{"Bob"}, voted.VotedUsers)

	// Same round, same voter: rejected regardless of target song or name case.
	_, err = engine.CastVote(context.Background(), "ABCD", song.ID, "bob")
	assert.ErrorIs(t, err, domain.ErrDuplicateVote)
	_, err = engine.CastVote(context.Background(), "ABCD", other.ID, "Bob")
	assert.ErrorIs(t, err, domain.ErrDuplicateVote)

	songs, err := engine.ListSongs(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.Equal(t, 1, songs[0].VoteCount)
	assert.Equal(t, 0, songs[1].VoteCount)
}

func TestCastVote_SongFromAnotherRoom(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "ROOMA")
	require.NoError(t, err)
	_, err = engine.CreateRoom(context.Background(), "Bob", "ROOMB")
	require.NoError(t, err)

	song := submitTestSong(t, engine, "ROOMA", "Track1", "Alice")

	_, err = engine.CastVote(context.Background(), "ROOMB", song.ID, "Bob")
	assert.ErrorIs(t, err, domain.ErrSongNotFound)
}

func TestCastVote_Concurrent(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "ABCD")
	require.NoError(t, err)
	song := submitTestSong(t, engine, "ABCD", "Track1", "Alice")

	const voters = 32

	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := engine.CastVote(context.Background(), "ABCD", song.ID, fmt.Sprintf("voter-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	songs, err := engine.ListSongs(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.Equal(t, voters, songs[0].VoteCount)
	assert.Len(t, songs[0].VotedUsers, voters)
}

func TestFinalizeRound_WinnerAndReset(t *testing.T) {
	engine, rec := newTestEngine(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "ABCD")
	require.NoError(t, err)

	track1 := submitTestSong(t, engine, "ABCD", "Track1", "Alice")
	track2 := submitTestSong(t, engine, "ABCD", "Track2", "Bob")

	_, err = engine.CastVote(context.Background(), "ABCD", track2.ID, "Alice")
	require.NoError(t, err)
	_, err = engine.CastVote(context.Background(), "ABCD", track2.ID, "Bob")
	require.NoError(t, err)
	_, err = engine.CastVote(context.Background(), "ABCD", track1.ID, "Carol")
	require.NoError(t, err)

	winner, err := engine.FinalizeRound(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.Equal(t, track2.ID, winner.ID)
	// The returned winner carries the tally it won with.
	assert.Equal(t, 2, winner.VoteCount)

	// Every tally and voter record is reset for the next round.
	songs, err := engine.ListSongs(context.Background(), "ABCD")
	require.NoError(t, err)
	for _, s := range songs {
		assert.Equal(t, 0, s.VoteCount)
		assert.Empty(t, s.VotedUsers)
	}

	// Voters from the finished round may vote again.
	_, err = engine.CastVote(context.Background(), "ABCD", track1.ID, "Alice")
	assert.NoError(t, err)

	assert.Len(t, rec.byType(ws.WinnerFinalized), 1)
	assert.Len(t, rec.byType(ws.RoundStarted), 1)
}

func TestFinalizeRound_TieBreaksToEarliestSubmission(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "ABCD")
	require.NoError(t, err)

	track1 := submitTestSong(t, engine, "ABCD", "Track1", "Alice")
	track2 := submitTestSong(t, engine, "ABCD", "Track2", "Bob")

	_, err = engine.CastVote(context.Background(), "ABCD", track1.ID, "Alice")
	require.NoError(t, err)
	_, err = engine.CastVote(context.Background(), "ABCD", track2.ID, "Bob")
	require.NoError(t, err)

	winner, err := engine.FinalizeRound(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.Equal(t, track1.ID, winner.ID)
}

func TestFinalizeRound_ZeroVotesStillPicksEarliest(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "ABCD")
	require.NoError(t, err)

	track1 := submitTestSong(t, engine, "ABCD", "Track1", "Alice")
	submitTestSong(t, engine, "ABCD", "Track2", "Bob")

	winner, err := engine.FinalizeRound(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.Equal(t, track1.ID, winner.ID)
	assert.Equal(t, 0, winner.VoteCount)
}

func TestFinalizeRound_EmptyPlaylist(t *testing.T) {
	engine, rec := newTestEngine(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "ABCD")
	require.NoError(t, err)

	_, err = engine.FinalizeRound(context.Background(), "ABCD")
	assert.ErrorIs(t, err, domain.ErrEmptyPlaylist)

	// A failed finalize mutates and announces nothing.
	assert.Empty(t, rec.byType(ws.WinnerFinalized))
	assert.Empty(t, rec.byType(ws.RoundStarted))
}

func TestStartNewRound_ClearsTallies(t *testing.T) {
	engine, rec := newTestEngine(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "ABCD")
	require.NoError(t, err)
	song := submitTestSong(t, engine, "ABCD", "Track1", "Alice")

	_, err = engine.CastVote(context.Background(), "ABCD", song.ID, "Bob")
	require.NoError(t, err)

	require.NoError(t, engine.StartNewRound(context.Background(), "ABCD"))

	songs, err := engine.ListSongs(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.Equal(t, 0, songs[0].VoteCount)
	assert.Empty(t, songs[0].VotedUsers)

	// No winner is declared on a plain reset.
	assert.Empty(t, rec.byType(ws.WinnerFinalized))
	assert.Len(t, rec.byType(ws.RoundStarted), 1)

	_, err = engine.CastVote(context.Background(), "ABCD", song.ID, "Bob")
	assert.NoError(t, err)
}

func TestFullRoundScenario(t *testing.T) {
	engine, rec := newTestEngine(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "abcd")
	require.NoError(t, err)

	_, already, err := engine.JoinRoom(context.Background(), "ABCD", "Alice")
	require.NoError(t, err)
	assert.False(t, already)
	_, already, err = engine.JoinRoom(context.Background(), "abcd", "Bob")
	require.NoError(t, err)
	assert.False(t, already)

	track1 := submitTestSong(t, engine, "ABCD", "Track1", "Alice")

	_, err = engine.CastVote(context.Background(), "ABCD", track1.ID, "Alice")
	require.NoError(t, err)
	_, err = engine.CastVote(context.Background(), "ABCD", track1.ID, "Bob")
	require.NoError(t, err)

	winner, err := engine.FinalizeRound(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.Equal(t, track1.ID, winner.ID)
	assert.Equal(t, 2, winner.VoteCount)

	assert.Len(t, rec.byType(ws.ParticipantJoined), 2)
	assert.Len(t, rec.byType(ws.VoteUpdated), 2)
	assert.Len(t, rec.byType(ws.WinnerFinalized), 1)
}
