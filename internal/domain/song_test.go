package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlatform(t *testing.T) {
	platform, err := ParsePlatform("Spotify")
	require.NoError(t, err)
	assert.Equal(t, PlatformSpotify, platform)

	platform, err = ParsePlatform(" YouTube ")
	require.NoError(t, err)
	assert.Equal(t, PlatformYouTube, platform)

	_, err = ParsePlatform("spotify") // enum is case sensitive
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParsePlatform("SoundCloud")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParsePlatform("")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewSong(t *testing.T) {
	song, err := NewSong(NewSongParams{
		RoomID:       "room-1",
		Title:        "  Track One ",
		Artist:       "Artist A",
		Platform:     "Spotify",
		PlatformLink: "https://open.spotify.com/track/1",
		SubmittedBy:  "Alice",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, song.ID)
	assert.Equal(t, "room-1", song.RoomID)
	assert.Equal(t, "Track One", song.Title)
	assert.Equal(t, PlatformSpotify, song.Platform)
	assert.Equal(t, 0, song.VoteCount)
	assert.Empty(t, song.VotedUsers)
}

func TestNewSong_Validation(t *testing.T) {
	base := NewSongParams{
		RoomID:       "room-1",
		Title:        "Track One",
		Platform:     "Spotify",
		PlatformLink: "https://open.spotify.com/track/1",
	}

	missingTitle := base
	missingTitle.Title = "  "
	_, err := NewSong(missingTitle)
	assert.ErrorIs(t, err, ErrInvalidInput)

	missingLink := base
	missingLink.PlatformLink = ""
	_, err = NewSong(missingLink)
	assert.ErrorIs(t, err, ErrInvalidInput)

	missingRoom := base
	missingRoom.RoomID = ""
	_, err = NewSong(missingRoom)
	assert.ErrorIs(t, err, ErrInvalidInput)

	badPlatform := base
	badPlatform.Platform = "Tape"
	_, err = NewSong(badPlatform)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
