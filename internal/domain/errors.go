package domain

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")

	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrSongNotFound      = errors.New("song not found")

	ErrDuplicateVote = errors.New("already voted this round")
	ErrEmptyPlaylist = errors.New("no songs submitted")

	ErrUpstreamUnavailable = errors.New("catalog provider unavailable")
	ErrStoreUnavailable    = errors.New("store unavailable")
)
