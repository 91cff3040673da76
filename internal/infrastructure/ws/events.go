package ws

const (
	ParticipantJoined  = "participant.joined"
	ViewerCountUpdated = "viewer.count"

	SongAdded   = "song.added"
	VoteUpdated = "vote.updated"

	WinnerFinalized = "winner.finalized"
	RoundStarted    = "round.started"

	ErrorEvent = "error"
)
