package songs

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/beatvote/beatvote/internal/domain"
	"github.com/beatvote/beatvote/internal/infrastructure/events"
	"github.com/beatvote/beatvote/internal/infrastructure/json"
	"github.com/beatvote/beatvote/internal/infrastructure/logging"
	"github.com/beatvote/beatvote/internal/voting"
)

type Handler struct {
	engine    *voting.Engine
	publisher *events.RoomPublisher
	logger    logging.Logger
}

func NewHandler(engine *voting.Engine, publisher *events.RoomPublisher, logger logging.Logger) *Handler {
	return &Handler{
		engine:    engine,
		publisher: publisher,
		logger:    logger,
	}
}

// SubmitSongHandler handles POST /api/songs/submit.
func (h *Handler) SubmitSongHandler(w http.ResponseWriter, r *http.Request) {
	var req submitSongRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	song, err := h.engine.SubmitSong(r.Context(), voting.SubmitSongParams{
		RoomCode:     req.RoomCode,
		Title:        req.Title,
		Artist:       req.Artist,
		Platform:     req.Platform,
		PlatformLink: req.PlatformLink,
		Thumbnail:    req.Thumbnail,
		SubmittedBy:  req.SubmittedBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			json.WriteBadRequestError(w, "title, platform and roomCode are required")
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		case errors.Is(err, domain.ErrStoreUnavailable):
			json.WriteError(w, http.StatusServiceUnavailable, err, "Store unavailable")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusCreated, submitSongResponse{
		Message: "Song submitted successfully",
		Song:    song,
	})
}

// VoteHandler handles POST /api/songs/vote. Each participant gets one
// vote per round; a repeat vote is rejected with a conflict.
func (h *Handler) VoteHandler(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	song, err := h.engine.CastVote(r.Context(), req.RoomCode, req.SongID, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			json.WriteBadRequestError(w, "songId, username and roomCode are required")
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		case errors.Is(err, domain.ErrSongNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Song not found")
		case errors.Is(err, domain.ErrDuplicateVote):
			json.WriteError(w, http.StatusConflict, err, "You already voted this round")
		case errors.Is(err, domain.ErrStoreUnavailable):
			json.WriteError(w, http.StatusServiceUnavailable, err, "Store unavailable")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusOK, voteResponse{
		Message: "Vote recorded",
		Song:    song,
	})
}

// FinalizeHandler handles POST /api/songs/finalize: closes the round,
// declares the winner and resets every tally for the next round.
func (h *Handler) FinalizeHandler(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	winner, err := h.engine.FinalizeRound(r.Context(), req.RoomCode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		case errors.Is(err, domain.ErrEmptyPlaylist):
			json.WriteError(w, http.StatusUnprocessableEntity, err, "No songs submitted this round")
		case errors.Is(err, domain.ErrStoreUnavailable):
			json.WriteError(w, http.StatusServiceUnavailable, err, "Store unavailable")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	code := domain.NormalizeCode(req.RoomCode)
	if err := h.publisher.PublishWinnerFinalized(r.Context(), code, winner); err != nil {
		h.logger.Warn(logging.RabbitMQ, logging.ExternalService, "failed to publish winner finalized", map[logging.ExtraKey]any{
			logging.RoomCode:     code,
			logging.ErrorMessage: err.Error(),
		})
	}

	json.Write(w, http.StatusOK, finalizeResponse{
		Message: "Round finalized",
		Winner:  winner,
	})
}

// ListSongsHandler handles GET /api/songs/{roomCode}: the room's songs in
// submission order with their current tallies.
func (h *Handler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	roomCode := chi.URLParam(r, "roomCode")

	songs, err := h.engine.ListSongs(r.Context(), roomCode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		case errors.Is(err, domain.ErrStoreUnavailable):
			json.WriteError(w, http.StatusServiceUnavailable, err, "Store unavailable")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusOK, listSongsResponse{Songs: songs})
}
