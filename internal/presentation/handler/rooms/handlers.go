package rooms

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/beatvote/beatvote/internal/domain"
	"github.com/beatvote/beatvote/internal/infrastructure/events"
	"github.com/beatvote/beatvote/internal/infrastructure/json"
	"github.com/beatvote/beatvote/internal/infrastructure/logging"
	"github.com/beatvote/beatvote/internal/infrastructure/metrics"
	"github.com/beatvote/beatvote/internal/infrastructure/ws"
	"github.com/beatvote/beatvote/internal/voting"
)

type Handler struct {
	engine    *voting.Engine
	hub       *ws.Hub
	publisher *events.RoomPublisher
	logger    logging.Logger
}

func NewHandler(engine *voting.Engine, hub *ws.Hub, publisher *events.RoomPublisher, logger logging.Logger) *Handler {
	return &Handler{
		engine:    engine,
		hub:       hub,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateRoomHandler handles POST /api/rooms/create.
func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	room, err := h.engine.CreateRoom(r.Context(), req.CreatedBy, req.RoomCode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			json.WriteBadRequestError(w, "createdBy and roomCode are required")
		case errors.Is(err, domain.ErrRoomAlreadyExists):
			json.WriteError(w, http.StatusConflict, err, "Room code already exists")
		case errors.Is(err, domain.ErrStoreUnavailable):
			json.WriteError(w, http.StatusServiceUnavailable, err, "Store unavailable")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	if err := h.publisher.PublishRoomCreated(r.Context(), room); err != nil {
		h.logger.Warn(logging.RabbitMQ, logging.ExternalService, "failed to publish room created", map[logging.ExtraKey]any{
			logging.RoomCode:     room.Code,
			logging.ErrorMessage: err.Error(),
		})
	}

	json.Write(w, http.StatusCreated, createRoomResponse{
		Message: "Room created successfully",
		Room:    newRoomSummary(room),
	})
}

// JoinRoomHandler handles POST /api/rooms/join. Joining twice with the
// same name succeeds both times and leaves the membership unchanged.
func (h *Handler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	count, already, err := h.engine.JoinRoom(r.Context(), req.RoomCode, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			json.WriteBadRequestError(w, "name and roomCode are required")
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		case errors.Is(err, domain.ErrStoreUnavailable):
			json.WriteError(w, http.StatusServiceUnavailable, err, "Store unavailable")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	message := fmt.Sprintf("%s joined the room.", req.Name)
	if already {
		message = fmt.Sprintf("%s already joined.", req.Name)
	}

	if !already {
		if err := h.publisher.PublishRoomJoined(r.Context(), domain.NormalizeCode(req.RoomCode), req.Name); err != nil {
			h.logger.Warn(logging.RabbitMQ, logging.ExternalService, "failed to publish room joined", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
	}

	json.Write(w, http.StatusOK, joinRoomResponse{
		Message:     message,
		RoomCode:    domain.NormalizeCode(req.RoomCode),
		JoinedCount: count,
	})
}

// NewRoundHandler handles POST /api/rooms/new-round: reopen voting
// without declaring a winner.
func (h *Handler) NewRoundHandler(w http.ResponseWriter, r *http.Request) {
	var req newRoundRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.engine.StartNewRound(r.Context(), req.RoomCode); err != nil {
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

	json.Write(w, http.StatusOK, newRoundResponse{
		Message:  "New round started",
		RoomCode: domain.NormalizeCode(req.RoomCode),
	})
}

// EventsHandler handles GET /api/rooms/events: upgrades to a WebSocket
// through which the viewer joins and leaves room event streams. An
// optional ?room= query subscribes immediately.
func (h *Handler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.hub.Upgrade(w, r)
	if err != nil {
		h.logger.Warn(logging.WebSocket, logging.Subscription, "websocket upgrade failed", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	client := ws.NewClient(conn)
	metrics.ActiveViewers.Inc()

	if roomCode := r.URL.Query().Get("room"); roomCode != "" {
		h.hub.Subscribe(roomCode, client)
	}

	go client.WritePump()
	go func() {
		client.ReadPump(h.hub)
		metrics.ActiveViewers.Dec()
	}()
}
