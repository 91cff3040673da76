package rooms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatvote/beatvote/internal/infrastructure/logging"
	"github.com/beatvote/beatvote/internal/infrastructure/ws"
	"github.com/beatvote/beatvote/internal/persistence/memory"
	"github.com/beatvote/beatvote/internal/voting"
)

func newTestHandler(t *testing.T) (*Handler, *voting.Engine) {
	t.Helper()

	logger := logging.NewNopLogger()
	hub := ws.NewHub()
	engine := voting.NewEngine(memory.NewRoomRepository(), memory.NewSongRepository(), hub, logger)
	return NewHandler(engine, hub, nil, logger), engine
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCreateRoomHandler(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := postJSON(t, handler.CreateRoomHandler, `{"createdBy":"Alice","roomCode":"abcd"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp createRoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ABCD", resp.Room.RoomCode)
	assert.Equal(t, "Alice", resp.Room.CreatedBy)
}

func TestCreateRoomHandler_Conflict(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := postJSON(t, handler.CreateRoomHandler, `{"createdBy":"Alice","roomCode":"ABCD"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, handler.CreateRoomHandler, `{"createdBy":"Bob","roomCode":"abcd"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateRoomHandler_BadRequest(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := postJSON(t, handler.CreateRoomHandler, `{"createdBy":"","roomCode":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, handler.CreateRoomHandler, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinRoomHandler(t *testing.T) {
	handler, engine := newTestHandler(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "ABCD")
	require.NoError(t, err)

	rec := postJSON(t, handler.JoinRoomHandler, `{"name":"Bob","roomCode":"abcd"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp joinRoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bob joined the room.", resp.Message)
	assert.Equal(t, "ABCD", resp.RoomCode)
	assert.Equal(t, 1, resp.JoinedCount)

	// The second join succeeds without growing the membership.
	rec = postJSON(t, handler.JoinRoomHandler, `{"name":"bob","roomCode":"ABCD"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bob already joined.", resp.Message)
	assert.Equal(t, 1, resp.JoinedCount)
}

func TestJoinRoomHandler_RoomNotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := postJSON(t, handler.JoinRoomHandler, `{"name":"Bob","roomCode":"NOPE"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRoundHandler(t *testing.T) {
	handler, engine := newTestHandler(t)

	_, err := engine.CreateRoom(context.Background(), "Alice", "ABCD")
	require.NoError(t, err)

	rec := postJSON(t, handler.NewRoundHandler, `{"roomCode":"abcd"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, handler.NewRoundHandler, `{"roomCode":"NOPE"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
