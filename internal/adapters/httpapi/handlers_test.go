package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicerelay/internal/adapters/httpapi"
	"voicerelay/internal/adapters/ws"
	"voicerelay/internal/auth"
	"voicerelay/internal/config"
	"voicerelay/internal/core"
	"voicerelay/internal/domain"
	"voicerelay/internal/users"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testEnv struct {
	router   *gin.Engine
	manager  *core.Manager
	verifier *auth.Verifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	manager := core.NewManager()
	verifier := auth.NewVerifier("test-secret")
	dir := users.NewDirectory()
	dir.Put(&domain.User{ID: 1, Username: "alice", FullName: "Alice Example"})
	dir.Put(&domain.User{ID: 2, Username: "bob"})

	ctl := &ws.Controller{
		Manager:      manager,
		Verifier:     verifier,
		Users:        dir,
		ReadLimit:    32768,
		WriteTimeout: time.Second,
	}
	cfg := &config.Config{Mode: "test"}
	return &testEnv{
		router:   httpapi.NewRouter(cfg, manager, verifier, dir, ctl),
		manager:  manager,
		verifier: verifier,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body string, asUser domain.UserID) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if asUser != 0 {
		token, err := e.verifier.Issue(asUser, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRoomEndpointsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/voice/rooms", "", 0)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/voice/rooms", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRoom(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/voice/rooms", `{"room_name":"Standup"}`, 1)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Standup", body["room_name"])
	assert.Equal(t, float64(1), body["created_by"])
	roomID, _ := body["room_id"].(string)
	require.NotEmpty(t, roomID)
	assert.Equal(t, "/voice/ws/"+roomID, body["join_url"])
}

func TestCreateRoomWithoutBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/voice/rooms", "", 1)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	name, _ := body["room_name"].(string)
	assert.True(t, strings.HasPrefix(name, "Room "), "unnamed room gets a derived name, got %q", name)
}

func TestGetRoom(t *testing.T) {
	env := newTestEnv(t)
	roomID := env.manager.CreateRoom(1, "Standup")

	w := env.do(t, http.MethodGet, "/voice/rooms/"+string(roomID), "", 2)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	room := body["room"].(map[string]any)
	assert.Equal(t, string(roomID), room["room_id"])
	assert.Equal(t, true, room["is_active"])

	w = env.do(t, http.MethodGet, "/voice/rooms/unknown", "", 2)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRooms(t *testing.T) {
	env := newTestEnv(t)
	first := env.manager.CreateRoom(1, "first")
	env.manager.CreateRoom(1, "second")

	w := env.do(t, http.MethodGet, "/voice/rooms", "", 1)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(2), body["total_active_rooms"])
	rooms := body["rooms"].([]any)
	require.Len(t, rooms, 2)
	assert.Equal(t, string(first), rooms[0].(map[string]any)["room_id"])
	assert.Nil(t, body["your_current_room"])
}

func TestMyRoom(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/voice/my-room", "", 1)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no_room", decode(t, w)["status"])
}

func TestEndRoom(t *testing.T) {
	env := newTestEnv(t)
	roomID := env.manager.CreateRoom(1, "Standup")

	// Only the creator may end a room.
	w := env.do(t, http.MethodPost, "/voice/rooms/"+string(roomID)+"/end", "", 2)
	assert.Equal(t, http.StatusForbidden, w.Code)
	status, _ := env.manager.GetRoomStatus(roomID)
	assert.True(t, status.IsActive)

	w = env.do(t, http.MethodPost, "/voice/rooms/"+string(roomID)+"/end", "", 1)
	require.Equal(t, http.StatusOK, w.Code)
	status, _ = env.manager.GetRoomStatus(roomID)
	assert.False(t, status.IsActive)

	w = env.do(t, http.MethodPost, "/voice/rooms/unknown/end", "", 1)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
