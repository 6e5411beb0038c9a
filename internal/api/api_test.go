package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gridfire-go/internal/api"
	"github.com/mcoot/gridfire-go/internal/api/request"
	"github.com/mcoot/gridfire-go/internal/api/response"
	"github.com/mcoot/gridfire-go/internal/config"
	"github.com/mcoot/gridfire-go/internal/factory"
	"github.com/mcoot/gridfire-go/internal/model"
)

// testServer wires a full router against in-memory storage
type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests - use the production factory with
	// real random/clock and the in-memory store
	app, err := factory.New(config.Config{
		BoardSize: 10,
	}, logger)
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		Hub:            app.Hub,
		Sessions:       app.Sessions,
		Registry:       app.Registry,
	})

	return &testServer{handler: router}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestCreateGuest(t *testing.T) {
	ts := newTestServer(t)

	body := request.GuestRequest{DisplayName: "Alice"}
	rr := ts.request(http.MethodPost, "/api/v1/players/guest", body, "")

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp response.SessionResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "Alice", resp.DisplayName)
	assert.Empty(t, resp.Username)
	assert.NotEmpty(t, resp.Token)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	registerBody := request.RegisterRequest{
		Username:    "alice",
		Password:    "secret123",
		DisplayName: "Alice",
	}
	rr := ts.request(http.MethodPost, "/api/v1/players/register", registerBody, "")
	assert.Equal(t, http.StatusCreated, rr.Code)

	// Duplicate username is rejected
	rr = ts.request(http.MethodPost, "/api/v1/players/register", registerBody, "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	loginBody := request.LoginRequest{Username: "alice", Password: "secret123"}
	rr = ts.request(http.MethodPost, "/api/v1/players/login", loginBody, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var loginResp response.SessionResponse
	err := json.Unmarshal(rr.Body.Bytes(), &loginResp)
	require.NoError(t, err)
	assert.Equal(t, "alice", loginResp.Username)

	loginBody.Password = "wrong"
	rr = ts.request(http.MethodPost, "/api/v1/players/login", loginBody, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)
	token := createGuest(t, ts, "Bob")

	rr := ts.request(http.MethodGet, "/api/v1/players/me", nil, token)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp response.WhoAmIResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "Bob", resp.DisplayName)
	assert.Empty(t, resp.GameID)
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/players/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/games", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	token := createGuest(t, ts, "Alice")

	rr := ts.request(http.MethodPost, "/api/v1/players/logout", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/players/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateAndJoinGame(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuest(t, ts, "Alice")
	token2 := createGuest(t, ts, "Bob")

	rr := ts.request(http.MethodPost, "/api/v1/games", nil, token1)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var created response.GameResponse
	err := json.Unmarshal(rr.Body.Bytes(), &created)
	require.NoError(t, err)

	assert.Equal(t, model.PhaseWaiting, created.Phase)
	assert.Len(t, created.Players, 1)
	assert.Equal(t, 10, created.BoardSize)
	assert.NotEmpty(t, created.PlayerID)

	rr = ts.request(http.MethodPost, "/api/v1/games/"+string(created.ID)+"/join", nil, token2)
	assert.Equal(t, http.StatusOK, rr.Code)

	var joined response.GameResponse
	err = json.Unmarshal(rr.Body.Bytes(), &joined)
	require.NoError(t, err)
	assert.Len(t, joined.Players, 2)

	// A third player is turned away
	token3 := createGuest(t, ts, "Carol")
	rr = ts.request(http.MethodPost, "/api/v1/games/"+string(created.ID)+"/join", nil, token3)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestGetGameRequiresSeat(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuest(t, ts, "Alice")
	gameID := createGame(t, ts, token1)

	outsider := createGuest(t, ts, "Mallory")
	rr := ts.request(http.MethodGet, "/api/v1/games/"+gameID, nil, outsider)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestPlaceShipsAndStart(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuest(t, ts, "Alice")
	token2 := createGuest(t, ts, "Bob")
	gameID := createGame(t, ts, token1)
	joinGame(t, ts, token2, gameID)

	rr := ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/ships", fleetRequest(), token1)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp response.GameResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseSetup, resp.Phase)
	assert.Len(t, resp.Players[0].Ships, 5, "own ships are visible")

	// A second placement by the same player is rejected
	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/ships", fleetRequest(), token1)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/ships", fleetRequest(), token2)
	assert.Equal(t, http.StatusOK, rr.Code)

	err = json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, model.PhasePlaying, resp.Phase)
	assert.NotEmpty(t, resp.CurrentTurn)

	// Bob only sees ship counts for Alice, not positions
	for _, p := range resp.Players {
		if p.ID != resp.PlayerID {
			assert.Empty(t, p.Ships)
			assert.Equal(t, 5, p.ShipsLeft)
		}
	}
}

func TestInvalidPlacementRejected(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuest(t, ts, "Alice")
	token2 := createGuest(t, ts, "Bob")
	gameID := createGame(t, ts, token1)
	joinGame(t, ts, token2, gameID)

	// Two overlapping ships
	body := request.PlaceShipsRequest{Ships: []model.ShipSpec{
		{Length: 5, Start: "A1", Direction: model.DirectionHorizontal},
		{Length: 4, Start: "A1", Direction: model.DirectionVertical},
		{Length: 3, Start: "E1", Direction: model.DirectionHorizontal},
		{Length: 3, Start: "G1", Direction: model.DirectionHorizontal},
		{Length: 2, Start: "I1", Direction: model.DirectionHorizontal},
	}}
	rr := ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/ships", body, token1)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFullGameFlow(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuest(t, ts, "Alice")
	token2 := createGuest(t, ts, "Bob")
	gameID := createGame(t, ts, token1)
	joinGame(t, ts, token2, gameID)

	placeFleet(t, ts, token1, gameID)
	state := placeFleet(t, ts, token2, gameID)
	require.Equal(t, model.PhasePlaying, state.Phase)

	tokens := map[model.PlayerID]string{}
	for _, p := range state.Players {
		tok := token1
		if p.Name == "Bob" {
			tok = token2
		}
		tokens[p.ID] = tok
	}

	// Each side fires left to right, top to bottom; the starter reaches
	// the opposing fleet's last cell first and wins
	next := map[string]int{token1: 0, token2: 0}
	current := state.CurrentTurn
	var final response.AttackResponse
	for i := 0; i < 250; i++ {
		tok := tokens[current]
		coord := nthCoordinate(next[tok])
		next[tok]++

		rr := ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/attack",
			request.AttackRequest{Coordinate: coord}, tok)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var resp response.AttackResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		if resp.Finished {
			final = resp
			break
		}
		current = resp.NextTurn
	}

	require.True(t, final.Finished, "game should finish within the board")
	assert.NotEmpty(t, final.Winner)

	// Terminal state is visible to both players
	rr := ts.request(http.MethodGet, "/api/v1/games/"+gameID, nil, token2)
	require.Equal(t, http.StatusOK, rr.Code)

	var finished response.GameResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &finished))
	assert.Equal(t, model.PhaseFinished, finished.Phase)
	assert.Equal(t, final.Winner, finished.Winner)

	// No further shots
	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/attack",
		request.AttackRequest{Coordinate: "A1"}, tokens[final.Winner])
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAttackValidation(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuest(t, ts, "Alice")
	token2 := createGuest(t, ts, "Bob")
	gameID := createGame(t, ts, token1)
	joinGame(t, ts, token2, gameID)

	// Attacks before the game starts are rejected
	rr := ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/attack",
		request.AttackRequest{Coordinate: "A1"}, token1)
	assert.Equal(t, http.StatusConflict, rr.Code)

	placeFleet(t, ts, token1, gameID)
	state := placeFleet(t, ts, token2, gameID)

	activeToken, idleToken := token1, token2
	for _, p := range state.Players {
		if p.ID == state.CurrentTurn && p.Name == "Bob" {
			activeToken, idleToken = token2, token1
		}
	}

	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/attack",
		request.AttackRequest{Coordinate: "A1"}, idleToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/attack",
		request.AttackRequest{Coordinate: "Z99"}, activeToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPauseAndResume(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuest(t, ts, "Alice")
	token2 := createGuest(t, ts, "Bob")
	gameID := createGame(t, ts, token1)
	joinGame(t, ts, token2, gameID)
	placeFleet(t, ts, token1, gameID)
	placeFleet(t, ts, token2, gameID)

	rr := ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/pause", nil, token1)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/games/"+gameID, nil, token1)
	require.Equal(t, http.StatusOK, rr.Code)

	var paused response.GameResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &paused))
	assert.Equal(t, model.PhasePaused, paused.Phase)
	assert.True(t, paused.Paused)

	// Either seat may resume
	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/resume", nil, token2)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/resume", nil, token2)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAbandonGame(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuest(t, ts, "Alice")
	token2 := createGuest(t, ts, "Bob")
	gameID := createGame(t, ts, token1)
	joinGame(t, ts, token2, gameID)

	rr := ts.request(http.MethodDelete, "/api/v1/games/"+gameID, nil, token2)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/games/"+gameID, nil, token1)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.GameResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, model.PhaseAbandoned, resp.Phase)
}

func TestReconnectionWithoutDisconnect(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuest(t, ts, "Alice")
	gameID := createGame(t, ts, token1)

	rr := ts.request(http.MethodGet, "/api/v1/games/"+gameID+"/reconnection", nil, token1)
	assert.Equal(t, http.StatusGone, rr.Code)
}

// Helper functions

func createGuest(t *testing.T, ts *testServer, displayName string) string {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/players/guest",
		request.GuestRequest{DisplayName: displayName}, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Token
}

func createGame(t *testing.T, ts *testServer, token string) string {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/games", nil, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.GameResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return string(resp.ID)
}

func joinGame(t *testing.T, ts *testServer, token, gameID string) {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/join", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
}

func fleetRequest() request.PlaceShipsRequest {
	return request.PlaceShipsRequest{Ships: []model.ShipSpec{
		{Length: 5, Start: "A1", Direction: model.DirectionHorizontal},
		{Length: 4, Start: "C1", Direction: model.DirectionHorizontal},
		{Length: 3, Start: "E1", Direction: model.DirectionHorizontal},
		{Length: 3, Start: "G1", Direction: model.DirectionHorizontal},
		{Length: 2, Start: "I1", Direction: model.DirectionHorizontal},
	}}
}

func placeFleet(t *testing.T, ts *testServer, token, gameID string) response.GameResponse {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/ships", fleetRequest(), token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp response.GameResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

// nthCoordinate walks the board left to right, top to bottom
func nthCoordinate(n int) string {
	row := n / 10
	col := n%10 + 1
	return fmt.Sprintf("%c%d", 'A'+row, col)
}
