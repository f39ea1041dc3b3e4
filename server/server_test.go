package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"tictac/game"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(Config{Iterations: 300, Seed: 7}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestGameLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/games", `{"size":3}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[gameResponse](t, resp)
	require.NotEmpty(t, created.ID)
	require.Len(t, created.Board, 3)
	require.Equal(t, int8(game.PlayerX), created.NextPlayer)
	require.Equal(t, "in progress", created.Status)

	resp, err := http.Get(srv.URL + "/games/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decode[gameResponse](t, resp)
	require.Equal(t, created, fetched)

	// The human plays X at (0,0); the engine answers for O.
	resp = postJSON(t, srv.URL+"/games/"+created.ID+"/moves", `{"row":0,"col":0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moved := decode[moveResponse](t, resp)
	require.NotNil(t, moved.EngineMove)
	require.Equal(t, "in progress", moved.Status)

	var xs, os int
	for _, row := range moved.Board {
		for _, cell := range row {
			switch game.Player(cell) {
			case game.PlayerX:
				xs++
			case game.PlayerO:
				os++
			}
		}
	}
	require.Equal(t, 1, xs)
	require.Equal(t, 1, os, "the engine reply must be on the returned board")
	require.Equal(t, int8(game.PlayerO),
		moved.Board[moved.EngineMove.Row][moved.EngineMove.Col])
}

func TestMoveValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/games", "")
	created := decode[gameResponse](t, resp)
	moves := srv.URL + "/games/" + created.ID + "/moves"

	t.Run("unknown game", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/games/nope/moves", `{"row":0,"col":0}`)
		resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := postJSON(t, moves, `{"row":`)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("out of bounds", func(t *testing.T) {
		resp := postJSON(t, moves, `{"row":9,"col":0}`)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("occupied cell", func(t *testing.T) {
		resp := postJSON(t, moves, `{"row":1,"col":1}`)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = postJSON(t, moves, `{"row":1,"col":1}`)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestFinishedGame(t *testing.T) {
	srv := newTestServer(t)

	// A 1x1 board ends on the first move, so the engine never replies.
	resp := postJSON(t, srv.URL+"/games", `{"size":1}`)
	created := decode[gameResponse](t, resp)
	moves := srv.URL + "/games/" + created.ID + "/moves"

	resp = postJSON(t, moves, `{"row":0,"col":0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moved := decode[moveResponse](t, resp)
	require.Nil(t, moved.EngineMove)
	require.Equal(t, "X wins", moved.Status)
	require.Equal(t, "You win!", moved.Message)

	resp = postJSON(t, moves, `{"row":0,"col":0}`)
	resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestWatchStreamsEvents(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/games", `{"size":3}`)
	created := decode[gameResponse](t, resp)

	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/games/" + created.ID + "/watch"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the handler a moment to register the connection before the
	// move fans out.
	time.Sleep(100 * time.Millisecond)

	resp = postJSON(t, srv.URL+"/games/"+created.ID+"/moves", `{"row":0,"col":0}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	sawSearch := false
	for {
		var event watchEvent
		require.NoError(t, conn.ReadJSON(&event), "the move event must arrive")

		switch event.Event {
		case "search":
			sawSearch = true
			require.Positive(t, event.Iteration)
			require.Equal(t, 300, event.Total)
		case "move":
			require.NotEmpty(t, event.Board)
			require.Equal(t, "in progress", event.Status)
			require.True(t, sawSearch, "search progress precedes the move event")
			return
		default:
			t.Fatalf("unexpected event %q", event.Event)
		}
	}
}

func TestWatchUnknownGame(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/games/nope/watch")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
