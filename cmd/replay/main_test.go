package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trytobebee/snakeai/pkg/game"
	"github.com/trytobebee/snakeai/pkg/grid"
	"github.com/trytobebee/snakeai/pkg/wire"
)

func writeRecording(t *testing.T, dir, name string, n int) {
	t.Helper()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		rec := game.StepRecord{
			StepID: i,
			Time:   start.Add(time.Duration(i) * 20 * time.Millisecond),
			Board:  grid.Board{Width: 8, Height: 6},
			Snake:  []grid.Point{{X: 2 + i, Y: 3}, {X: 1 + i, Y: 3}},
			Score:  i,
			Level:  "genius",
		}
		data, err := json.Marshal(rec)
		require.NoError(t, err)
		sb.Write(data)
		sb.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sb.String()), 0644))
}

func TestFrameGap(t *testing.T) {
	t0 := time.Unix(0, 0)
	a := game.StepRecord{Time: t0}

	assert.Equal(t, 100*time.Millisecond, frameGap(a, game.StepRecord{Time: t0.Add(200 * time.Millisecond)}, 2))
	assert.Equal(t, minFrameGap, frameGap(a, game.StepRecord{Time: t0}, 1))
	assert.Equal(t, maxFrameGap, frameGap(a, game.StepRecord{Time: t0.Add(time.Hour)}, 1))
}

func TestListRecords(t *testing.T) {
	dir := t.TempDir()
	writeRecording(t, dir, "game_abc_1700000000.jsonl", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	records, err := listRecords(dir)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "abc", records[0].SessionID)

	records, err = listRecords(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReplayStreamsRecording(t *testing.T) {
	dir := t.TempDir()
	writeRecording(t, dir, "game_s1_1.jsonl", 3)

	srv := &ReplayServer{recordDir: dir, speed: 1, logger: log.NewNopLogger()}
	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleIndex)
	mux.HandleFunc("/ws/replay", srv.handleReplayWS)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/ws/replay?file=nope.jsonl")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/replay?file=../" + filepath.Base(dir) + "/game_s1_1.jsonl"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg wire.ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, wire.TypeConfig, msg.Type)
	assert.Equal(t, 8, msg.Config.Width)

	for i := 0; i < 3; i++ {
		msg = wire.ServerMessage{}
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, wire.TypeState, msg.Type)
		assert.Equal(t, i, msg.State.Tick)
		assert.Equal(t, "genius", msg.State.Level)
		assert.Equal(t, grid.Point{X: 2 + i, Y: 3}, msg.State.Snake[0])
	}
}
