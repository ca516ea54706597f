package main

import (
	"context"
	"flag"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/websocket"

	"github.com/trytobebee/snakeai/pkg/game"
	"github.com/trytobebee/snakeai/pkg/logging"
	"github.com/trytobebee/snakeai/pkg/renderer"
	"github.com/trytobebee/snakeai/pkg/wire"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Bounds on the pause between two replayed records
const (
	minFrameGap = 10 * time.Millisecond
	maxFrameGap = time.Second
)

// ReplayServer handles serving replay UI and data
type ReplayServer struct {
	recordDir string
	speed     float64
	logger    log.Logger
}

func main() {
	var (
		addr      = flag.String("addr", ":8081", "listen address")
		recordDir = flag.String("dir", "records", "directory holding JSONL recordings")
		file      = flag.String("file", "", "play one recording in the terminal instead of serving")
		speed     = flag.Float64("speed", 1, "playback speed multiplier")
		logLevel  = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logger, err := logging.New(os.Stderr, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *speed <= 0 {
		level.Error(logger).Log("msg", "speed must be positive", "speed", *speed)
		os.Exit(1)
	}

	if *file != "" {
		if err := playTerminal(*file, *speed); err != nil {
			level.Error(logger).Log("msg", "replay failed", "err", err)
			os.Exit(1)
		}
		return
	}

	server := &ReplayServer{recordDir: *recordDir, speed: *speed, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/", server.handleIndex)
	mux.HandleFunc("/ws/replay", server.handleReplayWS)

	level.Info(logger).Log("msg", "replay server starting", "addr", *addr, "dir", *recordDir)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		level.Error(logger).Log("msg", "server failed", "err", err)
		os.Exit(1)
	}
}

// frameGap returns how long to wait before showing next after prev
func frameGap(prev, next game.StepRecord, speed float64) time.Duration {
	gap := time.Duration(float64(next.Time.Sub(prev.Time)) / speed)
	if gap < minFrameGap {
		return minFrameGap
	}
	if gap > maxFrameGap {
		return maxFrameGap
	}
	return gap
}

func playTerminal(path string, speed float64) error {
	records, err := game.ReadRecords(path)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%s: no records", path)
	}

	b := records[0].Board
	render := renderer.NewTerminalRenderer(os.Stdout, b.Width, b.Height)
	render.HideCursor()
	defer render.ShowCursor()

	for i, rec := range records {
		if i > 0 {
			time.Sleep(frameGap(records[i-1], rec, speed))
		}
		if err := render.Render(rec.Snapshot()); err != nil {
			return err
		}
	}
	fmt.Printf("\n  Replayed %d steps from %s\n", len(records), filepath.Base(path))
	return nil
}

type RecordFile struct {
	Name      string
	Size      int64
	Time      time.Time
	SessionID string
}

// listRecords returns the recordings in dir, newest first
func listRecords(dir string) ([]RecordFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var records []RecordFile
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".jsonl" {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		// expecting format: game_{sessionID}_{timestamp}.jsonl
		sessID := ""
		if parts := strings.Split(strings.TrimSuffix(f.Name(), ".jsonl"), "_"); len(parts) >= 3 {
			sessID = strings.Join(parts[1:len(parts)-1], "_")
		}
		records = append(records, RecordFile{
			Name:      f.Name(),
			Size:      info.Size(),
			Time:      info.ModTime(),
			SessionID: sessID,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Time.After(records[j].Time)
	})
	return records, nil
}

var indexTmpl = template.Must(template.New("index").Parse(`
<!DOCTYPE html>
<html>
<head>
    <title>Snake Replays</title>
    <style>
        body { font-family: monospace; background: #1a202c; color: #fff; padding: 2rem; }
        h1 { color: #48bb78; }
        .file-list { display: grid; gap: 1rem; }
        .file-item {
            background: #2d3748; padding: 1rem; border-radius: 8px;
            display: flex; justify-content: space-between; align-items: center;
        }
        .file-item:hover { background: #4a5568; }
        .meta { color: #a0aec0; font-size: 0.9em; }
        code { color: #63b3ed; }
    </style>
</head>
<body>
    <h1>📼 Replay Library</h1>
    <div class="file-list">
        {{range .}}
        <div class="file-item">
            <div>
                <div class="name">{{.Name}}</div>
                <div class="meta">Session: {{.SessionID}} | Size: {{.Size}} bytes | {{.Time.Format "2006-01-02 15:04:05"}}</div>
            </div>
            <code>/ws/replay?file={{.Name}}</code>
        </div>
        {{else}}
        <p>No recordings found</p>
        {{end}}
    </div>
</body>
</html>`))

func (s *ReplayServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	records, err := listRecords(s.recordDir)
	if err != nil {
		level.Error(s.logger).Log("msg", "list records failed", "err", err)
		http.Error(w, "cannot list recordings", http.StatusInternalServerError)
		return
	}
	if err := indexTmpl.Execute(w, records); err != nil {
		level.Warn(s.logger).Log("msg", "render index failed", "err", err)
	}
}

// handleReplayWS streams a recording as state frames. The client may send
// {"action":"pause"} and {"action":"start"} to hold and resume playback.
func (s *ReplayServer) handleReplayWS(w http.ResponseWriter, r *http.Request) {
	codec, err := wire.CodecByName(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Base name only; recordings never live outside recordDir
	name := filepath.Base(r.URL.Query().Get("file"))
	records, err := game.ReadRecords(filepath.Join(s.recordDir, name))
	if err != nil {
		level.Warn(s.logger).Log("msg", "failed to open record", "file", name, "err", err)
		http.Error(w, "recording not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read loop for controls
	pause := make(chan bool, 1)
	go func() {
		defer cancel()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg wire.ClientMessage
			if codec.Unmarshal(data, &msg) != nil {
				continue
			}
			var p bool
			switch msg.Action {
			case wire.ActionPause:
				p = true
			case wire.ActionStart:
				p = false
			default:
				continue
			}
			select {
			case <-pause:
			default:
			}
			pause <- p
		}
	}()

	if err := s.stream(ctx, conn, codec, name, records, pause); err != nil {
		level.Debug(s.logger).Log("msg", "replay stream ended", "file", name, "err", err)
	}
}

func (s *ReplayServer) stream(ctx context.Context, conn *websocket.Conn, codec wire.Codec, name string, records []game.StepRecord, pause <-chan bool) error {
	kind := websocket.TextMessage
	if codec.Binary() {
		kind = websocket.BinaryMessage
	}
	send := func(msg wire.ServerMessage) error {
		data, err := codec.Marshal(msg)
		if err != nil {
			return err
		}
		return conn.WriteMessage(kind, data)
	}

	if len(records) > 0 {
		b := records[0].Board
		if err := send(wire.ServerMessage{Type: wire.TypeConfig, Config: &wire.ConfigFrame{
			SessionID: name, Width: b.Width, Height: b.Height, Codec: codec.Name(),
		}}); err != nil {
			return err
		}
	}

	paused := false
	timer := time.NewTimer(0)
	defer timer.Stop()

	for i := 0; i < len(records); {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case paused = <-pause:
			continue
		case <-timer.C:
		}
		if paused {
			timer.Reset(100 * time.Millisecond)
			continue
		}

		frame := wire.FromSnapshot(records[i].Snapshot())
		if err := send(wire.ServerMessage{Type: wire.TypeState, State: &frame}); err != nil {
			return err
		}
		i++
		if i < len(records) {
			timer.Reset(frameGap(records[i-1], records[i], s.speed))
		}
	}
	return nil
}
