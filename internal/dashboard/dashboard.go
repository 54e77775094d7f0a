// Package dashboard implements a small, strictly read-only local web
// view over a repository's status, branches, and commit log (spec.md's
// domain-stack expansion in SPEC_FULL.md §4.12). It never mutates
// store, branch, or staging state; every handler goes through
// internal/repo's read-only operations.
//
// Grounded on rybkr-gitvista's internal/server: a fsnotify watcher on
// the repository's ref files debounces into a broadcast over
// gorilla/websocket, with ping/pong keepalive and a local-only
// CheckOrigin. Simplified from that pack member's multi-session,
// cached-repository-reload design because internal/repo.Repository
// already reads branch refs and commit objects fresh from disk on
// every call — there is no in-memory repository snapshot to diff
// against an old one, so a file-change event just recomputes and
// broadcasts the current snapshot directly.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/yuin/goldmark"

	"github.com/mhalvorsen/anvilvcs/internal/inspect"
	"github.com/mhalvorsen/anvilvcs/internal/repo"
)

const (
	writeWait            = 10 * time.Second
	pongWait             = 60 * time.Second
	pingPeriod           = 54 * time.Second
	maxMessageSize       = 512
	debounceTime         = 150 * time.Millisecond
	broadcastChannelSize = 64
)

// CommitView is one commit rendered for display: the raw fields plus
// the commit message rendered to HTML via goldmark, so multi-line
// Markdown-formatted messages display readably.
type CommitView struct {
	Hash        string   `json:"hash"`
	Parents     []string `json:"parents"`
	Author      string   `json:"author"`
	Timestamp   string   `json:"timestamp"`
	MessageHTML string   `json:"messageHtml"`
}

// Snapshot is the full state pushed to a connected browser.
type Snapshot struct {
	Branch   string           `json:"branch"`
	Detached bool             `json:"detached"`
	Clean    bool             `json:"clean"`
	Changes  []inspect.Change `json:"changes"`
	Log      []CommitView     `json:"log"`
}

// Server is a read-only dashboard over a single repository.
type Server struct {
	root   string
	repo   *repo.Repository
	logger *slog.Logger

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	broadcast chan Snapshot

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer opens the repository at root and prepares a dashboard
// server for it.
func NewServer(root string) (*Server, error) {
	r, err := repo.Open(root)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		root:      root,
		repo:      r,
		logger:    slog.Default().With("component", "dashboard"),
		clients:   make(map[*websocket.Conn]*sync.Mutex),
		broadcast: make(chan Snapshot, broadcastChannelSize),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// ListenAndServe starts the HTTP/WebSocket server on addr, along with
// the ref-file watcher, and blocks until the server stops or ctx is
// cancelled by Close.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleWebSocket)

	if err := s.startWatcher(); err != nil {
		return fmt.Errorf("dashboard: start watcher: %w", err)
	}

	s.wg.Add(1)
	go s.handleBroadcast()

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-s.ctx.Done()
		_ = srv.Close()
	}()

	s.logger.Info("dashboard listening", "addr", addr, "root", s.root)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close stops the watcher and broadcast goroutines and closes the
// underlying repository.
func (s *Server) Close() error {
	s.cancel()
	s.wg.Wait()
	return s.repo.Close()
}

func (s *Server) snapshot() Snapshot {
	branch, detached, err := s.repo.HeadStatus()
	if err != nil {
		s.logger.Error("head status failed", "err", err)
	}

	status, err := s.repo.Status()
	if err != nil {
		s.logger.Error("status failed", "err", err)
		return Snapshot{Branch: branch, Detached: detached}
	}

	entries, err := s.repo.Log()
	if err != nil {
		s.logger.Error("log failed", "err", err)
	}

	views := make([]CommitView, 0, len(entries))
	for _, e := range entries {
		parents := make([]string, len(e.Commit.Parents))
		for i, p := range e.Commit.Parents {
			parents[i] = p.String()
		}
		views = append(views, CommitView{
			Hash:        e.Hash.String(),
			Parents:     parents,
			Author:      e.Commit.Author,
			Timestamp:   e.Commit.TimestampText(),
			MessageHTML: renderMarkdown(e.Commit.Message),
		})
	}

	return Snapshot{
		Branch:   branch,
		Detached: detached,
		Clean:    status.Clean(),
		Changes:  status.Changes,
		Log:      views,
	}
}

func renderMarkdown(message string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(message), &buf); err != nil {
		return message
	}
	return buf.String()
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

var upgrader = websocket.Upgrader{
	// Local-only: accept requests with no Origin header, and browser
	// requests only from a page served by localhost.
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		switch u.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return true
		}
		return false
	},
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeMu := &sync.Mutex{}
	s.clientsMu.Lock()
	s.clients[conn] = writeMu
	s.clientsMu.Unlock()

	s.sendTo(conn, writeMu, s.snapshot())

	done := make(chan struct{})
	go s.clientReadPump(conn, done)
	go s.clientWritePump(conn, done, writeMu)
}

func (s *Server) sendTo(conn *websocket.Conn, writeMu *sync.Mutex, snap Snapshot) {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(snap); err != nil {
		s.logger.Error("websocket write failed", "err", err)
	}
}

func (s *Server) clientReadPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) clientWritePump(conn *websocket.Conn, done chan struct{}, writeMu *sync.Mutex) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer s.removeClient(conn)

	for {
		select {
		case <-done:
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
	_ = conn.Close()
}

func (s *Server) handleBroadcast() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case snap := <-s.broadcast:
			s.clientsMu.RLock()
			snapshot := make(map[*websocket.Conn]*sync.Mutex, len(s.clients))
			for conn, mu := range s.clients {
				snapshot[conn] = mu
			}
			s.clientsMu.RUnlock()
			for conn, mu := range snapshot {
				s.sendTo(conn, mu, snap)
			}
		}
	}
}

func (s *Server) queueBroadcast() {
	select {
	case s.broadcast <- s.snapshot():
	default:
		s.logger.Warn("broadcast channel full, dropping snapshot")
	}
}

func (s *Server) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	metaDir := filepath.Join(s.root, repo.MetaDirName)
	watchPaths := []string{
		filepath.Join(metaDir, "branches"),
		filepath.Join(metaDir, "head"),
	}
	for _, p := range watchPaths {
		if err := watcher.Add(p); err != nil {
			s.logger.Warn("failed to watch path", "path", p, "err", err)
		}
	}

	s.wg.Add(1)
	go s.watchLoop(watcher)
	return nil
}

func (s *Server) watchLoop(watcher *fsnotify.Watcher) {
	defer s.wg.Done()
	defer watcher.Close()

	var debounceTimer *time.Timer

	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if shouldIgnoreEvent(event) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceTime, func() {
				if s.ctx.Err() != nil {
					return
				}
				s.queueBroadcast()
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("watcher error", "err", err)
		}
	}
}

func shouldIgnoreEvent(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}
	if strings.HasSuffix(base, ".tmp") {
		return true
	}
	return false
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>anvil dashboard</title></head>
<body>
<h1>anvil</h1>
<pre id="status"></pre>
<div id="log"></div>
<script>
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = (ev) => {
  const snap = JSON.parse(ev.data);
  document.getElementById("status").textContent = JSON.stringify(snap.changes, null, 2);
  document.getElementById("log").innerHTML = snap.log.map(c => c.messageHtml).join("<hr>");
};
</script>
</body>
</html>
`
