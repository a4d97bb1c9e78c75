// Package apitest runs an in-process fake of the image pipeline server for
// tests: the catalog/detail/generate/refine REST endpoints and the /ws push
// stream.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/five82/squadboard/internal/banana"
)

// Request is one recorded REST call.
type Request struct {
	Method string
	Path   string
	Query  string
	Form   map[string][]string
	Files  []string
}

// Server is a fake pipeline server.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	jobs     []banana.JobSummary
	details  map[string]*banana.JobDetail
	requests []Request
	conns    map[*websocket.Conn]struct{}
	nextID   int

	// GenerateStatus, when non-zero, fails /api/generate with that status.
	GenerateStatus int
	// RefineError, when set, is returned in the refine response body.
	RefineError string

	upgrader websocket.Upgrader
	wsReady  chan struct{}
}

// New starts a fake server. Close it with Close.
func New() *Server {
	s := &Server{
		details: make(map[string]*banana.JobDetail),
		conns:   make(map[*websocket.Conn]struct{}),
		wsReady: make(chan struct{}, 16),
	}
	r := chi.NewRouter()
	r.Get("/api/jobs", s.listJobs)
	r.Get("/api/jobs/{jobID}", s.getJob)
	r.Post("/api/generate", s.generate)
	r.Post("/api/refine", s.refine)
	r.Get("/ws", s.stream)
	s.Server = httptest.NewServer(r)
	return s
}

// Close drops stream connections and stops the server.
func (s *Server) Close() {
	s.DropStreams()
	s.Server.Close()
}

// AddJob registers a job returned by the catalog and detail endpoints.
func (s *Server) AddJob(summary banana.JobSummary, detail *banana.JobDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, summary)
	if detail != nil {
		s.details[summary.JobID] = detail
	}
}

// SetDetail replaces a job's detail document.
func (s *Server) SetDetail(detail *banana.JobDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[detail.JobID] = detail
}

// Requests returns the recorded REST calls.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many calls matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// WaitStream blocks until a stream client connects or the timeout passes.
func (s *Server) WaitStream(timeout time.Duration) bool {
	select {
	case <-s.wsReady:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Broadcast sends ev to every connected stream client.
func (s *Server) Broadcast(ev banana.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.BroadcastRaw(raw)
}

// BroadcastRaw sends a raw text frame to every connected stream client.
func (s *Server) BroadcastRaw(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
	}
	return nil
}

// DropStreams closes every stream connection.
func (s *Server) DropStreams() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
}

func (s *Server) record(r *http.Request) {
	req := Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	if r.MultipartForm != nil {
		req.Form = r.MultipartForm.Value
		for _, files := range r.MultipartForm.File {
			for _, f := range files {
				req.Files = append(req.Files, f.Filename)
			}
		}
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	search := strings.ToLower(r.URL.Query().Get("search"))
	s.mu.Lock()
	out := make([]banana.JobSummary, 0, len(s.jobs))
	for _, job := range s.jobs {
		if search == "" || strings.Contains(strings.ToLower(job.Prompt), search) {
			out = append(out, job)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	id := chi.URLParam(r, "jobID")
	s.mu.Lock()
	detail, ok := s.details[id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Job not found"})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.record(r)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.record(r)
	if s.GenerateStatus != 0 {
		writeJSON(w, s.GenerateStatus, map[string]string{"error": "generation unavailable"})
		return
	}
	prompt := strings.TrimSpace(r.FormValue("prompt"))
	if prompt == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "field required"}},
		})
		return
	}
	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("job%04d", s.nextID)
	s.jobs = append([]banana.JobSummary{{
		JobID:     id,
		Prompt:    prompt,
		Stage:     banana.StageQueued,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}}, s.jobs...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"job_id": id})
}

func (s *Server) refine(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		s.record(r)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.record(r)
	if s.RefineError != "" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": s.RefineError})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	select {
	case s.wsReady <- struct{}{}:
	default:
	}
	go func() {
		// Drain client frames so close handshakes are processed.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.conns, conn)
				s.mu.Unlock()
				_ = conn.Close()
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
