// Package remote exposes scheduler control over HTTP.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/valerio/go-emuloop/emuloop"
	"github.com/valerio/go-emuloop/emuloop/backend"
	"github.com/valerio/go-emuloop/emuloop/engine"
	"github.com/valerio/go-emuloop/emuloop/video"
)

// Controller is the part of *emuloop.Scheduler the server drives.
type Controller interface {
	Stats() emuloop.Stats
	Session() *engine.Session
	Pause()
	Resume()
	Reset()
	Power()
	LoadSession(path string) (*engine.Session, error)
	UnloadSession()
	SaveState(path string) error
	LoadState(path string) error
	SetOption(name, value string) error
	SetKeyStates(bits uint32)
	FireLightGun(x, y int) error
}

var _ Controller = (*emuloop.Scheduler)(nil)

type Server struct {
	httpServer *http.Server
	ctl        Controller
	frames     backend.FrameSource
}

// New builds the HTTP API. frames may be nil, in which case snapshots are
// unavailable.
func New(bind string, ctl Controller, frames backend.FrameSource) *Server {
	r := mux.NewRouter()
	s := &Server{
		httpServer: &http.Server{
			Addr:              bind,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ctl:    ctl,
		frames: frames,
	}
	r.HandleFunc("/status", s.handleStatus).Methods("GET")
	r.HandleFunc("/pause", s.handlePause).Methods("POST")
	r.HandleFunc("/resume", s.handleResume).Methods("POST")
	r.HandleFunc("/reset", s.handleReset).Methods("POST")
	r.HandleFunc("/power", s.handlePower).Methods("POST")
	r.HandleFunc("/session", s.handleLoadSession).Methods("POST")
	r.HandleFunc("/session", s.handleUnloadSession).Methods("DELETE")
	r.HandleFunc("/state/save", s.handleSaveState).Methods("POST")
	r.HandleFunc("/state/load", s.handleLoadState).Methods("POST")
	r.HandleFunc("/options/{name}", s.handleSetOption).Methods("PUT")
	r.HandleFunc("/keys", s.handleKeys).Methods("PUT")
	r.HandleFunc("/lightgun", s.handleLightGun).Methods("POST")
	r.HandleFunc("/snapshot.png", s.handleSnapshot).Methods("GET")
	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) ListenAndServe() error              { return s.httpServer.ListenAndServe() }
func (s *Server) Shutdown(ctx context.Context) error { return s.httpServer.Shutdown(ctx) }

type pathRequest struct {
	Path string `json:"path"`
}

type optionRequest struct {
	Value string `json:"value"`
}

type keysRequest struct {
	Bits uint32 `json:"bits"`
}

type lightGunRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.Stats())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.ctl.Pause()
	writeJSON(w, http.StatusOK, s.ctl.Stats())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.ctl.Resume()
	writeJSON(w, http.StatusOK, s.ctl.Stats())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w) {
		return
	}
	s.ctl.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePower(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w) {
		return
	}
	s.ctl.Power()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoadSession(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}
	session, err := s.ctl.LoadSession(req.Path)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleUnloadSession(w http.ResponseWriter, r *http.Request) {
	s.ctl.UnloadSession()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaveState(w http.ResponseWriter, r *http.Request) {
	s.handleStateFile(w, r, s.ctl.SaveState)
}

func (s *Server) handleLoadState(w http.ResponseWriter, r *http.Request) {
	s.handleStateFile(w, r, s.ctl.LoadState)
}

func (s *Server) handleStateFile(w http.ResponseWriter, r *http.Request, fn func(string) error) {
	var req pathRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}
	if err := fn(req.Path); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetOption(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req optionRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.ctl.SetOption(name, req.Value); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.Stats().Pacing)
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	var req keysRequest
	if !decode(w, r, &req) {
		return
	}
	s.ctl.SetKeyStates(req.Bits)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLightGun(w http.ResponseWriter, r *http.Request) {
	var req lightGunRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.ctl.FireLightGun(req.X, req.Y); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.frames == nil {
		writeError(w, http.StatusNotFound, errors.New("frontend does not keep frames"))
		return
	}
	frame := s.frames.LatestFrame()
	if frame == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no frame"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	if err := video.EncodePNG(w, frame); err != nil {
		slog.Debug("Snapshot write failed", "error", err)
	}
}

func (s *Server) requireSession(w http.ResponseWriter) bool {
	if s.ctl.Session() == nil {
		writeError(w, http.StatusConflict, emuloop.ErrNoSession)
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, emuloop.ErrNoSession), errors.Is(err, emuloop.ErrClosed):
		return http.StatusConflict
	case errors.Is(err, engine.ErrUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Response write failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
