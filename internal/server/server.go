// Package server exposes the loop's control surface over HTTP. It is the
// headless replacement for the desktop UI's buttons: start, stop, region
// selection, provider switching, and a read-out of the latest analysis.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/menta2k/chart-watch/internal/sink"
	"github.com/menta2k/chart-watch/pkg/monitor"
	"github.com/menta2k/chart-watch/pkg/provider"
	"github.com/menta2k/chart-watch/pkg/types"
)

// Server wires the control surface handlers to a loop and its sink.
type Server struct {
	loop *monitor.Loop
	sink *sink.ConsoleSink
	log  *slog.Logger
}

// New creates the control server.
func New(loop *monitor.Loop, s *sink.ConsoleSink, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{loop: loop, sink: s, log: log}
}

// Router builds the chi router for the control surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/config", s.handleGetConfig)
	r.Get("/analysis", s.handleGetAnalysis)
	r.Post("/start", s.handleStart)
	r.Post("/stop", s.handleStop)
	r.Put("/region", s.handleSetRegion)
	r.Put("/provider", s.handleSwitchProvider)

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.loop.Config())
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	latest := s.sink.Latest()
	if latest == nil {
		WriteError(w, http.StatusNotFound, "no analysis yet")
		return
	}
	WriteJSON(w, http.StatusOK, latest)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.loop.Start(); err != nil {
		var pe *monitor.PreconditionError
		if errors.As(err, &pe) {
			WriteError(w, http.StatusConflict, pe.Error())
			return
		}
		s.log.Error("start failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "start failed")
		return
	}
	WriteJSON(w, http.StatusOK, s.loop.Config())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.loop.Stop()
	WriteJSON(w, http.StatusOK, s.loop.Config())
}

func (s *Server) handleSetRegion(w http.ResponseWriter, r *http.Request) {
	var region types.Region
	if err := json.NewDecoder(r.Body).Decode(&region); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid region JSON")
		return
	}
	if err := s.loop.SetRegion(region); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, s.loop.Config())
}

func (s *Server) handleSwitchProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid provider JSON")
		return
	}
	if err := s.loop.SwitchProvider(req.ID); err != nil {
		switch {
		case errors.Is(err, provider.ErrMissingCredential):
			WriteError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, provider.ErrUnknownProvider):
			WriteError(w, http.StatusBadRequest, err.Error())
		default:
			s.log.Error("provider switch failed", "err", err)
			WriteError(w, http.StatusInternalServerError, "provider switch failed")
		}
		return
	}
	WriteJSON(w, http.StatusOK, s.loop.Config())
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error body.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
