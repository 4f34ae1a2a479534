// Package app wires the HTTP operator surface for broadcastd: config
// loading, router/middleware setup, and the route handlers. It is the
// out-of-process edge that ingest pipelines and operator tooling call; it
// never decides scheduling or playout itself, it only reads from and
// commands pkg/schedule and pkg/channel.
package app

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onairstack/broadcastcore/pkg/asrun"
	"github.com/onairstack/broadcastcore/pkg/channel"
	"github.com/onairstack/broadcastcore/pkg/clock"
	"github.com/onairstack/broadcastcore/pkg/model"
	"github.com/onairstack/broadcastcore/pkg/schedule"
)

// Server holds everything the HTTP surface needs to serve requests.
type Server struct {
	Router *chi.Mux
	Cfg    *ServerConfig
	logger *slog.Logger

	clock    clock.Clock
	schedule *schedule.Service
	channels map[string]*channel.Manager
	defs     map[string]model.Channel
	asrun    *asrun.MemoryStore
}

func (s *Server) channelDef(channelID string) (model.Channel, error) {
	ch, ok := s.defs[channelID]
	if !ok {
		return model.Channel{}, errUnknownChannel
	}
	return ch, nil
}

func (s *Server) channelManager(channelID string) (*channel.Manager, error) {
	mgr, ok := s.channels[channelID]
	if !ok {
		return nil, errUnknownChannel
	}
	return mgr, nil
}

// jsonResponse marshals message and writes it with the given status code.
func (s *Server) jsonResponse(w http.ResponseWriter, message any, code int) {
	raw, err := json.Marshal(message)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		s.logger.Error("marshal response", "err", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(raw); err != nil {
		s.logger.Error("write HTTP response", "err", err)
	}
}

func (s *Server) healthzHandlerFunc(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, map[string]bool{"ok": true}, http.StatusOK)
}

func (s *Server) configHandlerFunc(w http.ResponseWriter, r *http.Request) {
	cfg := *s.Cfg
	cfg.CertPath, cfg.KeyPath = "", "" // secrets/paths redacted
	s.jsonResponse(w, cfg, http.StatusOK)
}
