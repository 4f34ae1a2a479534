package app

import (
	"github.com/onairstack/broadcastcore/pkg/logging"
)

// Routes registers every handler on the operator-facing HTTP surface.
func (s *Server) Routes() {
	for _, route := range logging.LogRoutes {
		s.Router.MethodFunc(route.Method, route.Path, route.Handler)
	}
	s.Router.MethodFunc("GET", "/healthz", s.healthzHandlerFunc)
	s.Router.MethodFunc("GET", "/config", s.configHandlerFunc)

	s.Router.MethodFunc("GET", "/channels/{channel_id}/epg", s.epgHandlerFunc)
	s.Router.MethodFunc("GET", "/channels/{channel_id}/now", s.nowHandlerFunc)
	s.Router.MethodFunc("POST", "/channels/{channel_id}/tune_in", s.tuneInHandlerFunc)
	s.Router.MethodFunc("POST", "/channels/{channel_id}/tune_out", s.tuneOutHandlerFunc)
	s.Router.MethodFunc("GET", "/channels/{channel_id}/asrun", s.asrunHandlerFunc)
}
