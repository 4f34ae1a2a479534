package app

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/onairstack/broadcastcore/pkg/model"
)

type epgResponse struct {
	ChannelID    string              `json:"channel_id"`
	BroadcastDay string              `json:"broadcast_day"`
	DayStartUTC  string              `json:"day_start_utc"`
	DayEndUTC    string              `json:"day_end_utc"`
	Items        []model.ScheduledItem `json:"items"`
}

// epgHandlerFunc serves GET /channels/{channel_id}/epg: the resolved
// ScheduleDay for the day named by ?day=YYYY-MM-DD, defaulting to the
// channel's current broadcast day.
func (s *Server) epgHandlerFunc(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channel_id")
	ch, err := s.channelDef(channelID)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	dayLabel := r.URL.Query().Get("day")
	if dayLabel == "" {
		dayLabel, err = s.schedule.BroadcastDayFor(ch, s.clock.NowUTC())
		if err != nil {
			writeAPIError(w, err)
			return
		}
	}

	day, err := s.schedule.Day(r.Context(), ch, dayLabel)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	s.jsonResponse(w, epgResponse{
		ChannelID:    day.ChannelID,
		BroadcastDay: day.BroadcastDay,
		DayStartUTC:  day.DayStartUTC.Format("2006-01-02T15:04:05Z07:00"),
		DayEndUTC:    day.DayEndUTC.Format("2006-01-02T15:04:05Z07:00"),
		Items:        day.Items,
	}, http.StatusOK)
}

type nowResponse struct {
	ChannelID    string             `json:"channel_id"`
	BroadcastDay string             `json:"broadcast_day"`
	ActiveEvent  model.PlaylogEvent `json:"active_event"`
}

// nowHandlerFunc serves GET /channels/{channel_id}/now: what is airing at
// this instant plus the enclosing broadcast-day label.
func (s *Server) nowHandlerFunc(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channel_id")
	ch, err := s.channelDef(channelID)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	now := s.clock.NowUTC()
	ev, err := s.schedule.ActiveEvent(r.Context(), channelID, now)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	dayLabel, err := s.schedule.BroadcastDayFor(ch, now)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	s.jsonResponse(w, nowResponse{ChannelID: channelID, BroadcastDay: dayLabel, ActiveEvent: ev}, http.StatusOK)
}

type viewerRequest struct {
	ViewerID string `json:"viewer_id"`
}

// tuneInHandlerFunc serves POST /channels/{channel_id}/tune_in.
func (s *Server) tuneInHandlerFunc(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channel_id")
	mgr, err := s.channelManager(channelID)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	var req viewerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ViewerID == "" {
		http.Error(w, "body must be {\"viewer_id\": \"...\"}", http.StatusBadRequest)
		return
	}
	if err := mgr.TuneIn(r.Context(), req.ViewerID); err != nil {
		writeAPIError(w, err)
		return
	}
	s.jsonResponse(w, map[string]string{"state": string(mgr.State())}, http.StatusOK)
}

// tuneOutHandlerFunc serves POST /channels/{channel_id}/tune_out.
func (s *Server) tuneOutHandlerFunc(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channel_id")
	mgr, err := s.channelManager(channelID)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	var req viewerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ViewerID == "" {
		http.Error(w, "body must be {\"viewer_id\": \"...\"}", http.StatusBadRequest)
		return
	}
	if err := mgr.TuneOut(r.Context(), req.ViewerID); err != nil {
		writeAPIError(w, err)
		return
	}
	s.jsonResponse(w, map[string]string{"state": string(mgr.State())}, http.StatusOK)
}

// asrunHandlerFunc serves GET /channels/{channel_id}/asrun: recent
// AsRunRecords for the channel over [?from=, ?to=) RFC3339 instants,
// defaulting to the last hour. Reporting-only, never a scheduling input.
func (s *Server) asrunHandlerFunc(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channel_id")
	if _, err := s.channelDef(channelID); err != nil {
		writeAPIError(w, err)
		return
	}

	now := s.clock.NowUTC()
	from, to := now.Add(-time.Hour), now
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid to", http.StatusBadRequest)
			return
		}
		to = parsed
	}

	records := s.asrun.RecordsForChannel(channelID, from, to)
	s.jsonResponse(w, records, http.StatusOK)
}
