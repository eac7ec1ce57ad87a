package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	focussync "github.com/focuslog/focuslog/internal/focus/sync"
)

// DefaultRange is how far back /sessions reaches without a from parameter.
const DefaultRange = 7 * 24 * time.Hour

// SyncReportData is the payload of a sync_report message.
type SyncReportData struct {
	Trigger    string        `json:"trigger"`
	Status     string        `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	Events     int           `json:"events"`
	Inserted   int           `json:"inserted"`
	Duplicates int           `json:"duplicates"`
	Unmatched  int           `json:"unmatched"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Report implements sync.Reporter: every run is broadcast, and a stats
// message follows runs that stored new sessions.
func (s *Server) Report(ctx context.Context, r *focussync.Result) {
	data, err := json.Marshal(SyncReportData{
		Trigger:    r.Trigger.String(),
		Status:     string(r.Status),
		Reason:     r.Reason,
		Events:     r.Events,
		Inserted:   r.Inserted,
		Duplicates: r.Duplicates,
		Unmatched:  r.Unmatched,
		Elapsed:    r.Elapsed,
	})
	if err != nil {
		s.logger.Error("failed to marshal sync report", "error", err)
		return
	}
	s.Broadcast(Message{Type: MessageTypeSyncReport, Timestamp: time.Now(), Data: data})

	if r.Inserted > 0 {
		if msg, err := s.statsMessage(ctx); err == nil {
			s.Broadcast(msg)
		}
	}
}

// handleSessions returns sessions whose start lies in [from, to].
// Both bounds accept RFC 3339 or epoch milliseconds.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.sessions == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "session store not available"})
		return
	}

	to := time.Now()
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := parseBound(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to: " + err.Error()})
			return
		}
		to = t
	}
	from := to.Add(-DefaultRange)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := parseBound(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from: " + err.Error()})
			return
		}
		from = t
	}

	sessions, err := s.sessions.SessionsBetween(r.Context(), from, to)
	if err != nil {
		s.logger.Error("failed to query sessions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to query sessions"})
		return
	}

	out := make([]*SessionPayload, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, newSessionPayload(sess))
	}
	writeJSON(w, http.StatusOK, out)
}

func parseBound(v string) (time.Time, error) {
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Parse(time.RFC3339, v)
}
