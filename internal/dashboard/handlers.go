package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/ziadkadry99/specsprite/internal/audit"
)

const recentLimit = 10

// statsResponse is the JSON response for the stats endpoint.
type statsResponse struct {
	ActiveSessions     int `json:"active_sessions"`
	DocumentsGenerated int `json:"documents_generated"`
	CompletionFailures int `json:"completion_failures"`
}

// recentResponse is the JSON response for the recent activity endpoint.
type recentResponse struct {
	Entries []audit.Entry `json:"entries"`
}

func (d *Dashboard) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := statsResponse{ActiveSessions: d.engine.Store().CountActive()}

	if d.audit != nil {
		counts := map[audit.Action]*int{
			audit.ActionDocumentGenerated: &stats.DocumentsGenerated,
			audit.ActionCompletionFailed:  &stats.CompletionFailures,
		}
		for action, n := range counts {
			entries, err := d.audit.Query(r.Context(), audit.QueryFilter{Action: action})
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			*n = len(entries)
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

func (d *Dashboard) handleRecent(w http.ResponseWriter, r *http.Request) {
	entries := []audit.Entry{}
	if d.audit != nil {
		var err error
		entries, err = d.audit.Query(r.Context(), audit.QueryFilter{Limit: recentLimit})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, recentResponse{Entries: entries})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
