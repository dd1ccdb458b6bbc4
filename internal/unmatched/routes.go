package unmatched

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const recentLimit = 20

// RegisterRoutes mounts the unmatched-error reporting routes. store may be
// nil, in which case downloads come from the in-memory ring.
func RegisterRoutes(r chi.Router, log *Log, store *Store) {
	r.Get("/unmatched-errors", handleRecent(log))
	r.Get("/download-unmatched", handleDownload(log, store))
}

type recentResponse struct {
	UnmatchedErrors []Entry `json:"unmatched_errors"`
	TotalCount      int     `json:"total_count"`
}

func handleRecent(log *Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, recentResponse{
			UnmatchedErrors: log.Recent(recentLimit),
			TotalCount:      log.Len(),
		})
	}
}

func handleDownload(log *Log, store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := log.Recent(0)
		if store != nil {
			stored, err := store.List(r.Context(), ListFilter{})
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error generating download: " + err.Error()})
				return
			}
			entries = stored
		}

		var buf bytes.Buffer
		if err := WriteCSV(&buf, entries); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error generating download: " + err.Error()})
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=unmatched_errors.csv")
		w.Write(buf.Bytes())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
