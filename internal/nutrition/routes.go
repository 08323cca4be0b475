package nutrition

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

// RegisterRoutes mounts nutrition endpoints under /api/nutrition.
func RegisterRoutes(r chi.Router, store *SummaryStore) {
	r.Route("/api/nutrition", func(r chi.Router) {
		r.Get("/daily/{date}", handleDaily(store))
		r.Get("/weekly", handleWeekly(store))
		r.Get("/range", handleRange(store))
	})
}

func handleDaily(store *SummaryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		date := chi.URLParam(r, "date")
		if _, err := time.Parse(dateLayout, date); err != nil {
			http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		sum, err := store.Get(r.Context(), userID, date)
		if errors.Is(err, ErrNotFound) {
			// No meals logged that day; report an empty summary.
			writeJSON(w, http.StatusOK, DailySummary{UserID: userID, Date: date})
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

func handleWeekly(store *SummaryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		end := time.Now().UTC()
		if v := r.URL.Query().Get("end"); v != "" {
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				http.Error(w, "invalid end date, expected YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			end = t
		}
		start := end.AddDate(0, 0, -6)

		summaries, err := store.Range(r.Context(), userID,
			start.Format(dateLayout), end.Format(dateLayout))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

func handleRange(store *SummaryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		start := r.URL.Query().Get("start")
		end := r.URL.Query().Get("end")
		if _, err := time.Parse(dateLayout, start); err != nil {
			http.Error(w, "invalid start date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		if _, err := time.Parse(dateLayout, end); err != nil {
			http.Error(w, "invalid end date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		summaries, err := store.Range(r.Context(), userID, start, end)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

// currentUserID extracts the verified user identity supplied by the
// upstream auth layer. Authentication itself is out of scope here.
func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
