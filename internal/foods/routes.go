package foods

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts food database endpoints under /api/foods.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/foods", func(r chi.Router) {
		r.Get("/search", handleSearch(store))
		r.Get("/category/{category}", handleByCategory(store))
		r.Get("/{id}", handleGet(store))
		r.Get("/", handleList(store))
		r.Post("/", handleCreate(store))
	})
}

func handleSearch(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			http.Error(w, "missing query parameter q", http.StatusBadRequest)
			return
		}
		foods, err := store.Search(r.Context(), query, queryInt(r, "limit"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(foods))
	}
}

func handleByCategory(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		foods, err := store.ByCategory(r.Context(), chi.URLParam(r, "category"), queryInt(r, "limit"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(foods))
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		food, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "food not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, food)
	}
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		foods, err := store.List(r.Context(), queryInt(r, "limit"), queryInt(r, "offset"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(foods))
	}
}

func handleCreate(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var food Food
		if err := json.NewDecoder(r.Body).Decode(&food); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if food.FoodName == "" || food.ServingSize <= 0 || food.ServingUnit == "" {
			http.Error(w, "food_name, serving_size and serving_unit are required", http.StatusBadRequest)
			return
		}
		created, err := store.Create(r.Context(), food)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func emptyIfNil(foods []Food) []Food {
	if foods == nil {
		return []Food{}
	}
	return foods
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
