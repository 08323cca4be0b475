package meals

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pulsehealth/pulse/internal/agent"
)

const dateLayout = "2006-01-02"

type logRequest struct {
	MealType    MealType `json:"meal_type"`
	Description string   `json:"description"`
	MealDate    string   `json:"meal_date"`
	MealTime    string   `json:"meal_time"`
	Items       []Item   `json:"items"`
}

type parseRequest struct {
	Description string `json:"description"`
}

type logResponse struct {
	Meal   *Entry      `json:"meal"`
	Parsed *ParsedMeal `json:"parsed,omitempty"`
}

// RegisterRoutes mounts meal endpoints under /api/meals.
func RegisterRoutes(r chi.Router, proc *Processor, store *Store) {
	r.Route("/api/meals", func(r chi.Router) {
		r.Post("/log", handleLogAI(proc))
		r.Post("/log-ai", handleLogAI(proc))
		r.Post("/log-manual", handleLogManual(proc))
		r.Post("/parse", handleParse(proc))
		r.Get("/all", handleListAll(store))
		r.Get("/date/{date}", handleListByDate(store))

		r.Route("/{mealID}", func(r chi.Router) {
			r.Get("/", handleGet(store))
			r.Put("/", handleUpdate(proc))
			r.Delete("/", handleDelete(proc))

			r.Post("/items", handleAddItem(proc))
			r.Put("/items/{itemID}", handleUpdateItem(proc))
			r.Delete("/items/{itemID}", handleDeleteItem(proc))
		})
	})
}

func handleLogAI(proc *Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		req, ok := decodeLogRequest(w, r)
		if !ok {
			return
		}

		entry, parsed, err := proc.ProcessWithAgent(r.Context(), userID, req.MealType,
			req.Description, req.MealDate, req.MealTime)
		if err != nil {
			var parseErr *agent.ParseError
			if errors.As(err, &parseErr) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusCreated, logResponse{Meal: entry, Parsed: parsed})
	}
}

func handleLogManual(proc *Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		req, ok := decodeLogRequest(w, r)
		if !ok {
			return
		}
		if len(req.Items) == 0 {
			http.Error(w, "manual logging requires at least one item", http.StatusBadRequest)
			return
		}

		entry, err := proc.ProcessManual(r.Context(), userID, req.MealType,
			req.Description, req.MealDate, req.MealTime, req.Items)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, logResponse{Meal: entry})
	}
}

func handleParse(proc *Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUserID(w, r); !ok {
			return
		}
		var req parseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Description == "" {
			http.Error(w, "description is required", http.StatusBadRequest)
			return
		}

		parsed, err := proc.ParseAndEnrich(r.Context(), req.Description)
		if err != nil {
			var parseErr *agent.ParseError
			if errors.As(err, &parseErr) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, parsed)
	}
}

func handleListAll(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		entries, err := store.ListByUser(r.Context(), userID, limit, offset)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleListByDate(store *Store) http.HandlerFunc {
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
		entries, err := store.ListByDate(r.Context(), userID, date)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		entry, err := store.GetByID(r.Context(), userID, chi.URLParam(r, "mealID"))
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "meal not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func handleUpdate(proc *Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		var upd EntryUpdate
		if err := json.NewDecoder(r.Body).Decode(&struct {
			MealType    **MealType `json:"meal_type"`
			Description **string   `json:"description"`
			MealDate    **string   `json:"meal_date"`
			MealTime    **string   `json:"meal_time"`
		}{&upd.MealType, &upd.Description, &upd.MealDate, &upd.MealTime}); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if upd.MealType != nil && !IsValidMealType(*upd.MealType) {
			http.Error(w, "invalid meal_type", http.StatusBadRequest)
			return
		}
		if upd.MealDate != nil {
			if _, err := time.Parse(dateLayout, *upd.MealDate); err != nil {
				http.Error(w, "invalid meal_date, expected YYYY-MM-DD", http.StatusBadRequest)
				return
			}
		}

		entry, err := proc.UpdateMeal(r.Context(), userID, chi.URLParam(r, "mealID"), upd)
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "meal not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func handleDelete(proc *Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		err := proc.DeleteMeal(r.Context(), userID, chi.URLParam(r, "mealID"))
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "meal not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleAddItem(proc *Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		var item Item
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if item.FoodName == "" || item.Quantity <= 0 {
			http.Error(w, "food_name and a positive quantity are required", http.StatusBadRequest)
			return
		}
		if item.Unit == "" {
			item.Unit = agent.UnitGrams
		}
		if item.Confidence == 0 {
			item.Confidence = 1.0
		}

		err := proc.AddItem(r.Context(), userID, chi.URLParam(r, "mealID"), &item)
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "meal not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func handleUpdateItem(proc *Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		var upd ItemUpdate
		if err := json.NewDecoder(r.Body).Decode(&struct {
			FoodName   **string     `json:"food_name"`
			Quantity   **float64    `json:"quantity"`
			Unit       **agent.Unit `json:"unit"`
			Calories   **float64    `json:"calories"`
			Verified   **bool       `json:"is_verified"`
			Confidence **float64    `json:"confidence"`
		}{&upd.FoodName, &upd.Quantity, &upd.Unit, &upd.Calories,
			&upd.Verified, &upd.Confidence}); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		item, err := proc.UpdateItem(r.Context(), userID,
			chi.URLParam(r, "mealID"), chi.URLParam(r, "itemID"), upd)
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func handleDeleteItem(proc *Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		err := proc.DeleteItem(r.Context(), userID,
			chi.URLParam(r, "mealID"), chi.URLParam(r, "itemID"))
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func decodeLogRequest(w http.ResponseWriter, r *http.Request) (logRequest, bool) {
	var req logRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return req, false
	}
	if !IsValidMealType(req.MealType) {
		http.Error(w, "meal_type must be BREAKFAST, LUNCH, DINNER or SNACK", http.StatusBadRequest)
		return req, false
	}
	if req.Description == "" {
		http.Error(w, "description is required", http.StatusBadRequest)
		return req, false
	}
	if req.MealDate == "" {
		req.MealDate = time.Now().UTC().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, req.MealDate); err != nil {
		http.Error(w, "invalid meal_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// currentUserID extracts the verified user identity supplied by the
// upstream auth layer.
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
