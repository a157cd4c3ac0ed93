package lesson

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the lesson session API.
func RegisterRoutes(r chi.Router, m *Manager) {
	r.Route("/api/session", func(r chi.Router) {
		r.Post("/", handleStart(m))
		r.Get("/{id}", handleView(m))
		r.Post("/{id}/situation", handleSituation(m))
		r.Post("/{id}/confirm", handleConfirm(m))
		r.Post("/{id}/clarify", handleClarify(m))
		r.Post("/{id}/regenerate", handleRegenerate(m))
		r.Post("/{id}/back", handleBack(m))
		r.Post("/{id}/rating", handleRating(m))
		r.Post("/{id}/reset", handleReset(m))
	})
}

type startRequest struct {
	UserID string `json:"user_id"`
}

func handleStart(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, NewValidationError("invalid request body"))
			return
		}
		if req.UserID == "" {
			req.UserID = "anonymous"
		}

		sess := m.Start(req.UserID)
		writeJSON(w, http.StatusOK, sess.View())
	}
}

func handleView(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := m.Get(chi.URLParam(r, "id"))
		if sess == nil {
			http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, sess.View())
	}
}

type situationRequest struct {
	Context string `json:"context"`
	Intent  string `json:"intent"`
}

func handleSituation(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := m.Get(chi.URLParam(r, "id"))
		if sess == nil {
			http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
			return
		}

		var req situationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, NewValidationError("invalid request body"))
			return
		}

		view, err := sess.SubmitSituation(r.Context(), req.Context, req.Intent)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleConfirm(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := m.Get(chi.URLParam(r, "id"))
		if sess == nil {
			http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
			return
		}

		view, err := sess.ConfirmIntent(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

type clarifyRequest struct {
	Clarification string `json:"clarification"`
}

func handleClarify(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := m.Get(chi.URLParam(r, "id"))
		if sess == nil {
			http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
			return
		}

		var req clarifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, NewValidationError("invalid request body"))
			return
		}

		view, err := sess.SubmitClarification(r.Context(), req.Clarification)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleRegenerate(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := m.Get(chi.URLParam(r, "id"))
		if sess == nil {
			http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
			return
		}

		view, err := sess.RegenerateFromInput(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleBack(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := m.Get(chi.URLParam(r, "id"))
		if sess == nil {
			http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
			return
		}

		view, err := sess.ReturnToClarification()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

func handleRating(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := m.Get(chi.URLParam(r, "id"))
		if sess == nil {
			http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
			return
		}

		var req ratingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, NewValidationError("invalid request body"))
			return
		}

		view, err := sess.SubmitRating(r.Context(), req.Rating)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleReset(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := m.Get(chi.URLParam(r, "id"))
		if sess == nil {
			http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
			return
		}

		view, err := sess.Reset()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

type errorResponse struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code,omitempty"`
}

// writeError maps session errors to HTTP statuses: validation failures
// are the caller's fault, everything else is an upstream failure the
// caller may retry.
func writeError(w http.ResponseWriter, err error) {
	var se *Error
	if errors.As(err, &se) {
		status := http.StatusBadGateway
		if se.Code == CodeValidation {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: se.Message, Code: se.Code})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
