package engine

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/specsprite/internal/llm"
	"github.com/ziadkadry99/specsprite/internal/prd"
)

const maxRequestBytes = 64 << 10

// RegisterRoutes mounts the conversation endpoints on the given router.
func RegisterRoutes(r chi.Router, e *Engine) {
	r.Post("/api/prd", handleProcess(e))
	r.Get("/api/sessions/{id}", handleSessionInfo(e))
	r.Get("/api/sessions/{id}/prd", handleDocument(e))
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error    string        `json:"error"`
	Attempts []llm.Attempt `json:"attempts,omitempty"`
	Missing  []string      `json:"missing,omitempty"`
}

func handleProcess(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in Input
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
			return
		}

		out, err := e.Process(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleSessionInfo(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := e.SessionInfo(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func handleDocument(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := e.Document(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}

		switch r.URL.Query().Get("format") {
		case "", "json":
			writeJSON(w, http.StatusOK, doc)
		case "md", "markdown":
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			w.Write([]byte(prd.Markdown(doc)))
		case "html":
			page, err := prd.HTML(doc)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(page)
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "format must be json, md or html"})
		}
	}
}

// writeError maps engine errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		cerr *llm.CompletionError
		verr *prd.ValidationError
	)
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrNoDocument):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Missing: verr.Missing})
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Attempts: cerr.Attempts})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
