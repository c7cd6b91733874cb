package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/specsprite/internal/llm"
	"github.com/ziadkadry99/specsprite/internal/prd"
	"github.com/ziadkadry99/specsprite/internal/session"
)

func setupRouter(t *testing.T, p llm.Provider) (*chi.Mux, *Engine) {
	t.Helper()
	e, _ := newTestEngine(t, p)
	r := chi.NewRouter()
	RegisterRoutes(r, e)
	return r, e
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/prd", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func get(r http.Handler, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestHTTPProcess(t *testing.T) {
	r, _ := setupRouter(t, ecommerceProvider())

	rec := post(r, `{"user_input": "An online store for handmade soap"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var out Output
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Type != TypeClarification || out.SessionID == "" || out.Content.Message == "" {
		t.Errorf("output = %+v", out)
	}

	rec = get(r, "/api/sessions/"+out.SessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("session status = %d", rec.Code)
	}
	var info session.Summary
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.ID != out.SessionID || info.ProjectType != "ecommerce" {
		t.Errorf("summary = %+v", info)
	}

	if rec := get(r, "/api/sessions/"+out.SessionID+"/prd"); rec.Code != http.StatusConflict {
		t.Errorf("document before completion: status = %d, want 409", rec.Code)
	}
}

func TestHTTPProcessErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
		body     string
		want     int
	}{
		{"malformed json", ecommerceProvider(), `{"user_input":`, http.StatusBadRequest},
		{"empty input", ecommerceProvider(), `{"user_input": "  "}`, http.StatusBadRequest},
		{"too long", ecommerceProvider(), fmt.Sprintf(`{"user_input": %q}`, strings.Repeat("x", MaxInputRunes+1)), http.StatusBadRequest},
		{"transports down", &scriptedProvider{err: &llm.CompletionError{Attempts: []llm.Attempt{{Transport: "ollama", Status: llm.StatusError}}}}, `{"user_input": "A blog"}`, http.StatusBadGateway},
		{"other failure", &scriptedProvider{err: errors.New("boom")}, `{"user_input": "A blog"}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupRouter(t, tt.provider)
			rec := post(r, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
			var body errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Error == "" {
				t.Errorf("error body = %+v, err = %v", body, err)
			}
			if tt.want == http.StatusBadGateway && len(body.Attempts) != 1 {
				t.Errorf("attempts = %v", body.Attempts)
			}
		})
	}
}

func TestHTTPUnknownSession(t *testing.T) {
	r, _ := setupRouter(t, ecommerceProvider())
	for _, url := range []string{"/api/sessions/missing", "/api/sessions/missing/prd"} {
		if rec := get(r, url); rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", url, rec.Code)
		}
	}
}

func TestHTTPDocumentFormats(t *testing.T) {
	r, e := setupRouter(t, ecommerceProvider())
	id := ""
	for _, msg := range storeConversation {
		out, err := e.Process(context.Background(), Input{UserInput: msg, SessionID: id})
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		id = out.SessionID
	}

	tests := []struct {
		format      string
		contentType string
		want        string
	}{
		{"", "application/json", `"name":"Threadline"`},
		{"md", "text/markdown; charset=utf-8", "# Threadline\n"},
		{"html", "text/html; charset=utf-8", "<title>Threadline</title>"},
	}
	for _, tt := range tests {
		rec := get(r, "/api/sessions/"+id+"/prd?format="+tt.format)
		if rec.Code != http.StatusOK {
			t.Fatalf("format %q: status = %d", tt.format, rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != tt.contentType {
			t.Errorf("format %q: Content-Type = %q", tt.format, got)
		}
		if !strings.Contains(rec.Body.String(), tt.want) {
			t.Errorf("format %q: body missing %q", tt.format, tt.want)
		}
	}

	if rec := get(r, "/api/sessions/"+id+"/prd?format=pdf"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format: status = %d, want 400", rec.Code)
	}
}

func TestWriteErrorValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &prd.ValidationError{Missing: []string{"next_steps"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var body errorResponse
	json.NewDecoder(rec.Body).Decode(&body)
	if len(body.Missing) != 1 || body.Missing[0] != "next_steps" {
		t.Errorf("body = %+v", body)
	}
}
