package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/specsprite/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:            "test-1",
		ActorType:     ActorModel,
		ActorID:       "chain",
		Action:        ActionProjectClassified,
		SessionID:     "sess-1",
		Summary:       "Classified as blog",
		Detail:        "mentions posts",
		Transport:     "ollama",
		Attempts:      []string{"sampling: no-fn", "ollama: success"},
		PreviousValue: "",
		NewValue:      "blog",
	}

	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.ActorType != ActorModel {
		t.Errorf("ActorType = %q, want %q", got.ActorType, ActorModel)
	}
	if got.Action != ActionProjectClassified {
		t.Errorf("Action = %q, want %q", got.Action, ActionProjectClassified)
	}
	if got.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want %q", got.SessionID, "sess-1")
	}
	if got.Transport != "ollama" {
		t.Errorf("Transport = %q, want %q", got.Transport, "ollama")
	}
	if got.PreviousValue != "" {
		t.Errorf("PreviousValue = %q, want empty", got.PreviousValue)
	}
	if got.NewValue != "blog" {
		t.Errorf("NewValue = %q, want %q", got.NewValue, "blog")
	}
	if len(got.Attempts) != 2 || got.Attempts[1] != "ollama: success" {
		t.Errorf("Attempts = %v", got.Attempts)
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp was not set")
	}
}

func TestLogGeneratesUUID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{
		ActorType: ActorSystem,
		ActorID:   "specsprite",
		Action:    ActionSessionCreated,
		SessionID: "sess-1",
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("expected a generated ID")
	}
	if entries[0].Attempts != nil {
		t.Errorf("Attempts = %v, want nil", entries[0].Attempts)
	}
}

func seed(t *testing.T, store *Store, entries ...Entry) {
	t.Helper()
	for _, e := range entries {
		if err := store.Log(context.Background(), e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	seed(t, store,
		Entry{ActorType: ActorSystem, ActorID: "specsprite", Action: ActionSessionCreated, SessionID: "a"},
		Entry{ActorType: ActorModel, ActorID: "chain", Action: ActionReplyGenerated, SessionID: "a", Transport: "sampling"},
		Entry{ActorType: ActorModel, ActorID: "chain", Action: ActionReplyGenerated, SessionID: "b", Transport: "openai"},
		Entry{ActorType: ActorSystem, ActorID: "specsprite", Action: ActionCompletionFailed, SessionID: "b"},
	)

	tests := []struct {
		name   string
		filter QueryFilter
		want   int
	}{
		{"all", QueryFilter{}, 4},
		{"by actor", QueryFilter{ActorID: "chain"}, 2},
		{"by session", QueryFilter{SessionID: "b"}, 2},
		{"by action", QueryFilter{Action: ActionReplyGenerated}, 2},
		{"by transport", QueryFilter{Transport: "openai"}, 1},
		{"combined", QueryFilter{SessionID: "a", Action: ActionReplyGenerated}, 1},
		{"no match", QueryFilter{SessionID: "zzz"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestQueryOrderAndPaging(t *testing.T) {
	store := setupStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		seed(t, store, Entry{
			ID:        id,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			ActorType: ActorSystem,
			ActorID:   "specsprite",
			Action:    ActionSessionCreated,
		})
	}

	all, err := store.Query(context.Background(), QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 3 || all[0].ID != "third" || all[2].ID != "first" {
		t.Fatalf("order = %v, want newest first", ids(all))
	}

	page, err := store.Query(context.Background(), QueryFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(page) != 1 || page[0].ID != "second" {
		t.Errorf("page = %v, want [second]", ids(page))
	}

	skipped, err := store.Query(context.Background(), QueryFilter{Offset: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(skipped) != 1 || skipped[0].ID != "first" {
		t.Errorf("offset only = %v, want [first]", ids(skipped))
	}

	since := base.Add(time.Minute)
	recent, err := store.Query(context.Background(), QueryFilter{Since: &since})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("since = %v, want two entries", ids(recent))
	}
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	seed(t, store,
		Entry{ID: "old", Timestamp: time.Now().Add(-48 * time.Hour), ActorType: ActorSystem, ActorID: "specsprite", Action: ActionSessionExpired},
		Entry{ID: "new", ActorType: ActorSystem, ActorID: "specsprite", Action: ActionSessionCreated},
	)

	deleted, err := store.DeleteBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := store.GetByID(ctx, "old"); err == nil {
		t.Error("old entry still present")
	}
	if _, err := store.GetByID(ctx, "new"); err != nil {
		t.Errorf("new entry removed: %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := setupStore(t)
	if _, err := store.GetByID(context.Background(), "nonexistent"); err == nil {
		t.Error("expected error for missing entry")
	}
}

func setupRouter(t *testing.T) (*chi.Mux, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r, store
}

func TestHTTPGetByID(t *testing.T) {
	r, store := setupRouter(t)
	seed(t, store, Entry{
		ID:        "http-1",
		ActorType: ActorSystem,
		ActorID:   "specsprite",
		Action:    ActionDocumentGenerated,
		SessionID: "sess-9",
		Summary:   "Generated document Lumen",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/audit/http-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got Entry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "http-1" || got.SessionID != "sess-9" {
		t.Errorf("got %+v", got)
	}
}

func TestHTTPGetByIDNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audit/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHTTPQueryWithFilter(t *testing.T) {
	r, store := setupRouter(t)
	for _, sess := range []string{"a", "b", "a"} {
		seed(t, store, Entry{ActorType: ActorUser, ActorID: "anonymous", Action: ActionReplyGenerated, SessionID: sess})
	}

	tests := []struct {
		url  string
		want int
	}{
		{"/api/audit", 3},
		{"/api/audit?session=a&limit=10", 2},
		{"/api/audit?action=session_expired", 0},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.url, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want %d", tt.url, rec.Code, http.StatusOK)
		}
		var entries []Entry
		if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
			t.Fatalf("%s: decode: %v", tt.url, err)
		}
		if len(entries) != tt.want {
			t.Errorf("%s: got %d entries, want %d", tt.url, len(entries), tt.want)
		}
	}
}
