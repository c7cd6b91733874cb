// Package dashboard serves the browser chat page, its WebSocket and a few
// activity endpoints.
package dashboard

import (
	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/specsprite/internal/audit"
	"github.com/ziadkadry99/specsprite/internal/engine"
)

// Dashboard provides the chat page and its supporting endpoints.
type Dashboard struct {
	engine *engine.Engine
	audit  *audit.Store
}

// New creates a new Dashboard. auditStore may be nil.
func New(eng *engine.Engine, auditStore *audit.Store) *Dashboard {
	return &Dashboard{engine: eng, audit: auditStore}
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/", d.ServeIndex)
	r.Get("/api/dashboard/stats", d.handleStats)
	r.Get("/api/dashboard/recent", d.handleRecent)
	r.Get("/ws/chat", d.handleWebSocket)
}
