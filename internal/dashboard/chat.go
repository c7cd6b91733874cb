package dashboard

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/specsprite/internal/engine"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type      string `json:"type"`       // "message" or "info"
	SessionID string `json:"session_id"` // empty for new sessions
	Content   string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type      string         `json:"type"` // "response" or "error"
	SessionID string         `json:"session_id"`
	Content   string         `json:"content"`
	Output    *engine.Output `json:"output,omitempty"`
}

func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("dashboard: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("dashboard: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			d.sendError(conn, "", "invalid message format")
			continue
		}

		switch req.Type {
		case "message":
			d.handleChatMessage(conn, r, req)
		case "info":
			d.handleInfoMessage(conn, req)
		default:
			d.sendError(conn, req.SessionID, "unknown message type: "+req.Type)
		}
	}
}

func (d *Dashboard) handleChatMessage(conn *websocket.Conn, r *http.Request, req chatRequest) {
	out, err := d.engine.Process(r.Context(), engine.Input{UserInput: req.Content, SessionID: req.SessionID})
	if err != nil {
		if errors.Is(err, engine.ErrInvalidInput) {
			d.sendError(conn, req.SessionID, "content must be 1 to 2000 characters")
			return
		}
		d.sendError(conn, req.SessionID, "processing failed: "+err.Error())
		return
	}

	d.sendResponse(conn, chatResponse{
		Type:      "response",
		SessionID: out.SessionID,
		Content:   out.Content.Message,
		Output:    out,
	})
}

func (d *Dashboard) handleInfoMessage(conn *websocket.Conn, req chatRequest) {
	info, err := d.engine.SessionInfo(req.SessionID)
	if err != nil {
		d.sendError(conn, req.SessionID, "session not found")
		return
	}
	d.sendResponse(conn, chatResponse{
		Type:      "response",
		SessionID: req.SessionID,
		Content:   info.String(),
	})
}

func (d *Dashboard) sendResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("dashboard: websocket write: %v", err)
	}
}

func (d *Dashboard) sendError(conn *websocket.Conn, sessionID, message string) {
	resp := chatResponse{
		Type:      "error",
		SessionID: sessionID,
		Content:   message,
	}
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("dashboard: websocket write error: %v", err)
	}
}
