package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true // local tool; the server binds to loopback by default
	},
}

// WebSocket message types from client.
const (
	wsMsgTriage = "triage"
)

// WebSocket message types to client.
const (
	wsMsgTier      = "tier"
	wsMsgSelection = "selection"
	wsMsgError     = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsConn is one WebSocket client.
type wsConn struct {
	conn *websocket.Conn
	srv  *Server
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &wsConn{conn: conn, srv: s}
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("invalid message format")
			continue
		}

		switch msg.Type {
		case wsMsgTriage:
			s.handleWSTriage(r.Context(), c, msg.Data)
		default:
			c.sendError("unknown message type: " + msg.Type)
		}
	}
}

// handleWSTriage answers a triage request with the tier recommendation and
// then the critical file selection for the same change set.
func (s *Server) handleWSTriage(ctx context.Context, c *wsConn, data json.RawMessage) {
	var req selectRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("invalid triage data")
		return
	}

	ds, files, err := req.changeSet()
	if err == nil {
		err = req.validate()
	}
	if err != nil {
		c.sendError(err.Error())
		return
	}

	c.send(wsMsgTier, s.classify(files))

	report, err := s.selectFiles(ctx, ds, files, req)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.send(wsMsgSelection, report)
}

func (c *wsConn) send(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		c.srv.logger.Warn("ws marshal failed", "type", msgType, "error", err)
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := c.conn.WriteJSON(msg); err != nil {
		c.srv.logger.Warn("ws write failed", "type", msgType, "error", err)
	}
}

func (c *wsConn) sendError(errMsg string) {
	c.send(wsMsgError, map[string]string{"message": errMsg})
}
