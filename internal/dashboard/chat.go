package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/errmatch/internal/matcher"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type    string `json:"type"` // "message" or "clear"
	Content string `json:"content"`
	Context string `json:"context,omitempty"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type     string            `json:"type"` // "response", "cleared" or "error"
	Response *matcher.Response `json:"response,omitempty"`
	Error    string            `json:"error,omitempty"`
	Kind     matcher.ErrorKind `json:"kind,omitempty"`
}

// handleWebSocket answers chat turns over one connection. The session is
// fixed by the cookie sent with the upgrade request.
func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				d.logger.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			d.send(conn, wsResponse{Type: "error", Error: "invalid message format"})
			continue
		}

		switch req.Type {
		case "message":
			resp, err := d.answer(r, chatRequest{Message: req.Content, Context: req.Context})
			if err != nil {
				d.sendError(conn, err)
				continue
			}
			d.send(conn, wsResponse{Type: "response", Response: resp})
		case "clear":
			if id := sessionID(r); id != "" {
				d.engine.Clear(id)
			}
			d.send(conn, wsResponse{Type: "cleared"})
		default:
			d.send(conn, wsResponse{Type: "error", Error: "unknown message type: " + req.Type})
		}
	}
}

func (d *Dashboard) sendError(conn *websocket.Conn, err error) {
	var me *matcher.Error
	if errors.As(err, &me) {
		d.send(conn, wsResponse{Type: "error", Error: me.Message, Kind: me.Kind})
		return
	}
	d.logger.Error().Err(err).Msg("chat turn failed")
	d.send(conn, wsResponse{Type: "error", Error: "internal error"})
}

func (d *Dashboard) send(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		d.logger.Warn().Err(err).Msg("websocket write failed")
	}
}
