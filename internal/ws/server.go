// Package ws provides the WebSocket transport for conversation sessions.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/ChamsBouzaiene/relay/internal/config"
	"github.com/ChamsBouzaiene/relay/internal/engine"
	"github.com/ChamsBouzaiene/relay/internal/eventlog"
	"github.com/ChamsBouzaiene/relay/internal/session"
)

// Responder resolves one user message into final assistant text.
// Implemented by engine.Orchestrator.
type Responder interface {
	Respond(ctx context.Context, sessionID, userMessage string) (string, error)
}

// Server handles WebSocket session connections.
type Server struct {
	cfg      *config.Config
	hub      *Hub
	store    *session.Store
	orch     Responder
	recorder eventlog.Recorder
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, hub *Hub, store *session.Store, orch Responder, recorder eventlog.Recorder) *Server {
	return &Server{
		cfg:      cfg,
		hub:      hub,
		store:    store,
		orch:     orch,
		recorder: recorder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleSession upgrades the connection and owns the session lifecycle:
// open on connect, drain and close on disconnect.
func (s *Server) HandleSession(c echo.Context) error {
	sessionID := c.Param("session_id")

	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("websocket upgrade failed")
		return err
	}

	sess, err := s.store.Open(sessionID)
	if err != nil {
		s.rejectSession(ws, sessionID, err)
		return nil
	}

	conn := s.hub.bind(sessionID)
	go s.writePump(ws, conn)

	s.recorder.CreateSession(c.Request().Context(), sessionID, sess.UserID, sess.StartedAt)
	s.hub.Notify(sessionID, engine.Connected())
	log.Info().Str("session_id", sessionID).Str("user_id", sess.UserID).Msg("session connected")

	s.readPump(ws, conn)

	// Disconnect: suppress further notifications first, then let any
	// in-flight run settle before the session record is closed.
	s.hub.unbind(conn)
	s.store.Drain(sessionID)
	s.store.Close(sessionID)
	s.recorder.CloseSession(context.Background(), sessionID, time.Now().UTC())
	log.Info().Str("session_id", sessionID).Msg("session closed")

	return nil
}

// rejectSession refuses a connection whose session id could not be opened.
func (s *Server) rejectSession(ws *websocket.Conn, sessionID string, err error) {
	msg := "failed to open session"
	if errors.Is(err, session.ErrDuplicateSession) {
		msg = "session id already active"
	}
	frame, _ := json.Marshal(outboundFrame{Type: "error", Content: msg})
	_ = ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	_ = ws.WriteMessage(websocket.TextMessage, frame)
	_ = ws.Close()
	log.Warn().Err(err).Str("session_id", sessionID).Msg("session rejected")
}

// readPump reads inbound frames until the client disconnects. Each user
// message runs in its own goroutine; the session store's run lock serializes
// same-session runs, so later messages queue behind the in-flight run.
func (s *Server) readPump(ws *websocket.Conn, conn *connection) {
	defer ws.Close()

	ws.SetReadLimit(s.cfg.MaxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("session_id", conn.sessionID).Msg("websocket read error")
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.hub.Notify(conn.sessionID, engine.ErrorEvent("invalid JSON message"))
			continue
		}

		go s.handleUserMessage(conn.sessionID, frame.Message)
	}
}

// handleUserMessage drives one conversation run. Runs outlive the request
// context on purpose: a disconnect lets the current round-trip settle rather
// than aborting mid-tool-call.
func (s *Server) handleUserMessage(sessionID, message string) {
	ctx := context.Background()

	s.recorder.Record(ctx, sessionID, "user_message", map[string]string{"content": message})

	text, err := s.orch.Respond(ctx, sessionID, message)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("conversation run failed")
		s.hub.Notify(sessionID, engine.ErrorEvent(err.Error()))
		return
	}

	s.recorder.Record(ctx, sessionID, "ai_response", map[string]string{"content": text})
	s.hub.Notify(sessionID, engine.FinalResponse(text))
}

// writePump is the connection's single writer: it drains the send queue in
// order and keeps the connection alive with pings.
func (s *Server) writePump(ws *websocket.Conn, conn *connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case data, ok := <-conn.send:
			_ = ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("session_id", conn.sessionID).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
