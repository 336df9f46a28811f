package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/ChamsBouzaiene/relay/internal/config"
	"github.com/ChamsBouzaiene/relay/internal/engine"
	"github.com/ChamsBouzaiene/relay/internal/eventlog"
	"github.com/ChamsBouzaiene/relay/internal/session"
)

func testConfig() *config.Config {
	return &config.Config{
		PingInterval:   time.Second,
		WriteTimeout:   2 * time.Second,
		ReadTimeout:    5 * time.Second,
		MaxMessageSize: 65536,
	}
}

// fakeResponder stands in for the orchestrator.
type fakeResponder struct {
	fn func(sessionID, message string) (string, error)
}

func (f *fakeResponder) Respond(ctx context.Context, sessionID, message string) (string, error) {
	return f.fn(sessionID, message)
}

type testRelay struct {
	hub *Hub
	url string
}

func newTestRelay(t *testing.T, respond func(sessionID, message string) (string, error)) *testRelay {
	t.Helper()

	hub := NewHub()
	store := session.NewStore()
	server := NewServer(testConfig(), hub, store, &fakeResponder{fn: respond}, eventlog.Nop{})

	e := echo.New()
	e.GET("/ws/session/:session_id", server.HandleSession)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return &testRelay{
		hub: hub,
		url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/session/",
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) outboundFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var frame outboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("bad frame %s: %v", data, err)
	}
	return frame
}

func sendMessage(t *testing.T, conn *websocket.Conn, message string) {
	t.Helper()
	if err := conn.WriteJSON(inboundFrame{Message: message}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestSessionHappyPath(t *testing.T) {
	var relay *testRelay
	relay = newTestRelay(t, func(sessionID, message string) (string, error) {
		// Mimic the orchestrator's post-completion tool notification.
		relay.hub.Notify(sessionID, engine.ToolUseCompleted("fetch_user_data"))
		return "Your account is active.", nil
	})

	conn := dial(t, relay.url+"s1")

	frame := readFrame(t, conn)
	if frame.Type != "connection" || frame.Status != "connected" || frame.SessionID != "s1" {
		t.Fatalf("unexpected connection frame: %+v", frame)
	}

	sendMessage(t, conn, "What is my account status?")

	// Exactly one tool_use event naming the tool, then the response.
	frame = readFrame(t, conn)
	if frame.Type != "tool_use" || frame.Tool != "fetch_user_data" || frame.Status != "completed" {
		t.Fatalf("unexpected tool_use frame: %+v", frame)
	}
	frame = readFrame(t, conn)
	if frame.Type != "response" || frame.Content != "Your account is active." {
		t.Fatalf("unexpected response frame: %+v", frame)
	}
}

func TestSessionRunFailureKeepsConnectionUsable(t *testing.T) {
	calls := 0
	relay := newTestRelay(t, func(sessionID, message string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("model service unavailable")
		}
		return "second answer", nil
	})

	conn := dial(t, relay.url+"s1")
	readFrame(t, conn) // connection

	sendMessage(t, conn, "first")
	frame := readFrame(t, conn)
	if frame.Type != "error" || !strings.Contains(frame.Content, "unavailable") {
		t.Fatalf("unexpected error frame: %+v", frame)
	}

	// The session stays open and serves the next message.
	sendMessage(t, conn, "second")
	frame = readFrame(t, conn)
	if frame.Type != "response" || frame.Content != "second answer" {
		t.Fatalf("unexpected frame after recovery: %+v", frame)
	}
}

func TestSessionDuplicateIDRejected(t *testing.T) {
	relay := newTestRelay(t, func(sessionID, message string) (string, error) {
		return "ok", nil
	})

	first := dial(t, relay.url+"dup")
	readFrame(t, first) // connection

	second := dial(t, relay.url+"dup")
	frame := readFrame(t, second)
	if frame.Type != "error" || !strings.Contains(frame.Content, "already active") {
		t.Fatalf("unexpected frame for duplicate session: %+v", frame)
	}

	// The original connection is unaffected.
	sendMessage(t, first, "hello")
	frame = readFrame(t, first)
	if frame.Type != "response" {
		t.Fatalf("original session broken: %+v", frame)
	}
}

func TestSessionInvalidJSONProducesErrorFrame(t *testing.T) {
	relay := newTestRelay(t, func(sessionID, message string) (string, error) {
		return "ok", nil
	})

	conn := dial(t, relay.url+"s1")
	readFrame(t, conn) // connection

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	frame := readFrame(t, conn)
	if frame.Type != "error" {
		t.Fatalf("expected error frame, got %+v", frame)
	}
}
