// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// setupWebSocketServer creates a test WebSocket server with a custom handler
func setupWebSocketServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(server.Close)
	return server
}

func dialWebSocket(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	return conn
}

func waitForChannel(t *testing.T, ch <-chan bool, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Errorf("%s: timeout after %v", msg, timeout)
	}
}

func TestNewClient(t *testing.T) {
	hub := NewHub()
	server := setupWebSocketServer(t, func(*websocket.Conn) { time.Sleep(50 * time.Millisecond) })
	conn := dialWebSocket(t, server)
	defer conn.Close()

	a := NewClient(hub, conn, "admin-1")
	b := NewClient(hub, conn, "admin-2")

	if a.hub != hub || a.conn != conn {
		t.Error("client fields not set")
	}
	if a.userID != "admin-1" {
		t.Errorf("userID = %q, want admin-1", a.userID)
	}
	if cap(a.send) != 256 {
		t.Errorf("send capacity = %d, want 256", cap(a.send))
	}
	if b.ID() <= a.ID() {
		t.Errorf("IDs not increasing: %d then %d", a.ID(), b.ID())
	}
}

func TestClient_Constants(t *testing.T) {
	if pingPeriod >= pongWait {
		t.Errorf("pingPeriod %v must be shorter than pongWait %v", pingPeriod, pongWait)
	}
	if writeWait != 10*time.Second {
		t.Errorf("writeWait = %v, want 10s", writeWait)
	}
}

func TestClient_WritePump_SendMessage(t *testing.T) {
	received := make(chan bool, 1)
	server := setupWebSocketServer(t, func(conn *websocket.Conn) {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("read: %v", err)
			return
		}
		if msg.Type == MessageTypeSecurityEvent {
			received <- true
		}
	})
	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(NewHub(), conn, "admin-1")
	go client.writePump()
	client.send <- Message{Type: MessageTypeSecurityEvent, Data: "x"}

	waitForChannel(t, received, time.Second, "message not received")
}

func TestClient_ReadPump_PingPong(t *testing.T) {
	hub := setupHub(t)

	gotPong := make(chan bool, 1)
	server := setupWebSocketServer(t, func(conn *websocket.Conn) {
		if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
			t.Errorf("write ping: %v", err)
			return
		}
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("read pong: %v", err)
			return
		}
		if msg.Type == MessageTypePong {
			gotPong <- true
		}
		time.Sleep(50 * time.Millisecond)
	})
	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(hub, conn, "admin-1")
	registerClient(hub, client)
	client.Start()

	waitForChannel(t, gotPong, time.Second, "pong not received")
}

func TestClient_ReadPump_ConnectionClose(t *testing.T) {
	hub := NewHub()
	unregistered := make(chan bool, 1)
	go func() {
		select {
		case <-hub.Unregister:
			unregistered <- true
		case <-time.After(2 * time.Second):
		}
	}()

	server := setupWebSocketServer(t, func(conn *websocket.Conn) { conn.Close() })
	conn := dialWebSocket(t, server)

	client := NewClient(hub, conn, "admin-1")
	go client.readPump()

	waitForChannel(t, unregistered, time.Second, "client not unregistered after close")
}

func TestClient_WritePump_ChannelClose(t *testing.T) {
	gotClose := make(chan bool, 1)
	server := setupWebSocketServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
					gotClose <- true
				}
				return
			}
		}
	})
	conn := dialWebSocket(t, server)

	client := NewClient(NewHub(), conn, "admin-1")
	done := make(chan struct{})
	go func() {
		client.writePump()
		close(done)
	}()
	close(client.send)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writePump did not return after channel close")
	}
}

func TestClient_Integration(t *testing.T) {
	hub := setupHub(t)

	received := make(chan Message, 10)
	server := setupWebSocketServer(t, func(conn *websocket.Conn) {
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			received <- msg
		}
	})
	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(hub, conn, "admin-1")
	client.Start()
	registerClient(hub, client)

	hub.BroadcastJSON(MessageTypeSecurityAlert, map[string]string{"ruleType": "multi_vector"})

	select {
	case msg := <-received:
		if msg.Type != MessageTypeSecurityAlert {
			t.Errorf("Type = %q, want %q", msg.Type, MessageTypeSecurityAlert)
		}
	case <-time.After(time.Second):
		t.Error("message not received within timeout")
	}
}
