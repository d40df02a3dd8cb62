package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"chestorganizer/internal/protocol"
	"chestorganizer/internal/sim/catalogs"
	"chestorganizer/internal/sim/world"
)

func startServer(t *testing.T, token string) string {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	w, err := world.New(world.WorldConfig{ID: "test", TickRateHz: 50, Height: 16, BoundaryR: 32}, cats, nil)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()

	srv := NewServer(w, nil)
	srv.Token = token
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hs.Close()
		cancel()
	})
	return "ws" + strings.TrimPrefix(hs.URL, "http")
}

func dial(t *testing.T, url string, hello protocol.HelloMsg) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("hello: %v", err)
	}
	return conn
}

func hello(name string) protocol.HelloMsg {
	return protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, AgentName: name}
}

func TestServer_HelloWelcomeAndChat(t *testing.T) {
	url := startServer(t, "")
	conn := dial(t, url, hello("alice"))

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var wel protocol.WelcomeMsg
	if err := conn.ReadJSON(&wel); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if wel.Type != protocol.TypeWelcome || wel.AgentID == "" {
		t.Fatalf("welcome: %+v", wel)
	}

	act := protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Instants:        []protocol.InstantReq{{ID: "s1", Type: protocol.InstantSay, Text: "hi there"}},
	}
	if err := conn.WriteJSON(act); err != nil {
		t.Fatalf("write act: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg protocol.EventMsg
		if err := json.Unmarshal(b, &msg); err != nil || msg.Type != protocol.TypeEvent {
			continue
		}
		for _, ev := range msg.Events {
			if ev["type"] == "CHAT" && ev["text"] == "hi there" && ev["from"] == wel.AgentID {
				return
			}
		}
	}
	t.Fatalf("chat event not received")
}

func TestServer_RejectsBadHandshake(t *testing.T) {
	url := startServer(t, "s3cret")

	cases := []struct {
		name  string
		hello protocol.HelloMsg
	}{
		{"wrong_type", protocol.HelloMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version}},
		{"bad_version", protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "9.9", AgentName: "x"}},
		{"missing_token", hello("x")},
		{"wrong_token", protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, AgentName: "x", Auth: &protocol.HelloAuth{Token: "nope"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := dial(t, url, tc.hello)
			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			if _, _, err := conn.ReadMessage(); err == nil {
				t.Fatalf("expected the server to close the connection")
			}
		})
	}

	ok := hello("y")
	ok.Auth = &protocol.HelloAuth{Token: "s3cret"}
	conn := dial(t, url, ok)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var wel protocol.WelcomeMsg
	if err := conn.ReadJSON(&wel); err != nil || wel.AgentID == "" {
		t.Fatalf("welcome with token: %+v %v", wel, err)
	}
}
