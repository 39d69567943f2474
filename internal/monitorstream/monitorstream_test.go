package monitorstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"plcsim/internal/broadcast"
)

func TestPublishCycleReachesConnectedViewer(t *testing.T) {
	s := NewServer("", "/stream")
	httpSrv := httptest.NewServer(http.HandlerFunc(s.handleUpgrade))
	defer httpSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Give the server's upgrade handler a moment to register the client
	// before publishing, since the dial above returns as soon as the
	// handshake completes on the client side.
	deadline := time.Now().Add(time.Second)
	for s.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("server never registered the connecting client")
		}
		time.Sleep(time.Millisecond)
	}

	bc := broadcast.New(false)
	bc.SetStatus(broadcast.Running)
	bc.Publish(7, "DInt#42")
	runID := uuid.New()

	if err := s.PublishCycle(bc, runID, 3); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}

	var f Frame
	if err := json.Unmarshal(msg, &f); err != nil {
		t.Fatal(err)
	}
	if f.Cycle != 3 || f.Status != "Running" {
		t.Fatalf("frame = %+v, want cycle 3 status Running", f)
	}
	if len(f.Monitors) != 1 || f.Monitors[0].Display != "DInt#42" {
		t.Fatalf("monitors = %+v, want one DInt#42 event", f.Monitors)
	}
}

func TestStopDisconnectsClients(t *testing.T) {
	s := NewServer("", "/stream")
	httpSrv := httptest.NewServer(http.HandlerFunc(s.handleUpgrade))
	defer httpSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for s.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("server never registered the connecting client")
		}
		time.Sleep(time.Millisecond)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the connection to be closed")
	}
}
