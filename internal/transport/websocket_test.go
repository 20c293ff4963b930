package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"go-fog-detector/pkg/models"
)

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := NewHub()

	// Must be a no-op, not a panic or a block.
	hub.Publish(models.StreamUpdate{FrameIndex: 1})
	if hub.ClientCount() != 0 {
		t.Errorf("Expected no clients, got %d", hub.ClientCount())
	}
}

func TestHub_DeliversUpdates(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, 1)

	sent := models.StreamUpdate{
		Result:     models.FogDetectionResponse{Intensity: "Light", FogDetected: true},
		StatusText: "Light Fog Detected (Laplacian Variance: 120.00 / Threshold: 250.00)",
		FrameIndex: 7,
	}
	hub.Publish(sent)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got models.StreamUpdate
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got.FrameIndex != 7 || got.Result.Intensity != "Light" || got.StatusText != sent.StatusText {
		t.Errorf("Delivered update %+v does not match published %+v", got, sent)
	}
}

func TestHub_RemovesDisconnectedClients(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	// Publishing after the disconnect must still be safe.
	hub.Publish(models.StreamUpdate{FrameIndex: 2})
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %d connected clients, have %d", want, hub.ClientCount())
}
