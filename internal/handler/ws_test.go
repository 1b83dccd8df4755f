package handler

import (
	"encoding/json"
	"testing"
	"time"

	"worktrack/internal/events"
)

func TestClientSendAfterDrop(t *testing.T) {
	hub := NewLiveHub(events.NewLocalBus())
	client := &Client{ID: "c1", Send: make(chan []byte, 1), Hub: hub}
	hub.clients[client] = true

	if !client.send([]byte("first")) {
		t.Fatal("send on empty queue failed")
	}
	if client.send([]byte("second")) {
		t.Fatal("send on full queue succeeded")
	}

	hub.drop(client)
	if hub.ClientCount() != 0 {
		t.Fatalf("clients = %d, want 0", hub.ClientCount())
	}

	// a pong queued by ReadPump after the hub dropped the client
	if client.send([]byte(`{"type":"pong"}`)) {
		t.Error("send on closed client succeeded")
	}
	hub.drop(client)
	client.close()
}

func receive(t *testing.T, c *Client) LiveMessage {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg LiveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("client %s got nothing", c.ID)
	}
	return LiveMessage{}
}

func TestHubFiltersByEmployee(t *testing.T) {
	bus := events.NewLocalBus()
	hub := NewLiveHub(bus)
	go hub.Run()
	defer hub.Stop()

	everyone := &Client{ID: "all", Send: make(chan []byte, 8), Hub: hub}
	follower := &Client{ID: "e1", Send: make(chan []byte, 8), Hub: hub, employeeID: "e1"}
	hub.register <- everyone
	hub.register <- follower

	bus.Publish("wt.attendance.clock_in", map[string]string{"employee_id": "e2"})
	bus.Publish("wt.location.unknown", "not an object")
	bus.Publish("wt.movement.started", map[string]string{"employee_id": "e1"})

	for _, want := range []string{"wt.attendance.clock_in", "wt.location.unknown", "wt.movement.started"} {
		if got := receive(t, everyone); got.Subject != want {
			t.Fatalf("everyone got %s, want %s", got.Subject, want)
		}
	}

	msg := receive(t, follower)
	if msg.Subject != "wt.movement.started" || msg.Type != "movement" {
		t.Fatalf("follower got %s (%s), want only the e1 movement", msg.Subject, msg.Type)
	}
	select {
	case extra := <-follower.Send:
		t.Fatalf("follower got extra message %s", extra)
	default:
	}
}
