package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHandleAppendsLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reservations.log")
	c := NewConsumer("amqp://unused", path)

	ev := ReservationEvent{
		Type:          ReservationCreated,
		ReservationID: 7,
		DinerID:       1,
		DinerName:     "Ana",
		TableID:       3,
		TableNumber:   "T3",
		Date:          "2025-06-01",
		Time:          "20:00:00",
		PartySize:     2,
		OccurredAt:    "2025-05-01T10:00:00Z",
	}
	body, _ := json.Marshal(ev)
	for i := 0; i < 2; i++ {
		if err := c.Handle(body); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "reservation.created | reservation_id=7") {
		t.Errorf("unexpected line: %s", lines[0])
	}
	if !strings.Contains(lines[0], `table="T3"`) {
		t.Errorf("line missing table number: %s", lines[0])
	}
}

func TestHandleRejectsMalformed(t *testing.T) {
	c := NewConsumer("amqp://unused", filepath.Join(t.TempDir(), "x.log"))
	if err := c.Handle([]byte("{not json")); err == nil {
		t.Error("expected error for malformed body")
	}
	if err := c.Handle([]byte(`{"type":""}`)); err == nil {
		t.Error("expected error for empty event")
	}
}
