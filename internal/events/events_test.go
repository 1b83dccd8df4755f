package events

import (
	"encoding/json"
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern, subject string
		want             bool
	}{
		{"wt.attendance.clock_in", "wt.attendance.clock_in", true},
		{"wt.attendance.clock_in", "wt.attendance.clock_out", false},
		{"wt.attendance.*", "wt.attendance.clock_out", true},
		{"wt.attendance.*", "wt.attendance", false},
		{"wt.*.started", "wt.movement.started", true},
		{"wt.>", "wt.location.e1", true},
		{"wt.>", "wt", false},
		{"wt.location.>", "wt.location.e1", true},
		{"wt.location.*", "wt.location.e1.extra", false},
		{"wt.location", "wt.location.e1", false},
	}

	for _, tt := range tests {
		if got := Match(tt.pattern, tt.subject); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.subject, got, tt.want)
		}
	}
}

func TestLocalBusDispatch(t *testing.T) {
	bus := NewLocalBus()

	var got []string
	unsubscribe, err := bus.Subscribe("wt.attendance.*", func(subject string, data []byte) {
		var payload map[string]string
		if err := json.Unmarshal(data, &payload); err != nil {
			t.Errorf("unmarshal: %v", err)
		}
		got = append(got, subject+":"+payload["employee_id"])
	})
	if err != nil {
		t.Fatal(err)
	}

	bus.Publish(SubjectClockIn, map[string]string{"employee_id": "e1"})
	bus.Publish(LocationSubject("e1"), map[string]string{"employee_id": "e1"})
	bus.Publish(SubjectClockOut, map[string]string{"employee_id": "e2"})

	if len(got) != 2 || got[0] != "wt.attendance.clock_in:e1" || got[1] != "wt.attendance.clock_out:e2" {
		t.Fatalf("got %v", got)
	}

	unsubscribe()
	bus.Publish(SubjectClockIn, map[string]string{"employee_id": "e3"})
	if len(got) != 2 {
		t.Errorf("handler called after unsubscribe: %v", got)
	}
	if !bus.Connected() {
		t.Error("local bus should report connected")
	}
}
