package telemetry

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestEventBus_SynchronousDelivery(t *testing.T) {
	bus := NewEventBus(EventsConfig{Enabled: true})

	var got []Event
	bus.Subscribe(func(event Event) {
		got = append(got, event)
	})

	if err := bus.PublishRunStarted("run-1", "cluster.ini"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := bus.PublishRunCompleted("run-1", 2, 1, 10*time.Millisecond); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Type != EventTypeRunStarted || got[0].RunID != "run-1" {
		t.Errorf("first event = %+v", got[0])
	}
	if got[1].Type != EventTypeRunCompleted {
		t.Errorf("second event = %+v", got[1])
	}
	if got[0].ID == "" || got[0].Timestamp.IsZero() {
		t.Error("published events should be stamped with id and time")
	}
}

func TestEventBus_BufferedDelivery(t *testing.T) {
	bus := NewEventBus(EventsConfig{Enabled: true, BufferSize: 8})

	var mu sync.Mutex
	var got []Event
	bus.Subscribe(func(event Event) {
		mu.Lock()
		got = append(got, event)
		mu.Unlock()
	})

	for i := 0; i < 3; i++ {
		if err := bus.PublishRunFailed("run-2", "bind failed"); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}
	// Close drains the buffer before returning.
	bus.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Fatalf("got %d events after close, want 3", len(got))
	}
	if got[0].Level != EventLevelError {
		t.Errorf("level = %q, want error", got[0].Level)
	}
}

func TestEventBus_DisabledDropsEverything(t *testing.T) {
	bus := NewEventBus(EventsConfig{Enabled: false})

	called := false
	bus.Subscribe(func(Event) { called = true })

	if err := bus.PublishRunStarted("run-3", "cluster.ini"); err != nil {
		t.Fatalf("disabled publish should be a silent no-op, got %v", err)
	}
	if called {
		t.Error("disabled bus delivered an event")
	}
}

func TestLogSubscriber(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	bus := NewEventBus(EventsConfig{Enabled: true})
	bus.Subscribe(LogSubscriber(logger))

	if err := bus.PublishRunStarted("run-4", "cluster.ini"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := bus.PublishRunFailed("run-4", "bind failed"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, EventTypeRunStarted) {
		t.Errorf("log output missing run.started:\n%s", out)
	}
	if !strings.Contains(out, "run-4") {
		t.Errorf("log output missing the run id:\n%s", out)
	}
	if !strings.Contains(out, `"level":"error"`) {
		t.Errorf("run failure should log at error level:\n%s", out)
	}
}
