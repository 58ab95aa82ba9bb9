package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is an in-process lifecycle event for a resolution run.
type Event struct {
	// ID is a generated unique identifier.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp"`

	// Type is one of the EventType constants.
	Type string `json:"type"`

	// RunID is the run this event belongs to.
	RunID string `json:"run_id,omitempty"`

	// Message is a human-readable summary.
	Message string `json:"message"`

	// Level is info, warning, or error.
	Level string `json:"level"`

	// Data carries event-specific fields.
	Data map[string]interface{} `json:"data,omitempty"`
}

// Event types emitted by the pipeline.
const (
	EventTypeRunStarted      = "run.started"
	EventTypeRunCompleted    = "run.completed"
	EventTypeRunFailed       = "run.failed"
	EventTypeFindingDetected = "finding.detected"
)

// Event levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber handles published events.
type EventSubscriber func(event Event)

// EventBus fans events out to subscribers, asynchronously when a buffer
// size is configured. A disabled bus drops everything.
type EventBus struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []EventSubscriber
	mu          sync.RWMutex
	wg          sync.WaitGroup
	done        chan struct{}
	closeOnce   sync.Once
}

// NewEventBus creates the bus and, when buffered, starts the delivery
// goroutine.
func NewEventBus(cfg EventsConfig) *EventBus {
	bus := &EventBus{config: cfg, done: make(chan struct{})}
	if cfg.Enabled && cfg.BufferSize > 0 {
		bus.buffer = make(chan Event, cfg.BufferSize)
		bus.wg.Add(1)
		go bus.deliverLoop()
	}
	return bus
}

// Subscribe registers a subscriber for all subsequent events.
func (b *EventBus) Subscribe(sub EventSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, sub)
}

// Publish delivers an event to every subscriber. Buffered buses drop the
// event with an error when full rather than blocking the pipeline.
func (b *EventBus) Publish(event Event) error {
	if !b.config.Enabled {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if b.buffer != nil {
		select {
		case b.buffer <- event:
			return nil
		case <-b.done:
			return fmt.Errorf("event bus closed")
		default:
			return fmt.Errorf("event buffer full, event dropped")
		}
	}

	b.deliver(event)
	return nil
}

// PublishRunStarted emits a run.started event.
func (b *EventBus) PublishRunStarted(runID, source string) error {
	return b.Publish(Event{
		Type:    EventTypeRunStarted,
		RunID:   runID,
		Message: fmt.Sprintf("run %s started for %s", runID, source),
		Level:   EventLevelInfo,
		Data:    map[string]interface{}{"source": source},
	})
}

// PublishRunCompleted emits a run.completed event.
func (b *EventBus) PublishRunCompleted(runID string, errors, warnings int, duration time.Duration) error {
	return b.Publish(Event{
		Type:    EventTypeRunCompleted,
		RunID:   runID,
		Message: fmt.Sprintf("run %s completed: %d errors, %d warnings", runID, errors, warnings),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"errors":   errors,
			"warnings": warnings,
			"duration": duration.Seconds(),
		},
	})
}

// PublishRunFailed emits a run.failed event.
func (b *EventBus) PublishRunFailed(runID, reason string) error {
	return b.Publish(Event{
		Type:    EventTypeRunFailed,
		RunID:   runID,
		Message: fmt.Sprintf("run %s failed: %s", runID, reason),
		Level:   EventLevelError,
		Data:    map[string]interface{}{"reason": reason},
	})
}

func (b *EventBus) deliverLoop() {
	defer b.wg.Done()
	for {
		select {
		case event := <-b.buffer:
			b.deliver(event)
		case <-b.done:
			// Drain whatever is left before exiting.
			for {
				select {
				case event := <-b.buffer:
					b.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (b *EventBus) deliver(event Event) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()
	for _, sub := range subs {
		sub(event)
	}
}

// Close stops delivery after draining the buffer.
func (b *EventBus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
	b.wg.Wait()
}

// LogSubscriber returns a subscriber that mirrors events into a zerolog
// logger. The CLI registers it in verbose mode so run lifecycle events
// show up in the debug stream.
func LogSubscriber(logger zerolog.Logger) EventSubscriber {
	return func(event Event) {
		var e *zerolog.Event
		switch event.Level {
		case EventLevelError:
			e = logger.Error()
		case EventLevelWarning:
			e = logger.Warn()
		default:
			e = logger.Debug()
		}
		e.Str("event", event.Type).
			Str("run_id", event.RunID).
			Fields(event.Data).
			Msg(event.Message)
	}
}
