// Package events publishes domain events on NATS, optionally persisted through
// JetStream. Without a NATS connection events are dispatched in-process.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects
const (
	SubjectClockIn           = "wt.attendance.clock_in"
	SubjectClockOut          = "wt.attendance.clock_out"
	SubjectMovementStarted   = "wt.movement.started"
	SubjectMovementEnded     = "wt.movement.ended"
	SubjectMovementCancelled = "wt.movement.cancelled"
	subjectLocationPrefix    = "wt.location."

	SubjectAll = "wt.>"
)

// StreamEvents is the JetStream stream holding every wt.* event
const StreamEvents = "WT_EVENTS"

// LocationSubject returns the subject location updates of one employee are published on
func LocationSubject(employeeID string) string {
	return subjectLocationPrefix + employeeID
}

// Handler receives the subject and the JSON payload of an event
type Handler func(subject string, data []byte)

// Publisher is the part of the bus the services depend on
type Publisher interface {
	Publish(subject string, v interface{}) error
}

type localSub struct {
	pattern string
	handler Handler
}

// Bus is the event bus
type Bus struct {
	nc *nats.Conn
	js nats.JetStreamContext

	mu     sync.RWMutex
	local  map[int]localSub
	nextID int
}

// NewLocalBus returns a bus that only dispatches in-process
func NewLocalBus() *Bus {
	return &Bus{local: make(map[int]localSub)}
}

// Connect dials NATS and returns a bus over it
func Connect(url string, jetstream bool) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.Name("worktrack-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[Events] NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[Events] NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	bus, err := NewBus(nc, jetstream)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return bus, nil
}

// NewBus wraps an existing NATS connection
func NewBus(nc *nats.Conn, jetstream bool) (*Bus, error) {
	b := &Bus{nc: nc, local: make(map[int]localSub)}
	if !jetstream {
		return b, nil
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}
	b.js = js
	if err := b.initStream(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bus) initStream() error {
	cfg := &nats.StreamConfig{
		Name:      StreamEvents,
		Subjects:  []string{SubjectAll},
		Retention: nats.LimitsPolicy,
		MaxMsgs:   -1,
		MaxBytes:  2 * 1024 * 1024 * 1024, // 2GB
		MaxAge:    30 * 24 * time.Hour,
		Storage:   nats.FileStorage,
		Replicas:  1,
	}

	_, err := b.js.AddStream(cfg)
	if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		_, err = b.js.UpdateStream(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to init stream %s: %w", cfg.Name, err)
	}
	return nil
}

// Publish marshals v and publishes it on subject
func (b *Bus) Publish(subject string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	switch {
	case b.js != nil:
		_, err = b.js.Publish(subject, payload)
	case b.nc != nil:
		err = b.nc.Publish(subject, payload)
	default:
		b.dispatch(subject, payload)
	}
	return err
}

func (b *Bus) dispatch(subject string, payload []byte) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.local))
	for _, sub := range b.local {
		if Match(sub.pattern, subject) {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(subject, payload)
	}
}

// Subscribe registers h for subject, which may contain NATS wildcards.
// The returned function removes the subscription.
func (b *Bus) Subscribe(subject string, h Handler) (func(), error) {
	if b.nc != nil {
		sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
			h(msg.Subject, msg.Data)
		})
		if err != nil {
			return nil, err
		}
		return func() { sub.Unsubscribe() }, nil
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.local[id] = localSub{pattern: subject, handler: h}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.local, id)
		b.mu.Unlock()
	}, nil
}

// Connected reports whether the bus has a live NATS connection; local buses are always connected
func (b *Bus) Connected() bool {
	return b.nc == nil || b.nc.IsConnected()
}

// JetStreamEnabled reports whether events are persisted in the WT_EVENTS stream
func (b *Bus) JetStreamEnabled() bool {
	return b.js != nil
}

// StreamInfo returns the state of the WT_EVENTS stream
func (b *Bus) StreamInfo() (*nats.StreamInfo, error) {
	if b.js == nil {
		return nil, errors.New("jetstream is not enabled")
	}
	return b.js.StreamInfo(StreamEvents)
}

// Close drains the NATS connection
func (b *Bus) Close() {
	if b.nc == nil {
		return
	}
	if err := b.nc.Drain(); err != nil {
		log.Printf("[Events] Failed to drain NATS connection: %v", err)
	}
}

// Match reports whether subject matches a NATS subject pattern.
// "*" matches one token and a trailing ">" matches one or more.
func Match(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, p := range pt {
		if p == ">" {
			return i == len(pt)-1 && len(st) > i
		}
		if i >= len(st) {
			return false
		}
		if p != "*" && p != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}
