// Package sse streams catalog change notifications to browsers and other
// listeners as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Change kinds.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
	Saved   = "saved"
)

// Entities that emit change events.
const (
	EntityTopic   = "topic"
	EntityProblem = "problem"
	EntityNote    = "note"
)

// CatalogUpdated is the throttled summary event sent after changes.
const CatalogUpdated = "catalog.updated"

const (
	clientBuffer     = 64
	defaultHeartbeat = 25 * time.Second
	retryMillis      = 3000
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ChangeData is the payload of entity change events.
type ChangeData struct {
	ID      string `json:"id"`
	TopicID string `json:"topicId,omitempty"`
}

// frame renders e in the text/event-stream wire format.
func (e Event) frame() ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, payload)), nil
}

// hub is the state owned by the broker loop. Only ops running on the loop
// touch it.
type hub struct {
	listeners   map[chan []byte]struct{}
	throttle    time.Duration
	lastCatalog time.Time
}

func (h *hub) send(e Event) {
	msg, err := e.frame()
	if err != nil {
		return
	}
	for ch := range h.listeners {
		select {
		case ch <- msg:
		default:
			// Listener is behind; it misses this event.
		}
	}
}

func (h *hub) change(entity, kind string, data ChangeData) {
	h.send(Event{Type: entity + "." + kind, Data: data})
	if now := time.Now(); now.Sub(h.lastCatalog) >= h.throttle {
		h.lastCatalog = now
		h.send(Event{Type: CatalogUpdated, Data: map[string]string{}})
	}
}

// Broker fans catalog change events out to SSE listeners. Every mutation of
// the listener set runs as an op on one goroutine, in submission order.
type Broker struct {
	ops       chan func(*hub)
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	heartbeat time.Duration
}

// NewBroker creates a broker that emits at most one catalog.updated per
// throttle interval.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}
	b := &Broker{
		ops:       make(chan func(*hub), 256),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		heartbeat: defaultHeartbeat,
	}
	go b.loop(&hub{listeners: make(map[chan []byte]struct{}), throttle: throttle})
	return b
}

func (b *Broker) loop(h *hub) {
	defer close(b.done)
	for {
		select {
		case <-b.quit:
			for ch := range h.listeners {
				close(ch)
			}
			return
		case op := <-b.ops:
			op(h)
		}
	}
}

// submit queues op without waiting. It reports false once the broker is
// closed.
func (b *Broker) submit(op func(*hub)) bool {
	select {
	case <-b.done:
		return false
	default:
	}
	select {
	case b.ops <- op:
		return true
	case <-b.done:
		return false
	}
}

// call runs op on the loop and waits for it to finish.
func (b *Broker) call(op func(*hub)) bool {
	finished := make(chan struct{})
	if !b.submit(func(h *hub) { op(h); close(finished) }) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-b.done:
		// The loop finishes an op before closing done, so this is settled.
		select {
		case <-finished:
			return true
		default:
			return false
		}
	}
}

// Close disconnects every listener and stops the broker. Later calls are
// no-ops.
func (b *Broker) Close() {
	b.closeOnce.Do(func() { close(b.quit) })
	<-b.done
}

// Subscribe registers a listener. The channel is closed on Unsubscribe or
// Close; after Close it is returned already closed.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if !b.call(func(h *hub) { h.listeners[ch] = struct{}{} }) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.call(func(h *hub) {
		if _, ok := h.listeners[ch]; ok {
			delete(h.listeners, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected listeners.
func (b *Broker) ClientCount() int {
	n := 0
	b.call(func(h *hub) { n = len(h.listeners) })
	return n
}

// Publish sends an arbitrary event to all listeners.
func (b *Broker) Publish(event Event) {
	b.submit(func(h *hub) { h.send(event) })
}

// PublishChange emits "<entity>.<kind>" followed by a throttled
// catalog.updated.
func (b *Broker) PublishChange(entity, kind string, data ChangeData) {
	b.submit(func(h *hub) { h.change(entity, kind, data) })
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). Idle streams get
// a comment line every heartbeat so proxies keep them open.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ticker := time.NewTicker(b.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
