package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncRecorder guards the body so the test can read it while the handler
// is still writing.
type syncRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Body.String()
}

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "topic.created", Data: ChangeData{ID: "t1"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: topic.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"id":"t1"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishChange_CatalogThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange(EntityProblem, Created, ChangeData{ID: "p1", TopicID: "t1"})
	b.PublishChange(EntityNote, Saved, ChangeData{ID: "t1", TopicID: "t1"})

	time.Sleep(50 * time.Millisecond)
	var catalog, changes int
	var first string
	for _, s := range drain(ch) {
		if strings.Contains(s, CatalogUpdated) {
			catalog++
			continue
		}
		if changes == 0 {
			first = s
		}
		changes++
	}

	if changes != 2 {
		t.Errorf("change events = %d, want 2", changes)
	}
	if catalog != 1 {
		t.Errorf("catalog events = %d, want 1 (throttled)", catalog)
	}
	if !strings.Contains(first, "event: problem.created") || !strings.Contains(first, `"topicId":"t1"`) {
		t.Errorf("first event = %q", first)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b.PublishChange(EntityTopic, Deleted, ChangeData{ID: "t9"})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.body()
	if !strings.Contains(body, "event: topic.deleted") {
		t.Errorf("handler output missing event: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Capacity is 64; the extra events must be dropped, not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.Publish(Event{Type: "topic.updated", Data: ChangeData{ID: "x"}})
	b.PublishChange(EntityTopic, Updated, ChangeData{ID: "x"})
}

func TestSSEHandler_RetryAndHeartbeat(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	b.heartbeat = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()
	<-done

	body := w.body()
	if !strings.HasPrefix(body, "retry: 3000\n\n") {
		t.Errorf("stream should open with a retry hint: %q", body)
	}
	if !strings.Contains(body, ": ping\n\n") {
		t.Errorf("idle stream got no heartbeat: %q", body)
	}
}

func TestPublishChange_KeepsSubmissionOrder(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange(EntityTopic, Created, ChangeData{ID: "t1"})
	b.PublishChange(EntityTopic, Updated, ChangeData{ID: "t1"})
	b.PublishChange(EntityTopic, Deleted, ChangeData{ID: "t1"})
	b.ClientCount() // runs after the queued changes

	var kinds []string
	for _, s := range drain(ch) {
		if strings.Contains(s, CatalogUpdated) {
			continue
		}
		kinds = append(kinds, strings.SplitN(strings.TrimPrefix(s, "event: "), "\n", 2)[0])
	}
	want := []string{"topic.created", "topic.updated", "topic.deleted"}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", kinds, want)
	}
}
