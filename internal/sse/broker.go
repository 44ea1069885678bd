// Package sse implements a Server-Sent Events broker for index and selection updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types.
const (
	EventIndexUpdated     = "index.updated"
	EventSelectionChanged = "selection.changed"
	EventHighlightChanged = "highlight.changed"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// IndexUpdate is the payload of an index.updated event.
type IndexUpdate struct {
	Generation uint64 `json:"generation"`
	Dates      int    `json:"dates"`
	Entries    int    `json:"entries"`
}

// DateChange is the payload of selection.changed and highlight.changed.
// Date is null when the selection was cleared.
type DateChange struct {
	Date *string `json:"date"`
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients + index throttle state). Public methods communicate with this loop
// through channels, so no mutexes are required.
type Broker struct {
	indexMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	indexCh       chan IndexUpdate
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker that sends at most one index.updated
// event per indexThrottle.
func NewBroker(indexThrottle time.Duration) *Broker {
	if indexThrottle <= 0 {
		indexThrottle = 500 * time.Millisecond
	}

	b := &Broker{
		indexMin:      indexThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		indexCh:       make(chan IndexUpdate, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

// Format renders event in SSE wire format.
func Format(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastIndex time.Time
	var pending *IndexUpdate
	var flushTimer *time.Timer
	var flushC <-chan time.Time

	broadcast := func(event Event) {
		raw, err := Format(event)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	sendIndex := func(u IndexUpdate) {
		lastIndex = time.Now()
		pending = nil
		broadcast(Event{Type: EventIndexUpdated, Data: u})
	}

	for {
		select {
		case <-b.stopCh:
			if flushTimer != nil {
				flushTimer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case u := <-b.indexCh:
			wait := b.indexMin - time.Since(lastIndex)
			if wait <= 0 {
				sendIndex(u)
				continue
			}
			// Inside the throttle window: keep only the latest update and
			// deliver it when the window closes.
			if pending == nil {
				if flushTimer == nil {
					flushTimer = time.NewTimer(wait)
					flushC = flushTimer.C
				} else {
					flushTimer.Reset(wait)
				}
			}
			pending = &u

		case <-flushC:
			if pending != nil {
				sendIndex(*pending)
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishIndexUpdated announces a newly published snapshot. Bursts are
// throttled; the most recent update in a burst is always delivered.
func (b *Broker) PublishIndexUpdated(generation uint64, dates, entries int) {
	if b.closed.Load() {
		return
	}
	select {
	case b.indexCh <- IndexUpdate{Generation: generation, Dates: dates, Entries: entries}:
	case <-b.stopped:
	}
}

// PublishSelection announces a selection change. kind is "selection" or
// "highlight"; an empty date means cleared.
func (b *Broker) PublishSelection(kind, date string) {
	typ := EventSelectionChanged
	if kind == "highlight" {
		typ = EventHighlightChanged
	}
	var d *string
	if date != "" {
		d = &date
	}
	b.Publish(Event{Type: typ, Data: DateChange{Date: d}})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
