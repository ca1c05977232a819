// Package sse implements a Server-Sent Events broker that streams canvas,
// pin, and rotation events to connected clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// frame renders event in text/event-stream format.
func frame(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
}

// outbound is one framed event; a non-empty rotation key asks the loop to
// follow it with a throttled rotations.updated.
type outbound struct {
	frame    []byte
	rotation string
}

// membership asks the run loop to add or remove ch; done is closed once
// the client set reflects the change.
type membership struct {
	ch   chan []byte
	done chan struct{}
}

// Broker fans events out to SSE clients. The client set and the rotations
// throttle belong to the run goroutine; everything else talks to it over
// channels.
type Broker struct {
	rotationsMin time.Duration

	join  chan membership
	leave chan membership
	out   chan outbound

	clients  atomic.Int64
	stopOnce sync.Once
	stop     chan struct{}
	stopped  chan struct{}
}

// NewBroker starts a broker. rotationsThrottle bounds how often
// rotations.updated follows a burst of daily canvas changes.
func NewBroker(rotationsThrottle time.Duration) *Broker {
	if rotationsThrottle <= 0 {
		rotationsThrottle = 2 * time.Second
	}
	b := &Broker{
		rotationsMin: rotationsThrottle,
		join:         make(chan membership),
		leave:        make(chan membership),
		out:          make(chan outbound, 256),
		stop:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastRotations time.Time

	send := func(msg []byte) {
		for ch := range clients {
			select {
			case ch <- msg:
			default:
				// Slow client; drop rather than stall everyone else.
			}
		}
	}

	for {
		select {
		case <-b.stop:
			for ch := range clients {
				close(ch)
			}
			b.clients.Store(0)
			return

		case m := <-b.join:
			clients[m.ch] = struct{}{}
			b.clients.Store(int64(len(clients)))
			close(m.done)

		case m := <-b.leave:
			if _, ok := clients[m.ch]; ok {
				delete(clients, m.ch)
				close(m.ch)
				b.clients.Store(int64(len(clients)))
			}
			close(m.done)

		case o := <-b.out:
			send(o.frame)
			if o.rotation == "" {
				continue
			}
			if now := time.Now(); now.Sub(lastRotations) >= b.rotationsMin {
				lastRotations = now
				if msg, err := frame(Event{Type: "rotations.updated", Data: map[string]string{"key": o.rotation}}); err == nil {
					send(msg)
				}
			}
		}
	}
}

// Close stops the broker and closes every client channel. It is safe to
// call more than once.
func (b *Broker) Close() {
	b.stopOnce.Do(func() { close(b.stop) })
	<-b.stopped
}

// Clients returns the number of connected clients.
func (b *Broker) Clients() int {
	return int(b.clients.Load())
}

// Subscribe registers a client. The returned channel is closed by
// Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if !b.request(b.join, ch) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.request(b.leave, ch)
}

// request hands ch to the run loop and waits for it to be applied. It
// reports false when the broker has stopped.
func (b *Broker) request(to chan membership, ch chan []byte) bool {
	m := membership{ch: ch, done: make(chan struct{})}
	select {
	case to <- m:
	case <-b.stopped:
		return false
	}
	<-m.done
	return true
}

// Publish sends an event to all connected clients. Events that cannot be
// encoded are dropped.
func (b *Broker) Publish(event Event) {
	msg, err := frame(event)
	if err != nil {
		return
	}
	b.enqueue(outbound{frame: msg})
}

// PublishResourceEvent publishes a canvas file change as canvas.<kind>.
// Unknown kinds are ignored. Changes to daily canvases (non-empty key) are
// followed by a throttled rotations.updated.
func (b *Broker) PublishResourceEvent(kind, path, key string) {
	switch kind {
	case "created", "updated", "deleted":
	default:
		return
	}
	msg, err := frame(Event{Type: "canvas." + kind, Data: map[string]string{"path": path}})
	if err != nil {
		return
	}
	b.enqueue(outbound{frame: msg, rotation: key})
}

func (b *Broker) enqueue(o outbound) {
	select {
	case <-b.stopped:
		return
	default:
	}
	select {
	case b.out <- o:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). The client is
// registered before the response headers go out, so once a caller sees
// the opening comment it receives every later event.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

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
