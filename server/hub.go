package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Event is one Server-Sent Event. Data is sent verbatim.
type Event struct {
	Type string
	Data json.RawMessage
}

// NavigateEvent asks the browser to open a url
type NavigateEvent struct {
	URL string `json:"url"`
}

// DefaultNavigateTimeout bounds how long Navigate waits for a client to
// write the event
const DefaultNavigateTimeout = 2 * time.Second

var (
	errNoClients  = errors.New("no connected clients")
	errClientGone = errors.New("client disconnected")
	errTimeout    = errors.New("client did not accept the event in time")
)

var (
	// SSEClients reports the number of connected event stream clients
	SSEClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "forcegraph_sse_clients",
			Help: "Number of connected event stream clients",
		},
	)

	// SSEDropped counts events dropped for clients that fell behind
	SSEDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forcegraph_sse_dropped_events_total",
			Help: "Events dropped because a client buffer was full",
		},
	)
)

func init() {
	prometheus.MustRegister(SSEClients)
	prometheus.MustRegister(SSEDropped)
}

// Hub manages Server-Sent Events (SSE) connections
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]uint64
	seq     uint64

	navTimeout time.Duration
}

// Client represents a single SSE connection. Events are queued on send and
// written only by the goroutine serving the request. Navigation requests
// bypass the lossy send queue and are acknowledged once written.
type Client struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	send    chan Event
	nav     chan navRequest
	done    chan struct{}
}

type navRequest struct {
	event  Event
	result chan error
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]uint64),
		navTimeout: DefaultNavigateTimeout,
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	h.clients[client] = h.seq
	SSEClients.Inc()
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.done)
		SSEClients.Dec()
	}
}

// Clients returns the number of registered clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues an event for every client. A client whose buffer is
// full misses the event; frames are superseded by the next tick anyway.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- event:
		default:
			SSEDropped.Inc()
		}
	}
}

// BroadcastJSON marshals v and broadcasts it as an event of type typ
func (h *Hub) BroadcastJSON(typ string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", typ, err)
	}
	h.Broadcast(Event{Type: typ, Data: data})
	return nil
}

// Navigate implements interact.Navigator. It asks exactly one browser, the
// most recently connected one that accepts the event, to open url, and
// returns nil only once the event has been written to that stream.
func (h *Hub) Navigate(url string) error {
	data, err := json.Marshal(NavigateEvent{URL: url})
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	event := Event{Type: "navigate", Data: data}

	clients := h.newestFirst()
	if len(clients) == 0 {
		return fmt.Errorf("navigate %s: %w", url, errNoClients)
	}
	var last error
	for _, client := range clients {
		if last = client.deliver(event, h.navTimeout); last == nil {
			return nil
		}
	}
	return fmt.Errorf("navigate %s: %w", url, last)
}

func (h *Hub) newestFirst() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return h.clients[clients[i]] > h.clients[clients[j]]
	})
	return clients
}

// NewClient creates a new SSE client from an HTTP response writer
func NewClient(w http.ResponseWriter, buffer int) (*Client, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &Client{
		writer:  w,
		flusher: flusher,
		send:    make(chan Event, buffer),
		nav:     make(chan navRequest),
		done:    make(chan struct{}),
	}, nil
}

func (c *Client) write(event Event) error {
	if _, err := fmt.Fprintf(c.writer, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

// deliver hands event to the goroutine serving c and waits for the write
func (c *Client) deliver(event Event, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	req := navRequest{event: event, result: make(chan error, 1)}
	select {
	case c.nav <- req:
	case <-c.done:
		return errClientGone
	case <-timer.C:
		return errTimeout
	}

	select {
	case err := <-req.result:
		return err
	case <-timer.C:
		return errTimeout
	}
}

func (c *Client) ping() error {
	if _, err := fmt.Fprint(c.writer, ": ping\n\n"); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

// Serve writes queued events until stop is closed or the client is
// unregistered, pinging every keepAlive.
func (c *Client) Serve(stop <-chan struct{}, keepAlive time.Duration) error {
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return nil
		case <-c.done:
			return nil
		case req := <-c.nav:
			err := c.write(req.event)
			req.result <- err
			if err != nil {
				return err
			}
		case event := <-c.send:
			if err := c.write(event); err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return err
			}
		}
	}
}
