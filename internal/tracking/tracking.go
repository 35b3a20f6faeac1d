// Package tracking delivers product analytics events to an external
// ingestion endpoint. Delivery is strictly best-effort: calls never
// block the caller and failures are swallowed after a debug log.
package tracking

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Tracker is the event sink surface used by the services.
type Tracker interface {
	// Track records a named event with optional properties.
	Track(event string, properties map[string]any)
	// Identify associates subsequent events with a user.
	Identify(userID string)
	// SetUserProperties attaches profile properties to a user.
	SetUserProperties(userID string, properties map[string]any)
	// Reset signals that the current identity ended (sign-out).
	Reset(userID string)
}

// Noop discards all events. Used when tracking is disabled and in tests.
type Noop struct{}

// Track implements Tracker as a no-op.
func (Noop) Track(string, map[string]any) {}

// Identify implements Tracker as a no-op.
func (Noop) Identify(string) {}

// SetUserProperties implements Tracker as a no-op.
func (Noop) SetUserProperties(string, map[string]any) {}

// Reset implements Tracker as a no-op.
func (Noop) Reset(string) {}

// NewNoop creates a tracker that discards everything.
func NewNoop() Tracker {
	return Noop{}
}

// envelope is the wire shape sent to the ingestion endpoint.
type envelope struct {
	Type       string         `json:"type"` // track, identify, set, reset
	Event      string         `json:"event,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Token      string         `json:"token"`
	SentAt     time.Time      `json:"sent_at"`
}

const (
	queueSize      = 256
	requestTimeout = 5 * time.Second
	// Pace deliveries so a burst of dashboard activity can't hammer the
	// analytics provider.
	eventsPerSecond = 20
	eventBurst      = 40
)

// Client ships events to an HTTP ingestion endpoint from a single
// background worker. Enqueueing never blocks: when the queue is full the
// event is dropped.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	logger   *slog.Logger

	limiter *rate.Limiter
	queue   chan envelope
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewClient creates a tracking client and starts its delivery worker.
func NewClient(endpoint, token string, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		endpoint: endpoint,
		token:    token,
		http:     &http.Client{Timeout: requestTimeout},
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Limit(eventsPerSecond), eventBurst),
		queue:    make(chan envelope, queueSize),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go c.deliver(ctx)

	return c
}

// Track implements Tracker.
func (c *Client) Track(event string, properties map[string]any) {
	c.enqueue(envelope{Type: "track", Event: event, Properties: properties})
}

// Identify implements Tracker.
func (c *Client) Identify(userID string) {
	c.enqueue(envelope{Type: "identify", UserID: userID})
}

// SetUserProperties implements Tracker.
func (c *Client) SetUserProperties(userID string, properties map[string]any) {
	c.enqueue(envelope{Type: "set", UserID: userID, Properties: properties})
}

// Reset implements Tracker.
func (c *Client) Reset(userID string) {
	c.enqueue(envelope{Type: "reset", UserID: userID})
}

// Shutdown stops the delivery worker. Queued events that have not been
// sent yet are dropped; analytics loss on shutdown is acceptable.
func (c *Client) Shutdown() error {
	c.cancel()
	<-c.done
	return nil
}

func (c *Client) enqueue(e envelope) {
	e.Token = c.token
	e.SentAt = time.Now()

	select {
	case c.queue <- e:
	default:
		// Queue full - drop rather than block the request path.
		if c.logger != nil {
			c.logger.Debug("tracking queue full, dropping event", "type", e.Type, "event", e.Event)
		}
	}
}

func (c *Client) deliver(ctx context.Context) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-c.queue:
			if err := c.limiter.Wait(ctx); err != nil {
				return
			}
			if err := c.send(ctx, e); err != nil && c.logger != nil {
				c.logger.Debug("tracking delivery failed", "type", e.Type, "event", e.Event, "error", err)
			}
		}
	}
}

func (c *Client) send(ctx context.Context, e envelope) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("ingestion endpoint returned %d", resp.StatusCode)
	}

	return nil
}
