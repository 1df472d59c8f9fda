// Package telemetry forwards run lifecycle events to PlatformX. Sending is
// fire-and-forget: no error or delay from the remote endpoint reaches the caller.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bgricker/getset/internal/identity"
)

const (
	// DefaultNamespace prefixes event names when the task file sets none.
	DefaultNamespace = "getset"
	// DefaultEndpoint is the PlatformX event tracking API.
	DefaultEndpoint = "https://api.getdx.com/events.track"
	// DefaultTimeout caps a single send.
	DefaultTimeout = 5 * time.Second
	// DefaultQueueSize bounds events waiting for the worker.
	DefaultQueueSize = 16
)

// Event names emitted over a run.
const (
	EventStart    = "start"
	EventComplete = "complete"
	EventError    = "error"
)

// Metadata keys.
const (
	KeyUserShell    = "user_shell"
	KeyDuration     = "duration"
	KeyErrorMessage = "error_message"
	KeyRunID        = "run_id"
)

// Config is the resolved telemetry configuration. The zero value is not usable; build it with NewConfig.
type Config struct {
	secretKey string
	namespace string
	endpoint  string
}

// NewConfig resolves defaults for an optional namespace.
func NewConfig(secretKey, namespace string) Config {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return Config{secretKey: secretKey, namespace: namespace, endpoint: DefaultEndpoint}
}

// WithEndpoint returns a copy of c that posts to url.
func (c Config) WithEndpoint(url string) Config {
	c.endpoint = url
	return c
}

// Namespace returns the event name prefix.
func (c Config) Namespace() string { return c.namespace }

// Endpoint returns the URL events are posted to.
func (c Config) Endpoint() string { return c.endpoint }

// EventName qualifies name with the namespace.
func (c Config) EventName(name string) string {
	return c.namespace + "." + name
}

// Event is a single lifecycle notification.
type Event struct {
	Name     string
	Metadata map[string]string
}

// Reporter receives lifecycle events. Notify must return promptly and never fail.
type Reporter interface {
	Notify(event string, metadata map[string]string)
	// Close stops accepting events and waits for queued sends until ctx is done.
	Close(ctx context.Context) error
}

// Noop is the Reporter used when no telemetry is configured.
type Noop struct{}

// Notify does nothing.
func (Noop) Notify(string, map[string]string) {}

// Close does nothing.
func (Noop) Close(context.Context) error { return nil }

// Options configure a Client.
type Options struct {
	Globals    identity.Globals
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
	Now        func() time.Time
	Timeout    time.Duration
	QueueSize  int
	RunID      string
}

// Client posts events over HTTP from a single background worker, preserving
// the order in which Notify was called.
type Client struct {
	cfg  Config
	opts Options

	mu     sync.Mutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// New starts a Client. Callers should Close it before exiting to give queued events a chance to go out.
func New(cfg Config, opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}
	opts.Logger = opts.Logger.WithField("component", "telemetry")

	c := &Client{
		cfg:   cfg,
		opts:  opts,
		queue: make(chan Event, opts.QueueSize),
		done:  make(chan struct{}),
	}
	go c.loop()
	return c
}

// Notify queues an event. A full queue or closed client drops the event.
func (c *Client) Notify(event string, metadata map[string]string) {
	ev := Event{Name: c.cfg.EventName(event), Metadata: make(map[string]string, len(metadata)+2)}
	for k, v := range metadata {
		ev.Metadata[k] = v
	}
	ev.Metadata[KeyUserShell] = c.opts.Globals.UserShell
	ev.Metadata[KeyRunID] = c.opts.RunID

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.opts.Logger.WithField("event", ev.Name).Debug("telemetry closed; dropping event")
		return
	}
	select {
	case c.queue <- ev:
	default:
		c.opts.Logger.WithField("event", ev.Name).Warn("telemetry queue full; dropping event")
	}
}

// Close stops the worker once queued events are sent or ctx ends, whichever comes first.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) loop() {
	defer close(c.done)
	for ev := range c.queue {
		if err := c.send(ev); err != nil {
			c.opts.Logger.WithError(err).WithField("event", ev.Name).Warn("failed to send telemetry event")
		}
	}
}

type payload struct {
	Name           string            `json:"name"`
	Metadata       map[string]string `json:"metadata"`
	Timestamp      string            `json:"timestamp"`
	Email          string            `json:"email"`
	GitHubUsername string            `json:"github_username"`
}

func (c *Client) send(ev Event) error {
	body, err := json.Marshal(payload{
		Name:           ev.Name,
		Metadata:       ev.Metadata,
		Timestamp:      strconv.FormatInt(c.opts.Now().Unix(), 10),
		Email:          c.opts.Globals.GitEmail,
		GitHubUsername: c.opts.Globals.GitHubUsername,
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.secretKey)
	req.Header.Set("Content-Type", "application/json")

	c.opts.Logger.WithField("event", ev.Name).Info("sending telemetry event")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.opts.Logger.WithFields(logrus.Fields{"event": ev.Name, "status": resp.StatusCode}).Debug("telemetry response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("platformx responded with status %d", resp.StatusCode)
	}
	return nil
}

// DurationValue formats a duration for event metadata as whole seconds.
func DurationValue(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Second), 10)
}
