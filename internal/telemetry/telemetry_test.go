package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/bgricker/getset/internal/identity"
)

type received struct {
	auth    string
	payload payload
}

func newRecordingServer(t *testing.T, status int) (*httptest.Server, <-chan received) {
	t.Helper()
	ch := make(chan received, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		ch <- received{auth: r.Header.Get("Authorization"), payload: p}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func closeWithin(t *testing.T, r Reporter, d time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return r.Close(ctx)
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig("secret", "")
	if cfg.Namespace() != DefaultNamespace {
		t.Errorf("Namespace() = %q, want %q", cfg.Namespace(), DefaultNamespace)
	}
	if cfg.Endpoint() != DefaultEndpoint {
		t.Errorf("Endpoint() = %q, want %q", cfg.Endpoint(), DefaultEndpoint)
	}
	if got := cfg.EventName(EventStart); got != "getset.start" {
		t.Errorf("EventName(start) = %q, want getset.start", got)
	}

	custom := NewConfig("secret", "my_namespace")
	if got := custom.EventName(EventError); got != "my_namespace.error" {
		t.Errorf("EventName(error) = %q, want my_namespace.error", got)
	}

	moved := custom.WithEndpoint("http://localhost")
	if custom.Endpoint() != DefaultEndpoint || moved.Endpoint() != "http://localhost" {
		t.Errorf("WithEndpoint mutated original or failed: %q / %q", custom.Endpoint(), moved.Endpoint())
	}
}

func TestClientSendsEventsInOrder(t *testing.T) {
	srv, ch := newRecordingServer(t, http.StatusOK)
	logger, _ := logtest.NewNullLogger()

	cfg := NewConfig("test_secret", "").WithEndpoint(srv.URL)
	client := New(cfg, Options{
		Globals: identity.Globals{UserShell: "/bin/zsh", GitEmail: "dev@example.com", GitHubUsername: "octocat"},
		Logger:  logger,
		Now:     func() time.Time { return time.Unix(1700000000, 0) },
		RunID:   "run-1",
	})

	client.Notify(EventStart, nil)
	client.Notify(EventComplete, map[string]string{KeyDuration: "3"})

	if err := closeWithin(t, client, 5*time.Second); err != nil {
		t.Fatalf("Close: %v", err)
	}

	first := <-ch
	second := <-ch
	if first.payload.Name != "getset.start" || second.payload.Name != "getset.complete" {
		t.Fatalf("unexpected order: %q then %q", first.payload.Name, second.payload.Name)
	}
	if first.auth != "Bearer test_secret" {
		t.Errorf("Authorization = %q, want Bearer test_secret", first.auth)
	}
	if first.payload.Metadata[KeyUserShell] != "/bin/zsh" {
		t.Errorf("user_shell = %q, want /bin/zsh", first.payload.Metadata[KeyUserShell])
	}
	if first.payload.Metadata[KeyRunID] != "run-1" || second.payload.Metadata[KeyRunID] != "run-1" {
		t.Errorf("expected run id on every event, got %v / %v", first.payload.Metadata, second.payload.Metadata)
	}
	if second.payload.Metadata[KeyDuration] != "3" {
		t.Errorf("duration = %q, want 3", second.payload.Metadata[KeyDuration])
	}
	if first.payload.Timestamp != "1700000000" {
		t.Errorf("timestamp = %q, want 1700000000", first.payload.Timestamp)
	}
	if first.payload.Email != "dev@example.com" || first.payload.GitHubUsername != "octocat" {
		t.Errorf("unexpected identity fields: %+v", first.payload)
	}
}

func TestClientDoesNotMutateCallerMetadata(t *testing.T) {
	srv, ch := newRecordingServer(t, http.StatusOK)
	logger, _ := logtest.NewNullLogger()
	client := New(NewConfig("k", "").WithEndpoint(srv.URL), Options{Logger: logger})

	meta := map[string]string{KeyErrorMessage: "boom"}
	client.Notify(EventError, meta)
	if err := closeWithin(t, client, 5*time.Second); err != nil {
		t.Fatalf("Close: %v", err)
	}
	<-ch

	if len(meta) != 1 {
		t.Fatalf("caller metadata was modified: %v", meta)
	}
}

func TestClientSwallowsHTTPErrors(t *testing.T) {
	srv, ch := newRecordingServer(t, http.StatusUnauthorized)
	logger, hook := logtest.NewNullLogger()

	client := New(NewConfig("bad", "").WithEndpoint(srv.URL), Options{Logger: logger})
	client.Notify(EventStart, nil)
	if err := closeWithin(t, client, 5*time.Second); err != nil {
		t.Fatalf("Close: %v", err)
	}
	<-ch

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "failed to send") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected a warning log for the rejected event")
	}
}

func TestClientSwallowsNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	logger, _ := logtest.NewNullLogger()
	client := New(NewConfig("k", "").WithEndpoint(url), Options{Logger: logger, Timeout: time.Second})
	client.Notify(EventStart, nil)
	client.Notify(EventError, map[string]string{KeyErrorMessage: "x"})
	if err := closeWithin(t, client, 5*time.Second); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNotifyDoesNotBlockOnSlowEndpoint(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	logger, _ := logtest.NewNullLogger()
	client := New(NewConfig("k", "").WithEndpoint(srv.URL), Options{Logger: logger, Timeout: 10 * time.Second})

	start := time.Now()
	client.Notify(EventStart, nil)
	client.Notify(EventComplete, nil)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("Notify blocked for %v", elapsed)
	}

	if err := closeWithin(t, client, 50*time.Millisecond); err == nil {
		t.Fatalf("expected Close to give up while the send is in flight")
	}
}

func TestNotifyAfterCloseIsDropped(t *testing.T) {
	srv, ch := newRecordingServer(t, http.StatusOK)
	logger, _ := logtest.NewNullLogger()
	client := New(NewConfig("k", "").WithEndpoint(srv.URL), Options{Logger: logger})

	if err := closeWithin(t, client, time.Second); err != nil {
		t.Fatalf("Close: %v", err)
	}
	client.Notify(EventStart, nil)

	select {
	case got := <-ch:
		t.Fatalf("unexpected event after close: %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNoop(t *testing.T) {
	var r Reporter = Noop{}
	r.Notify(EventStart, map[string]string{"a": "b"})
	if err := closeWithin(t, r, time.Second); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestDurationValue(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "0",
		999 * time.Millisecond:  "0",
		2500 * time.Millisecond: "2",
		90 * time.Second:        "90",
	}
	for in, want := range cases {
		if got := DurationValue(in); got != want {
			t.Errorf("DurationValue(%v) = %q, want %q", in, got, want)
		}
	}
}
