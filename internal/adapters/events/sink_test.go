package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/plantline/plantline/internal/core/ports"
	"github.com/plantline/plantline/internal/core/services"
)

func TestWebhookSinkDeliversEnvelope(t *testing.T) {
	var gotAuth string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, "secret-token")
	err := sink.Publish(context.Background(), ports.TopicTaskCompleted, map[string]string{"task": "t-1"})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}

	var env envelope
	if err := json.Unmarshal(gotBody, &env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if env.Topic != ports.TopicTaskCompleted {
		t.Errorf("expected topic %s, got %s", ports.TopicTaskCompleted, env.Topic)
	}
	if env.Timestamp.IsZero() {
		t.Error("envelope must carry a timestamp")
	}
}

func TestWebhookSinkReportsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, "")
	if err := sink.Publish(context.Background(), "x", nil); err == nil {
		t.Fatal("expected error for 5xx response")
	}
}

type countingSink struct {
	n   int
	err error
}

func (s *countingSink) Publish(context.Context, string, interface{}) error {
	s.n++
	return s.err
}

func TestMultiSinkFansOutPastFailures(t *testing.T) {
	failing := &countingSink{err: errors.New("down")}
	healthy := &countingSink{}

	sink := NewMultiSink(failing, healthy)
	err := sink.Publish(context.Background(), "topic", nil)
	if err == nil {
		t.Fatal("expected the first error to surface")
	}
	if failing.n != 1 || healthy.n != 1 {
		t.Errorf("every sink must see the event, got %d/%d", failing.n, healthy.n)
	}
}

func TestLogSinkNeverFails(t *testing.T) {
	sink := NewLogSink(&services.NopLogger{})
	if err := sink.Publish(context.Background(), "topic", struct{}{}); err != nil {
		t.Fatalf("log sink must not fail: %v", err)
	}
}
