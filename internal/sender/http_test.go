package sender

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tjfontaine/decision-client/config"
	"github.com/tjfontaine/decision-client/status"
)

func TestAPISenderDelivers(t *testing.T) {
	var mu sync.Mutex
	var bodies [][]byte
	r := chi.NewRouter()
	r.Post("/", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	cfg := config.New()
	cfg.SetSection("interaction")
	cfg.Set("interaction."+config.APIMHost, srv.URL)

	snd, err := Create(config.SenderAPIM, cfg, nil, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := snd.Init(cfg); err != nil {
		t.Fatal(err)
	}

	if err := snd.Send([]byte("framed-batch")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := snd.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 1 || string(bodies[0]) != "framed-batch" {
		t.Errorf("server received %q", bodies)
	}
}

func TestAPISenderReportsTerminalFailure(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	var mu sync.Mutex
	var reported []*status.Status
	errFn := func(st *status.Status) {
		mu.Lock()
		reported = append(reported, st)
		mu.Unlock()
	}

	cfg := config.New()
	cfg.SetSection("observation")
	cfg.Set("observation."+config.APIMHost, srv.URL)
	cfg.Set("observation."+config.APIMMaxRetries, "1")

	snd, err := Create(config.SenderAPIM, cfg, errFn, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := snd.Init(cfg); err != nil {
		t.Fatal(err)
	}

	// Send itself succeeds; the failure is a background concern.
	if err := snd.Send([]byte("batch")); err != nil {
		t.Fatalf("Send returned a delivery error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snd.Close(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(reported) != 1 {
		t.Fatalf("reported %d failures, want 1", len(reported))
	}
	if reported[0].Code != status.HTTPResponseError {
		t.Errorf("code = %s, want HTTPResponseError", reported[0].Code)
	}
}

func TestEventHubSenderBuildsURL(t *testing.T) {
	cfg := config.New()
	cfg.SetSection("interaction")
	cfg.Set("interaction."+config.EHHost, "hub.example.com")
	cfg.Set("interaction."+config.EHName, "interactions")

	snd, err := Create(config.SenderHTTP, cfg, nil, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	hs, ok := snd.(*httpSender)
	if !ok {
		t.Fatalf("sender type %T", snd)
	}
	want := "https://hub.example.com/interactions/messages?timeout=60&api-version=2014-01"
	if hs.url != want {
		t.Errorf("url = %q, want %q", hs.url, want)
	}
}

func TestEventHubSenderRequiresHost(t *testing.T) {
	cfg := config.New()
	cfg.SetSection("interaction")
	_, err := Create(config.SenderHTTP, cfg, nil, nil)
	if err == nil {
		t.Fatal("expected error without eh.host")
	}
	if status.CodeOf(err) != status.HTTPURINotProvided {
		t.Errorf("code = %s, want HTTPURINotProvided", status.CodeOf(err))
	}
	if !strings.Contains(err.Error(), "eh.host") {
		t.Errorf("error does not name the missing key: %v", err)
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	snd := newHTTPSender("http://127.0.0.1:0", 2, 0, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := snd.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := snd.Send([]byte("late")); err == nil {
		t.Error("Send after Close should fail")
	}
}
