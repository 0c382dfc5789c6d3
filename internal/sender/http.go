package sender

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/semaphore"

	"github.com/tjfontaine/decision-client/config"
	"github.com/tjfontaine/decision-client/internal/trace"
	"github.com/tjfontaine/decision-client/status"
)

// httpSender posts framed batches to an HTTP endpoint. Each Send
// acquires one of a bounded number of in-flight slots and delivers on
// its own goroutine; the HTTP client retries up to the configured
// count before the failure is reported through the error callback.
type httpSender struct {
	client *resty.Client
	url    string
	sem    *semaphore.Weighted
	tasks  int64
	errFn  status.ErrorFn
	tr     trace.Logger

	mu     sync.Mutex
	closed bool
}

// newEventHubSender builds the sender for an event-hub-style endpoint
// resolved from the current config section's eh.* options.
func newEventHubSender(cfg *config.Config, errFn status.ErrorFn, tr trace.Logger) (Sender, error) {
	host := cfg.Get(config.EHHost, "")
	if host == "" {
		return nil, status.New(status.HTTPURINotProvided, "%s.%s is required", cfg.Section(), config.EHHost)
	}
	name := cfg.Get(config.EHName, cfg.Section())
	url := fmt.Sprintf("https://%s/%s/messages?timeout=60&api-version=2014-01", host, name)
	return newHTTPSender(url,
		cfg.GetInt(config.EHTasksLimit, config.DefaultTasksLimit),
		cfg.GetInt(config.EHMaxRetries, config.DefaultMaxHTTPRetries),
		errFn, tr), nil
}

// newAPISender builds the sender for an APIM-style endpoint resolved
// from the current config section's apim.* options.
func newAPISender(cfg *config.Config, errFn status.ErrorFn, tr trace.Logger) (Sender, error) {
	host := cfg.Get(config.APIMHost, "")
	if host == "" {
		return nil, status.New(status.HTTPURINotProvided, "%s.%s is required", cfg.Section(), config.APIMHost)
	}
	return newHTTPSender(host,
		cfg.GetInt(config.APIMTasksLimit, config.DefaultTasksLimit),
		cfg.GetInt(config.APIMMaxRetries, config.DefaultMaxHTTPRetries),
		errFn, tr), nil
}

func newHTTPSender(url string, tasksLimit, maxRetries int, errFn status.ErrorFn, tr trace.Logger) *httpSender {
	if tr == nil {
		tr = trace.Null{}
	}
	client := resty.New().
		SetRetryCount(maxRetries).
		SetHeader("Content-Type", "application/octet-stream")
	return &httpSender{
		client: client,
		url:    url,
		sem:    semaphore.NewWeighted(int64(tasksLimit)),
		tasks:  int64(tasksLimit),
		errFn:  errFn,
		tr:     tr,
	}
}

func (s *httpSender) Init(cfg *config.Config) error { return nil }

// Send blocks only while all in-flight slots are busy, then delivers
// asynchronously.
func (s *httpSender) Send(payload []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("sender is closed")
	}
	s.mu.Unlock()

	if err := s.sem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	go func() {
		defer s.sem.Release(1)
		resp, err := s.client.R().SetBody(payload).Post(s.url)
		if err != nil {
			s.report(status.New(status.HTTPResponseError, "post %s: %v", s.url, err))
			return
		}
		if resp.IsError() {
			s.report(status.New(status.HTTPResponseError, "post %s: %s", s.url, resp.Status()))
			return
		}
		s.tr.Debug("batch of %d bytes delivered to %s", len(payload), s.url)
	}()
	return nil
}

func (s *httpSender) report(st *status.Status) {
	s.tr.Error("%s", st.Error())
	if s.errFn != nil {
		s.errFn(st)
	}
}

// Close waits for in-flight deliveries up to the context deadline.
func (s *httpSender) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	if err := s.sem.Acquire(ctx, s.tasks); err != nil {
		return fmt.Errorf("wait for in-flight sends: %w", err)
	}
	s.sem.Release(s.tasks)
	return nil
}
