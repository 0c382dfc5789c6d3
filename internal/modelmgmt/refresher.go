package modelmgmt

import (
	"context"
	"time"

	"github.com/tjfontaine/decision-client/internal/trace"
	"github.com/tjfontaine/decision-client/status"
)

// DataFn receives each successfully pulled ModelData, including
// unchanged pulls (RefreshCount 0) so the consumer can trace them.
type DataFn func(*ModelData)

// Refresher owns the background model-refresh loop: a monotonic ticker
// that pulls from the transport each period and hands the result to the
// consumer. Transport errors go to the error callback and the loop
// continues. The loop is cooperative; Stop returns after the current
// iteration finishes.
type Refresher struct {
	transport Transport
	onData    DataFn
	interval  time.Duration
	errFn     status.ErrorFn
	tr        trace.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRefresher builds a refresher; Start begins polling.
func NewRefresher(t Transport, onData DataFn, interval time.Duration, errFn status.ErrorFn, tr trace.Logger) *Refresher {
	if tr == nil {
		tr = trace.Null{}
	}
	return &Refresher{
		transport: t,
		onData:    onData,
		interval:  interval,
		errFn:     errFn,
		tr:        tr,
	}
}

// Start runs one immediate pull, then polls on the configured period
// until Stop is called.
func (r *Refresher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		r.pull(ctx)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.pull(ctx)
			}
		}
	}()
}

func (r *Refresher) pull(ctx context.Context) {
	md, err := r.transport.GetData(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.tr.Error("model refresh failed: %v", err)
		if r.errFn != nil {
			r.errFn(status.From(err, status.ModelUpdateError))
		}
		return
	}
	r.onData(md)
}

// Stop cancels the loop and waits for it to exit.
func (r *Refresher) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
}
