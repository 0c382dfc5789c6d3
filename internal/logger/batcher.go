package logger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tjfontaine/decision-client/internal/sender"
	"github.com/tjfontaine/decision-client/internal/trace"
	"github.com/tjfontaine/decision-client/status"
)

// QueueMode selects what happens when a log queue is full.
type QueueMode int

const (
	// DropEvent discards the new event and reports the overflow
	// through the error callback.
	DropEvent QueueMode = iota

	// BlockOnFull makes the producer wait for space. Only the
	// interaction path may block; observations never do.
	BlockOnFull
)

// BatcherConfig carries the per-channel batching triggers.
type BatcherConfig struct {
	Channel         uint8
	ChannelName     string
	ProtocolVersion int
	MaxQueueBytes   int
	MaxBatchBytes   int
	FlushInterval   time.Duration
	Mode            QueueMode
	UseDedup        bool
	UseCompression  bool
	ShutdownTimeout time.Duration
}

// Batcher owns one log channel's queue: foreground threads enqueue,
// a single background goroutine assembles batches on size and time
// triggers, applies dedup and compression, frames the result and hands
// it to the channel's sender.
type Batcher struct {
	cfg    BatcherConfig
	sender sender.Sender
	errFn  status.ErrorFn
	tr     trace.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*QueuedEvent
	bytes  int
	closed bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	// Owned solely by the flush goroutine.
	dict     *dedupDict
	flushSeq uint64
}

// NewBatcher starts the channel's flush loop.
func NewBatcher(cfg BatcherConfig, snd sender.Sender, errFn status.ErrorFn, tr trace.Logger) *Batcher {
	if tr == nil {
		tr = trace.Null{}
	}
	b := &Batcher{
		cfg:    cfg,
		sender: snd,
		errFn:  errFn,
		tr:     tr,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	b.cond = sync.NewCond(&b.mu)
	if cfg.UseDedup {
		b.dict = newDedupDict()
	}
	go b.loop()
	return b
}

// Enqueue hands an event to the batcher. Under DropEvent a full queue
// discards the event, counts it, and reports the overflow through the
// error callback; the foreground call itself still succeeds. Under
// BlockOnFull the producer waits for space.
func (b *Batcher) Enqueue(ev *QueuedEvent) error {
	ev.enqueued = time.Now()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return status.New(status.BackgroundQueueOverflow, "%s log queue is closed", b.cfg.ChannelName)
	}
	if b.bytes+ev.size > b.cfg.MaxQueueBytes {
		if b.cfg.Mode == DropEvent {
			b.mu.Unlock()
			eventsDropped.WithLabelValues(b.cfg.ChannelName).Inc()
			if b.errFn != nil {
				b.errFn(status.New(status.BackgroundQueueOverflow,
					"%s log queue full, event dropped", b.cfg.ChannelName))
			}
			return nil
		}
		for !b.closed && b.bytes+ev.size > b.cfg.MaxQueueBytes {
			b.cond.Wait()
		}
		if b.closed {
			b.mu.Unlock()
			return status.New(status.BackgroundQueueOverflow, "%s log queue is closed", b.cfg.ChannelName)
		}
	}
	b.queue = append(b.queue, ev)
	b.bytes += ev.size
	full := b.bytes >= b.cfg.MaxBatchBytes
	b.mu.Unlock()

	if full {
		select {
		case b.wake <- struct{}{}:
		default:
		}
	}
	return nil
}

func (b *Batcher) loop() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.flush()
		case <-b.wake:
			b.flush()
		}
	}
}

// takeBatch removes up to MaxBatchBytes worth of events, preserving
// enqueue order.
func (b *Batcher) takeBatch() []*QueuedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return nil
	}
	var size, n int
	for n < len(b.queue) {
		size += b.queue[n].size
		n++
		if size >= b.cfg.MaxBatchBytes {
			break
		}
	}
	batch := b.queue[:n]
	b.queue = append([]*QueuedEvent(nil), b.queue[n:]...)
	b.bytes -= size
	b.cond.Broadcast()
	if b.bytes >= b.cfg.MaxBatchBytes {
		// Another full batch is already waiting.
		select {
		case b.wake <- struct{}{}:
		default:
		}
	}
	return batch
}

// flush assembles and sends one batch, returning the number of events
// it carried.
func (b *Batcher) flush() int {
	batch := b.takeBatch()
	if len(batch) == 0 {
		return 0
	}

	refs := make(map[uint32]bool)
	events := make([]json.RawMessage, 0, len(batch))
	for _, ev := range batch {
		if b.dict != nil && ev.context != nil {
			if aware, ok := ev.body.(dedupAware); ok {
				ref := b.dict.assign(ev.hash, ev.context, b.flushSeq)
				refs[ref] = true
				aware.setContextRef(ref)
			}
		}
		payload, err := json.Marshal(ev.body)
		if err != nil {
			b.report(status.New(status.BackgroundQueueOverflow, "marshal %s event: %v", b.cfg.ChannelName, err))
			continue
		}
		events = append(events, payload)
	}

	env := batchEnvelope{
		Version: b.cfg.ProtocolVersion,
		Channel: b.cfg.ChannelName,
		Events:  events,
	}
	if b.dict != nil {
		env.Dictionary = b.dict.entriesFor(refs)
	}
	payload, err := json.Marshal(env)
	if err != nil {
		b.report(status.New(status.BackgroundQueueOverflow, "marshal %s batch: %v", b.cfg.ChannelName, err))
		return len(batch)
	}

	codec := CodecIdentity
	if b.cfg.UseCompression {
		payload = compressPayload(payload)
		codec = CodecZstd
	}
	framed := Frame(Preamble{
		Version: uint8(b.cfg.ProtocolVersion),
		Channel: b.cfg.Channel,
		Codec:   codec,
	}, payload)

	if err := b.sender.Send(framed); err != nil {
		sendFailures.WithLabelValues(b.cfg.ChannelName).Inc()
		b.report(status.From(err, status.HTTPResponseError))
	} else {
		batchesFlushed.WithLabelValues(b.cfg.ChannelName).Inc()
	}

	if b.dict != nil {
		b.dict.expire(b.flushSeq)
	}
	b.flushSeq++
	return len(batch)
}

func (b *Batcher) report(st *status.Status) {
	b.tr.Error("%s", st.Error())
	if b.errFn != nil {
		b.errFn(st)
	}
}

// Close stops the flush loop, drains what it can before the shutdown
// deadline, counts anything it had to abandon, and closes the sender.
func (b *Batcher) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.cond.Broadcast()
	b.mu.Unlock()

	close(b.stop)
	<-b.done

	dctx, cancel := context.WithTimeout(ctx, b.cfg.ShutdownTimeout)
	defer cancel()
	for dctx.Err() == nil {
		if b.flush() == 0 {
			break
		}
	}

	b.mu.Lock()
	abandoned := len(b.queue)
	b.queue = nil
	b.bytes = 0
	b.mu.Unlock()
	if abandoned > 0 {
		eventsDropped.WithLabelValues(b.cfg.ChannelName).Add(float64(abandoned))
		b.tr.Warn("%s shutdown abandoned %d queued events", b.cfg.ChannelName, abandoned)
	}

	return b.sender.Close(dctx)
}
