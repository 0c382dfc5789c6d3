package logger

import (
	"context"
	"time"

	"github.com/tjfontaine/decision-client/config"
	"github.com/tjfontaine/decision-client/internal/sender"
	"github.com/tjfontaine/decision-client/internal/timeprov"
	"github.com/tjfontaine/decision-client/internal/trace"
	"github.com/tjfontaine/decision-client/status"
)

func batcherConfigFor(cfg *config.Config, tag uint8, name string, mode QueueMode, dedup, compress bool) BatcherConfig {
	return BatcherConfig{
		Channel:         tag,
		ChannelName:     name,
		ProtocolVersion: cfg.GetInt(config.ProtocolVersion, config.DefaultProtocolVersion),
		MaxQueueBytes:   cfg.GetInt(config.QueueMaxBytes, config.DefaultQueueMaxBytes),
		MaxBatchBytes:   cfg.GetInt(config.BatchMaxBytes, config.DefaultBatchMaxBytes),
		FlushInterval:   time.Duration(cfg.GetInt(config.BatchFlushMs, config.DefaultBatchFlushMs)) * time.Millisecond,
		Mode:            mode,
		UseDedup:        dedup,
		UseCompression:  compress,
		ShutdownTimeout: time.Duration(cfg.GetInt(config.ShutdownTimeoutMs, config.DefaultShutdownTimeoutMs)) * time.Millisecond,
	}
}

// InteractionLogger builds and enqueues interaction events of every
// decision modality.
type InteractionLogger struct {
	b   *Batcher
	now timeprov.Provider
}

// NewInteractionLogger wires the interaction channel. The queue mode
// comes from interaction.queue.mode; this is the only channel allowed
// to block.
func NewInteractionLogger(cfg *config.Config, snd sender.Sender, errFn status.ErrorFn, tp timeprov.Provider, tr trace.Logger) *InteractionLogger {
	mode := DropEvent
	if cfg.Get(config.QueueMode, config.QueueModeDrop) == config.QueueModeBlock {
		mode = BlockOnFull
	}
	bc := batcherConfigFor(cfg, ChannelInteraction, "interaction", mode,
		cfg.GetBool(config.InteractionUseDedup, false),
		cfg.GetBool(config.InteractionUseCompression, false))
	return &InteractionLogger{
		b:   NewBatcher(bc, snd, errFn, tr),
		now: tp,
	}
}

// LogRank enqueues a CB interaction.
func (l *InteractionLogger) LogRank(eventID string, ctxDoc []byte, actionIDs []uint32, probs []float32, modelVersion, learningMode string, deferred bool) error {
	ev := &rankEvent{
		EventID:        eventID,
		Context:        ctxDoc,
		ActionIDs:      actionIDs,
		Probabilities:  probs,
		ModelID:        modelVersion,
		LearningMode:   learningMode,
		DeferredAction: deferred,
		ClientTimeUTC:  l.now.Now(),
	}
	return l.b.Enqueue(newQueuedEvent(ev, ctxDoc))
}

// LogDecisions enqueues a CCB interaction whose slots carry their own
// event ids.
func (l *InteractionLogger) LogDecisions(eventIDs []string, ctxDoc []byte, actionIDs [][]uint32, probs [][]float32, modelVersion string, deferred bool) error {
	slots := make([]slotRecord, len(eventIDs))
	for i := range eventIDs {
		slots[i] = slotRecord{ID: eventIDs[i], ActionIDs: actionIDs[i], Probabilities: probs[i]}
	}
	ev := &multiSlotEvent{
		EventID:        eventIDs[0],
		Context:        ctxDoc,
		Slots:          slots,
		ModelID:        modelVersion,
		DeferredAction: deferred,
		ClientTimeUTC:  l.now.Now(),
	}
	return l.b.Enqueue(newQueuedEvent(ev, ctxDoc))
}

// LogMultiSlot enqueues a multi-slot interaction under one event id.
func (l *InteractionLogger) LogMultiSlot(eventID string, ctxDoc []byte, slotIDs []string, actionIDs [][]uint32, probs [][]float32, modelVersion, learningMode string, baseline []int, deferred bool) error {
	slots := make([]slotRecord, len(slotIDs))
	for i := range slotIDs {
		slots[i] = slotRecord{ID: slotIDs[i], ActionIDs: actionIDs[i], Probabilities: probs[i]}
	}
	ev := &multiSlotEvent{
		EventID:         eventID,
		Context:         ctxDoc,
		Slots:           slots,
		ModelID:         modelVersion,
		LearningMode:    learningMode,
		BaselineActions: baseline,
		DeferredAction:  deferred,
		ClientTimeUTC:   l.now.Now(),
	}
	return l.b.Enqueue(newQueuedEvent(ev, ctxDoc))
}

// LogContinuous enqueues a continuous-action interaction.
func (l *InteractionLogger) LogContinuous(eventID string, ctxDoc []byte, action, pdfValue float32, modelVersion string, deferred bool) error {
	ev := &continuousEvent{
		EventID:        eventID,
		Context:        ctxDoc,
		Action:         action,
		PdfValue:       pdfValue,
		ModelID:        modelVersion,
		DeferredAction: deferred,
		ClientTimeUTC:  l.now.Now(),
	}
	return l.b.Enqueue(newQueuedEvent(ev, ctxDoc))
}

// LogMultistep enqueues an episodic interaction against the patched
// context.
func (l *InteractionLogger) LogMultistep(episodeID, previousID, eventID string, patchedCtx []byte, actionIDs []uint32, probs []float32, modelVersion string, deferred bool) error {
	ev := &multistepEvent{
		EpisodeID:      episodeID,
		EventID:        eventID,
		PreviousID:     previousID,
		Context:        patchedCtx,
		ActionIDs:      actionIDs,
		Probabilities:  probs,
		ModelID:        modelVersion,
		DeferredAction: deferred,
		ClientTimeUTC:  l.now.Now(),
	}
	return l.b.Enqueue(newQueuedEvent(ev, patchedCtx))
}

// Close drains the interaction channel.
func (l *InteractionLogger) Close(ctx context.Context) error {
	return l.b.Close(ctx)
}

// ObservationLogger builds and enqueues outcome events. Its queue never
// blocks the caller.
type ObservationLogger struct {
	b   *Batcher
	now timeprov.Provider
}

// NewObservationLogger wires the observation channel.
func NewObservationLogger(cfg *config.Config, snd sender.Sender, errFn status.ErrorFn, tp timeprov.Provider, tr trace.Logger) *ObservationLogger {
	bc := batcherConfigFor(cfg, ChannelObservation, "observation", DropEvent,
		false,
		cfg.GetBool(config.ObservationUseCompression, false))
	return &ObservationLogger{
		b:   NewBatcher(bc, snd, errFn, tr),
		now: tp,
	}
}

// LogOutcome enqueues a float or string outcome against an event id,
// optionally scoped by a secondary id or index.
func (l *ObservationLogger) LogOutcome(eventID, secondaryID string, secondaryIndex *int, value any) error {
	ev := &observationEvent{
		EventID:        eventID,
		SecondaryID:    secondaryID,
		SecondaryIndex: secondaryIndex,
		Value:          value,
		ClientTimeUTC:  l.now.Now(),
	}
	return l.b.Enqueue(newQueuedEvent(ev, nil))
}

// LogActionTaken enqueues the value-less activation marker.
func (l *ObservationLogger) LogActionTaken(eventID, secondaryID string) error {
	ev := &observationEvent{
		EventID:       eventID,
		SecondaryID:   secondaryID,
		ActionTaken:   true,
		ClientTimeUTC: l.now.Now(),
	}
	return l.b.Enqueue(newQueuedEvent(ev, nil))
}

// Close drains the observation channel.
func (l *ObservationLogger) Close(ctx context.Context) error {
	return l.b.Close(ctx)
}

// EpisodeLogger emits the once-per-episode record.
type EpisodeLogger struct {
	b   *Batcher
	now timeprov.Provider
}

// NewEpisodeLogger wires the episode channel.
func NewEpisodeLogger(cfg *config.Config, snd sender.Sender, errFn status.ErrorFn, tp timeprov.Provider, tr trace.Logger) *EpisodeLogger {
	bc := batcherConfigFor(cfg, ChannelEpisode, "episode", DropEvent, false, false)
	return &EpisodeLogger{
		b:   NewBatcher(bc, snd, errFn, tr),
		now: tp,
	}
}

// LogEpisode enqueues the episode record.
func (l *EpisodeLogger) LogEpisode(episodeID string) error {
	ev := &episodeEvent{EpisodeID: episodeID, ClientTimeUTC: l.now.Now()}
	return l.b.Enqueue(newQueuedEvent(ev, nil))
}

// Close drains the episode channel.
func (l *EpisodeLogger) Close(ctx context.Context) error {
	return l.b.Close(ctx)
}
