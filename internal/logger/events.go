package logger

import (
	"encoding/json"
	"time"

	"github.com/cespare/xxhash/v2"
)

// eventOverhead pads the size accounting of a queued event beyond its
// context payload for ids, pdfs and field names.
const eventOverhead = 256

// QueuedEvent is a built event awaiting its batch. Once enqueued it is
// owned by the batcher and released after the terminal send attempt.
type QueuedEvent struct {
	body     any
	context  []byte
	hash     uint64
	size     int
	enqueued time.Time
}

// newQueuedEvent wires the dedup key (content hash of the context) for
// interaction events; observation and episode events pass nil context.
func newQueuedEvent(body any, context []byte) *QueuedEvent {
	ev := &QueuedEvent{body: body, context: context, size: eventOverhead + len(context)}
	if context != nil {
		ev.hash = xxhash.Sum64(context)
	}
	return ev
}

// dedupAware is implemented by interaction payloads that can reference
// their context through the batch dictionary instead of inlining it.
type dedupAware interface {
	setContextRef(ref uint32)
}

// slotRecord is the per-slot portion of a multi-slot interaction.
type slotRecord struct {
	ID            string    `json:"id"`
	ActionIDs     []uint32  `json:"actionIds"`
	Probabilities []float32 `json:"probabilities"`
}

// rankEvent is the CB interaction record.
type rankEvent struct {
	EventID        string          `json:"eventId"`
	Context        json.RawMessage `json:"context,omitempty"`
	ContextRef     uint32          `json:"contextRef,omitempty"`
	ActionIDs      []uint32        `json:"actionIds"`
	Probabilities  []float32       `json:"probabilities"`
	ModelID        string          `json:"modelId"`
	LearningMode   string          `json:"learningMode"`
	DeferredAction bool            `json:"deferredAction,omitempty"`
	ClientTimeUTC  time.Time       `json:"clientTimeUtc"`
}

func (e *rankEvent) setContextRef(ref uint32) {
	e.Context = nil
	e.ContextRef = ref
}

// multiSlotEvent covers CCB, slates and multi-slot interactions.
type multiSlotEvent struct {
	EventID         string          `json:"eventId"`
	Context         json.RawMessage `json:"context,omitempty"`
	ContextRef      uint32          `json:"contextRef,omitempty"`
	Slots           []slotRecord    `json:"slots"`
	ModelID         string          `json:"modelId"`
	LearningMode    string          `json:"learningMode,omitempty"`
	BaselineActions []int           `json:"baselineActions,omitempty"`
	DeferredAction  bool            `json:"deferredAction,omitempty"`
	ClientTimeUTC   time.Time       `json:"clientTimeUtc"`
}

func (e *multiSlotEvent) setContextRef(ref uint32) {
	e.Context = nil
	e.ContextRef = ref
}

// continuousEvent is the continuous-action interaction record.
type continuousEvent struct {
	EventID        string          `json:"eventId"`
	Context        json.RawMessage `json:"context,omitempty"`
	ContextRef     uint32          `json:"contextRef,omitempty"`
	Action         float32         `json:"action"`
	PdfValue       float32         `json:"pdfValue"`
	ModelID        string          `json:"modelId"`
	DeferredAction bool            `json:"deferredAction,omitempty"`
	ClientTimeUTC  time.Time       `json:"clientTimeUtc"`
}

func (e *continuousEvent) setContextRef(ref uint32) {
	e.Context = nil
	e.ContextRef = ref
}

// multistepEvent is the episodic interaction record; its context is the
// history-patched document.
type multistepEvent struct {
	EpisodeID      string          `json:"episodeId"`
	EventID        string          `json:"eventId"`
	PreviousID     string          `json:"previousId,omitempty"`
	Context        json.RawMessage `json:"context,omitempty"`
	ContextRef     uint32          `json:"contextRef,omitempty"`
	ActionIDs      []uint32        `json:"actionIds"`
	Probabilities  []float32       `json:"probabilities"`
	ModelID        string          `json:"modelId"`
	DeferredAction bool            `json:"deferredAction,omitempty"`
	ClientTimeUTC  time.Time       `json:"clientTimeUtc"`
}

func (e *multistepEvent) setContextRef(ref uint32) {
	e.Context = nil
	e.ContextRef = ref
}

// observationEvent is the outcome record. Value holds a float or a
// UTF-8 payload; ActionTaken marks the value-less activation signal.
type observationEvent struct {
	EventID        string    `json:"eventId"`
	SecondaryID    string    `json:"secondaryId,omitempty"`
	SecondaryIndex *int      `json:"secondaryIndex,omitempty"`
	Value          any       `json:"value,omitempty"`
	ActionTaken    bool      `json:"actionTaken,omitempty"`
	ClientTimeUTC  time.Time `json:"clientTimeUtc"`
}

// episodeEvent is emitted once per episode, on its first decision.
type episodeEvent struct {
	EpisodeID     string    `json:"episodeId"`
	ClientTimeUTC time.Time `json:"clientTimeUtc"`
}

// batchEnvelope is the serialized body of one framed batch. The
// dictionary, when present, precedes the events it is referenced from.
type batchEnvelope struct {
	Version    int               `json:"version"`
	Channel    string            `json:"channel"`
	Dictionary []dictEntry       `json:"dictionary,omitempty"`
	Events     []json.RawMessage `json:"events"`
}
