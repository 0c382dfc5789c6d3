// Package model defines the narrow interface to the underlying
// learning policy, a registry of policy implementations, and the
// concurrency wrapper that makes model swaps atomic with respect to
// in-flight decisions.
package model

import (
	"fmt"
	"strings"

	"github.com/tjfontaine/decision-client/config"
	"github.com/tjfontaine/decision-client/internal/trace"
)

// Type identifies the decision modality a policy was trained for.
type Type int

const (
	TypeCB Type = iota
	TypeCCB
	TypeCA
	TypeSlates
	TypeMultistep
)

func (t Type) String() string {
	switch t {
	case TypeCB:
		return "cb"
	case TypeCCB:
		return "ccb"
	case TypeCA:
		return "ca"
	case TypeSlates:
		return "slates"
	case TypeMultistep:
		return "multistep"
	}
	return "unknown"
}

// Rank is the result of scoring a single-slot context: action ids with
// their probability density, in the policy's ranked order.
type Rank struct {
	ActionIDs    []uint32
	PDF          []float32
	ModelVersion string
}

// Continuous is the result of a continuous-action decision.
type Continuous struct {
	Action       float32
	PdfValue     float32
	ModelVersion string
}

// Slots is the result of a multi-slot decision: one ranked action list
// per slot, chosen action first.
type Slots struct {
	ActionIDs    [][]uint32
	PDFs         [][]float32
	ModelVersion string
}

// History is the episode prefix handed to the multistep path. The
// policy only needs its length; richer policies may type-assert.
type History interface {
	Len() int
}

// Interface is the narrow contract between the client and the
// underlying learner. The Safe wrapper serialises Update against
// decisions but lets decision calls run concurrently with each other,
// so implementations must tolerate concurrent decision calls.
type Interface interface {
	// ChooseRank scores the context and returns action ids with pdf.
	ChooseRank(eventID string, seed uint64, context []byte) (*Rank, error)

	// ChooseContinuous picks a scalar action and its density value.
	ChooseContinuous(context []byte) (*Continuous, error)

	// RequestDecision ranks actions for each slot of a CCB context,
	// one event id per slot.
	RequestDecision(eventIDs []string, context []byte) (*Slots, error)

	// RequestMultiSlotDecision ranks actions for each named slot under
	// a single event id.
	RequestMultiSlotDecision(eventID string, slotIDs []string, context []byte) (*Slots, error)

	// ChooseRankMultistep scores a history-patched context.
	ChooseRankMultistep(eventID string, seed uint64, context []byte, history History) (*Rank, error)

	// Update replaces the policy weights from a binary blob. It
	// reports whether the model is ready to score.
	Update(data []byte) (bool, error)

	// ModelType reports the decision modality.
	ModelType() Type

	// IsLoaded reports whether a successful Update has occurred.
	IsLoaded() bool
}

// Factory creates a policy implementation from configuration.
type Factory func(cfg *config.Config, tr trace.Logger) (Interface, error)

var registry = map[string]Factory{
	config.ModelPassthrough: NewPassthrough,
}

// Register adds a named policy factory. Panics on duplicates;
// registration happens before Init.
func Register(name string, f Factory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("model %q already registered", name))
	}
	registry[name] = f
}

// Create instantiates the policy named by model.implementation,
// defaulting to the passthrough explore-only policy.
func Create(cfg *config.Config, tr trace.Logger) (Interface, error) {
	name := cfg.Get(config.ModelImplementation, config.ModelPassthrough)
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown model implementation %q", name)
	}
	return f(cfg, tr)
}

// typeFromCommandLine infers the decision modality from the learner's
// initial command line.
func typeFromCommandLine(args string) Type {
	switch {
	case strings.Contains(args, "--multistep"):
		return TypeMultistep
	case strings.Contains(args, "--ccb_explore_adf"):
		return TypeCCB
	case strings.Contains(args, "--slates"):
		return TypeSlates
	case strings.Contains(args, "--cats"):
		return TypeCA
	default:
		return TypeCB
	}
}
