package model

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/tjfontaine/decision-client/config"
	"github.com/tjfontaine/decision-client/internal/ctxutil"
	"github.com/tjfontaine/decision-client/internal/explore"
	"github.com/tjfontaine/decision-client/internal/trace"
	"github.com/tjfontaine/decision-client/status"
)

// unloadedVersion is reported while no model blob has been applied.
const unloadedVersion = "N/A"

// Passthrough is the default explore-only policy. Before the first
// successful Update it synthesises a uniform pdf over the actions found
// in the context's _multi array, which keeps decisions flowing during
// cold start. After an Update it degrades to epsilon-greedy over the
// declared action order; real scoring lives in out-of-process learners
// behind the same interface.
type Passthrough struct {
	epsilon float32
	mtype   Type
	tr      trace.Logger

	loaded  bool
	version string
}

// NewPassthrough builds the explore-only policy from configuration.
func NewPassthrough(cfg *config.Config, tr trace.Logger) (Interface, error) {
	if tr == nil {
		tr = trace.Null{}
	}
	return &Passthrough{
		epsilon: float32(cfg.GetFloat64(config.InitialEpsilon, config.DefaultInitialEpsilon)),
		mtype:   typeFromCommandLine(cfg.Get(config.ModelInitialCmdLine, "")),
		tr:      tr,
		version: unloadedVersion,
	}, nil
}

// pdfOver builds the distribution over k candidates: uniform while the
// model is unloaded, epsilon-greedy on the first candidate afterwards.
func (p *Passthrough) pdfOver(k int) []float32 {
	pdf := make([]float32, k)
	if !p.loaded || p.epsilon >= 1 {
		for i := range pdf {
			pdf[i] = 1 / float32(k)
		}
		return pdf
	}
	base := p.epsilon / float32(k)
	for i := range pdf {
		pdf[i] = base
	}
	pdf[0] += 1 - p.epsilon
	return pdf
}

func (p *Passthrough) rank(context []byte) (*Rank, error) {
	info, err := ctxutil.Parse(context)
	if err != nil {
		return nil, err
	}
	if info.ActionCount == 0 {
		return nil, status.New(status.InvalidArgument, "context has no _multi actions")
	}
	ids := make([]uint32, info.ActionCount)
	for i := range ids {
		ids[i] = uint32(i)
	}
	return &Rank{ActionIDs: ids, PDF: p.pdfOver(info.ActionCount), ModelVersion: p.version}, nil
}

// ChooseRank implements Interface.
func (p *Passthrough) ChooseRank(eventID string, seed uint64, context []byte) (*Rank, error) {
	return p.rank(context)
}

// ChooseRankMultistep implements Interface.
func (p *Passthrough) ChooseRankMultistep(eventID string, seed uint64, context []byte, history History) (*Rank, error) {
	return p.rank(context)
}

// ChooseContinuous implements Interface. The action is drawn uniformly
// from the unit interval, keyed on the context so reruns reproduce.
func (p *Passthrough) ChooseContinuous(context []byte) (*Continuous, error) {
	if len(context) == 0 {
		return nil, status.New(status.InvalidArgument, "context is empty")
	}
	u := explore.UniformDraw(xxhash.Sum64(context))
	return &Continuous{Action: float32(u), PdfValue: 1, ModelVersion: p.version}, nil
}

// slotDecisions samples one action per slot without replacement,
// seeding each slot from its own id so the result is deterministic.
func (p *Passthrough) slotDecisions(slotSeeds []string, context []byte) (*Slots, error) {
	info, err := ctxutil.Parse(context)
	if err != nil {
		return nil, err
	}
	if info.ActionCount == 0 || info.SlotCount() == 0 {
		return nil, status.New(status.InvalidArgument, "context must carry both _multi actions and _slots")
	}
	if info.SlotCount() > info.ActionCount {
		return nil, status.New(status.InvalidArgument,
			"%d slots cannot be filled from %d actions", info.SlotCount(), info.ActionCount)
	}

	available := make([]uint32, info.ActionCount)
	for i := range available {
		available[i] = uint32(i)
	}

	out := &Slots{
		ActionIDs:    make([][]uint32, info.SlotCount()),
		PDFs:         make([][]float32, info.SlotCount()),
		ModelVersion: p.version,
	}
	for slot := 0; slot < info.SlotCount(); slot++ {
		ids := make([]uint32, len(available))
		copy(ids, available)
		pdf := p.pdfOver(len(ids))
		chosen, err := explore.SampleAndReorder(explore.HashSeed(slotSeeds[slot])+uint64(slot), ids, pdf)
		if err != nil {
			return nil, err
		}
		out.ActionIDs[slot] = ids
		out.PDFs[slot] = pdf
		// Later slots choose from the remaining actions.
		available = append(available[:chosen], available[chosen+1:]...)
	}
	return out, nil
}

// RequestDecision implements Interface.
func (p *Passthrough) RequestDecision(eventIDs []string, context []byte) (*Slots, error) {
	return p.slotDecisions(eventIDs, context)
}

// RequestMultiSlotDecision implements Interface.
func (p *Passthrough) RequestMultiSlotDecision(eventID string, slotIDs []string, context []byte) (*Slots, error) {
	seeds := make([]string, len(slotIDs))
	for i, id := range slotIDs {
		seeds[i] = eventID + "/" + id
	}
	return p.slotDecisions(seeds, context)
}

// Update implements Interface. The passthrough policy keeps no weights;
// it records the blob's content hash as the model version.
func (p *Passthrough) Update(data []byte) (bool, error) {
	if len(data) == 0 {
		return false, status.New(status.ModelUpdateError, "model data is empty")
	}
	p.version = fmt.Sprintf("%016x", xxhash.Sum64(data))
	p.loaded = true
	p.tr.Info("passthrough model updated, version %s", p.version)
	return true, nil
}

// ModelType implements Interface.
func (p *Passthrough) ModelType() Type { return p.mtype }

// IsLoaded implements Interface.
func (p *Passthrough) IsLoaded() bool { return p.loaded }
