package decision

import (
	"sort"

	"github.com/tjfontaine/decision-client/status"
)

// ActionProb pairs an action id with its sampling probability.
type ActionProb struct {
	ActionID    uint32
	Probability float32
}

// RankingResponse is the result of a single-slot decision. The chosen
// action is always the first element of Ranking.
type RankingResponse struct {
	EventID      string
	ModelVersion string
	Ranking      []ActionProb
}

// ChosenActionID returns the sampled action.
func (r *RankingResponse) ChosenActionID() (uint32, error) {
	if len(r.Ranking) == 0 {
		return 0, status.New(status.InvalidArgument, "response has no actions")
	}
	return r.Ranking[0].ActionID, nil
}

// ChosenProbability returns the sampled action's probability.
func (r *RankingResponse) ChosenProbability() (float32, error) {
	if len(r.Ranking) == 0 {
		return 0, status.New(status.InvalidArgument, "response has no actions")
	}
	return r.Ranking[0].Probability, nil
}

func (r *RankingResponse) actionIDs() []uint32 {
	ids := make([]uint32, len(r.Ranking))
	for i, ap := range r.Ranking {
		ids[i] = ap.ActionID
	}
	return ids
}

func (r *RankingResponse) probabilities() []float32 {
	probs := make([]float32, len(r.Ranking))
	for i, ap := range r.Ranking {
		probs[i] = ap.Probability
	}
	return probs
}

// resetActionOrder sorts the ranking ascending by action id, making
// the lowest-id action the chosen one. Each action keeps its own
// probability. Idempotent; used by the Apprentice and LoggingOnly
// learning modes.
func resetActionOrder(r *RankingResponse) {
	sort.SliceStable(r.Ranking, func(i, j int) bool {
		return r.Ranking[i].ActionID < r.Ranking[j].ActionID
	})
}

// ContinuousActionResponse is the result of a continuous-action
// decision.
type ContinuousActionResponse struct {
	EventID      string
	ModelVersion string
	Action       float32
	PdfValue     float32
}

// DecisionSlot is one slot of a CCB decision, carrying its own event
// id. The chosen action is the first element of Ranking.
type DecisionSlot struct {
	EventID string
	Ranking []ActionProb
}

// DecisionResponse is the result of a CCB-style RequestDecision.
type DecisionResponse struct {
	ModelVersion string
	Slots        []DecisionSlot
}
