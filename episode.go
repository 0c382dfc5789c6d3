package decision

import (
	"encoding/json"
	"sync"

	"github.com/tjfontaine/decision-client/internal/ctxutil"
)

// episodeStep records one decision in an episode's chain.
type episodeStep struct {
	previousID   string
	chosenAction uint32
}

// EpisodeState is the ordered chain of multistep decisions sharing an
// episode id. The hosting application owns one per episode and passes
// it to every RequestEpisodicDecision in that episode. Safe for
// concurrent use.
type EpisodeState struct {
	id string

	mu    sync.Mutex
	steps map[string]episodeStep
}

// NewEpisodeState starts an empty episode.
func NewEpisodeState(episodeID string) *EpisodeState {
	return &EpisodeState{id: episodeID, steps: make(map[string]episodeStep)}
}

// EpisodeID returns the episode's identifier.
func (e *EpisodeState) EpisodeID() string { return e.id }

// Len returns the number of decisions recorded so far. It also
// satisfies the policy adapter's history contract.
func (e *EpisodeState) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.steps)
}

// historyEntry is the wire shape of one chain link in a patched
// context.
type historyEntry struct {
	EventID      string `json:"eventId"`
	ChosenAction uint32 `json:"chosenAction"`
}

// GetContext patches a raw context with the chosen history prefix
// ending at previousID. With no previous decision the raw context is
// returned untouched.
func (e *EpisodeState) GetContext(previousID string, ctxDoc []byte) ([]byte, error) {
	if previousID == "" {
		return ctxDoc, nil
	}
	e.mu.Lock()
	var chain []historyEntry
	for id := previousID; id != ""; {
		step, ok := e.steps[id]
		if !ok {
			break
		}
		chain = append(chain, historyEntry{EventID: id, ChosenAction: step.chosenAction})
		id = step.previousID
	}
	e.mu.Unlock()
	if len(chain) == 0 {
		return ctxDoc, nil
	}
	// Oldest decision first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	history, err := json.Marshal(chain)
	if err != nil {
		return nil, err
	}
	return ctxutil.InjectHistory(ctxDoc, history)
}

// update records a decision against the chain.
func (e *EpisodeState) update(eventID, previousID string, chosenAction uint32) {
	e.mu.Lock()
	e.steps[eventID] = episodeStep{previousID: previousID, chosenAction: chosenAction}
	e.mu.Unlock()
}
