package decision

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/tjfontaine/decision-client/config"
	"github.com/tjfontaine/decision-client/status"
)

func TestEpisodeStateGetContext(t *testing.T) {
	ep := NewEpisodeState("ep-1")

	raw := []byte(`{"shared":{"u":1},"_multi":[{},{}]}`)

	// No previous decision: the context passes through untouched.
	patched, err := ep.GetContext("", raw)
	if err != nil {
		t.Fatal(err)
	}
	if string(patched) != string(raw) {
		t.Errorf("first context patched: %s", patched)
	}

	ep.update("ep-1-1", "", 1)
	patched, err = ep.GetContext("ep-1-1", raw)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(patched), `"_history"`) {
		t.Fatalf("history missing: %s", patched)
	}
	if !strings.Contains(string(patched), `"chosenAction":1`) {
		t.Errorf("chosen action missing from history: %s", patched)
	}

	// The chain walks multiple steps, oldest first.
	ep.update("ep-1-2", "ep-1-1", 0)
	patched, err = ep.GetContext("ep-1-2", raw)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		History []struct {
			EventID      string `json:"eventId"`
			ChosenAction uint32 `json:"chosenAction"`
		} `json:"_history"`
	}
	if err := json.Unmarshal(patched, &decoded); err != nil {
		t.Fatalf("patched context invalid: %v", err)
	}
	if len(decoded.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(decoded.History))
	}
	if decoded.History[0].EventID != "ep-1-1" || decoded.History[1].EventID != "ep-1-2" {
		t.Errorf("history out of order: %+v", decoded.History)
	}

	if ep.Len() != 2 {
		t.Errorf("Len = %d, want 2", ep.Len())
	}
}

func TestEpisodeStateUnknownPrevious(t *testing.T) {
	ep := NewEpisodeState("ep-1")
	raw := []byte(`{"a":1}`)
	patched, err := ep.GetContext("never-seen", raw)
	if err != nil {
		t.Fatal(err)
	}
	if string(patched) != string(raw) {
		t.Error("unknown previous id should leave the context untouched")
	}
}

func TestEpisodicDecisions(t *testing.T) {
	cfg, paths := newTestConfig(t, t.TempDir())
	cfg.Set(config.EpisodeSenderImplementation, config.SenderFile)
	cfg.Set("episode."+config.FileName, paths.episodes)
	lm, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	raw := []byte(`{"shared":{"u":1},"_multi":[{"a":1},{"a":2}]}`)
	episode := NewEpisodeState("ep1")

	first, err := lm.RequestEpisodicDecision("ep1-1", "", raw, DefaultFlags, episode)
	if err != nil {
		t.Fatalf("first episodic decision failed: %v", err)
	}
	firstChosen, _ := first.ChosenActionID()

	second, err := lm.RequestEpisodicDecision("ep1-2", "ep1-1", raw, DefaultFlags, episode)
	if err != nil {
		t.Fatalf("second episodic decision failed: %v", err)
	}
	if second.EventID != "ep1-2" {
		t.Errorf("second event id = %q", second.EventID)
	}
	if episode.Len() != 2 {
		t.Errorf("episode length = %d, want 2", episode.Len())
	}
	closeModel(t, lm)

	// The episode record is emitted exactly once.
	episodeEvents := readEvents(t, paths.episodes)
	if len(episodeEvents) != 1 {
		t.Fatalf("logged %d episode records, want 1", len(episodeEvents))
	}
	var epRecord struct {
		EpisodeID string `json:"episodeId"`
	}
	if err := json.Unmarshal(episodeEvents[0], &epRecord); err != nil {
		t.Fatal(err)
	}
	if epRecord.EpisodeID != "ep1" {
		t.Errorf("episode record id = %q", epRecord.EpisodeID)
	}

	interactions := readEvents(t, paths.interactions)
	if len(interactions) != 2 {
		t.Fatalf("logged %d interactions, want 2", len(interactions))
	}

	var loggedFirst, loggedSecond struct {
		EpisodeID  string          `json:"episodeId"`
		PreviousID string          `json:"previousId"`
		Context    json.RawMessage `json:"context"`
	}
	if err := json.Unmarshal(interactions[0], &loggedFirst); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(interactions[1], &loggedSecond); err != nil {
		t.Fatal(err)
	}

	// The first interaction's patched context equals the raw document.
	if string(loggedFirst.Context) != string(raw) {
		t.Errorf("first patched context = %s", loggedFirst.Context)
	}
	if loggedFirst.EpisodeID != "ep1" || loggedFirst.PreviousID != "" {
		t.Errorf("first interaction chain fields = %+v", loggedFirst)
	}

	// The second carries the first decision in its history.
	var patched struct {
		History []struct {
			EventID      string `json:"eventId"`
			ChosenAction uint32 `json:"chosenAction"`
		} `json:"_history"`
	}
	if err := json.Unmarshal(loggedSecond.Context, &patched); err != nil {
		t.Fatal(err)
	}
	if len(patched.History) != 1 || patched.History[0].EventID != "ep1-1" {
		t.Fatalf("second patched context history = %+v", patched.History)
	}
	if patched.History[0].ChosenAction != firstChosen {
		t.Errorf("history chosen action = %d, want %d", patched.History[0].ChosenAction, firstChosen)
	}
	if loggedSecond.PreviousID != "ep1-1" {
		t.Errorf("second previous id = %q", loggedSecond.PreviousID)
	}
}

func TestEpisodicRequiresEpisodeChannel(t *testing.T) {
	lm, _ := newTestModel(t, nil)
	defer closeModel(t, lm)

	episode := NewEpisodeState("ep1")
	_, err := lm.RequestEpisodicDecision("e1", "", []byte(`{"_multi":[{}]}`), DefaultFlags, episode)
	if status.CodeOf(err) != status.NotSupported {
		t.Fatalf("err = %v, want NotSupported without an episode channel", err)
	}
}

func TestEpisodicValidation(t *testing.T) {
	cfg, paths := newTestConfig(t, t.TempDir())
	cfg.Set(config.EpisodeSenderImplementation, config.SenderFile)
	cfg.Set("episode."+config.FileName, paths.episodes)
	lm, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer closeModel(t, lm)

	episode := NewEpisodeState("ep1")
	if _, err := lm.RequestEpisodicDecision("", "", []byte(`{}`), DefaultFlags, episode); status.CodeOf(err) != status.InvalidArgument {
		t.Errorf("empty event id: err = %v, want InvalidArgument", err)
	}
	if _, err := lm.RequestEpisodicDecision("e1", "", []byte(`{"_multi":[{}]}`), DefaultFlags, nil); status.CodeOf(err) != status.InvalidArgument {
		t.Errorf("nil episode: err = %v, want InvalidArgument", err)
	}
}
