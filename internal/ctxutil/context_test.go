package ctxutil

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tjfontaine/decision-client/status"
)

func TestParseMultiAndSlots(t *testing.T) {
	doc := []byte(`{
		"shared": {"user": "u1"},
		"_multi": [{"a": 1}, {"a": 2}, {"a": 3}],
		"_slots": [{"_id": "slot-a"}, {"size": "small"}, {"_id": "slot-c"}]
	}`)

	info, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if info.ActionCount != 3 {
		t.Errorf("ActionCount = %d, want 3", info.ActionCount)
	}
	if !info.HasMulti() || !info.HasSlots() {
		t.Fatal("markers not found")
	}
	if info.MultiOffset >= info.SlotsOffset {
		t.Error("_multi should precede _slots")
	}
	want := []string{"slot-a", "", "slot-c"}
	if len(info.SlotIDs) != len(want) {
		t.Fatalf("SlotIDs = %v", info.SlotIDs)
	}
	for i := range want {
		if info.SlotIDs[i] != want[i] {
			t.Errorf("SlotIDs[%d] = %q, want %q", i, info.SlotIDs[i], want[i])
		}
	}
}

func TestParseSlotsBeforeMulti(t *testing.T) {
	doc := []byte(`{"_slots": [{}], "_multi": [{"a": 1}]}`)
	info, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if info.SlotsOffset >= info.MultiOffset {
		t.Error("offsets should reflect document order")
	}
}

func TestParseWithoutMarkers(t *testing.T) {
	info, err := Parse([]byte(`{"shared": {"x": 1}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if info.HasMulti() || info.HasSlots() || info.ActionCount != 0 {
		t.Errorf("unexpected markers in %+v", info)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"_multi": [`},
		{"topLevelArray", `[1, 2]`},
		{"multiNotArray", `{"_multi": {"a": 1}}`},
		{"slotsNotArray", `{"_multi": [{}], "_slots": 3}`},
		{"trailingGarbage", `{"a": 1} []`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, status.New(status.JSONParseError, "")) {
				t.Fatalf("err = %v, want JSONParseError", err)
			}
		})
	}
}

func TestInjectHistory(t *testing.T) {
	doc := []byte(`{"shared": {"u": 1}, "_multi": [{"a": 1}]}`)
	history := []byte(`[{"eventId":"e1","chosenAction":2}]`)

	patched, err := InjectHistory(doc, history)
	if err != nil {
		t.Fatalf("InjectHistory failed: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(patched, &decoded); err != nil {
		t.Fatalf("patched context is not valid JSON: %v", err)
	}
	if _, ok := decoded["_history"]; !ok {
		t.Fatal("_history missing from patched context")
	}
	if _, ok := decoded["shared"]; !ok {
		t.Fatal("original content lost")
	}
	if !strings.Contains(string(patched), `"chosenAction":2`) {
		t.Error("history content missing")
	}
}

func TestInjectHistoryIntoEmptyObject(t *testing.T) {
	patched, err := InjectHistory([]byte(`{}`), []byte(`[]`))
	if err != nil {
		t.Fatalf("InjectHistory failed: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(patched, &decoded); err != nil {
		t.Fatalf("patched context is not valid JSON: %v", err)
	}
}

func TestEventIDs(t *testing.T) {
	info, err := Parse([]byte(`{"_multi": [{}], "_slots": [{"_id": "a"}, {}]}`))
	if err != nil {
		t.Fatal(err)
	}
	ids, err := EventIDs(info)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "" {
		t.Errorf("EventIDs = %v", ids)
	}
}
