package decision

import "testing"

func TestResetActionOrderIdempotent(t *testing.T) {
	resp := &RankingResponse{
		EventID: "e",
		Ranking: []ActionProb{
			{ActionID: 2, Probability: 0.5},
			{ActionID: 0, Probability: 0.3},
			{ActionID: 1, Probability: 0.2},
		},
	}

	resetActionOrder(resp)
	once := append([]ActionProb(nil), resp.Ranking...)
	resetActionOrder(resp)

	for i := range once {
		if resp.Ranking[i] != once[i] {
			t.Fatalf("reset is not idempotent: %v vs %v", resp.Ranking, once)
		}
	}

	for i := 1; i < len(resp.Ranking); i++ {
		if resp.Ranking[i].ActionID < resp.Ranking[i-1].ActionID {
			t.Fatalf("ranking not ascending: %v", resp.Ranking)
		}
	}

	// Probabilities ride along with their actions.
	if resp.Ranking[0].ActionID != 0 || resp.Ranking[0].Probability != 0.3 {
		t.Errorf("action 0 lost its probability: %v", resp.Ranking[0])
	}

	chosen, err := resp.ChosenActionID()
	if err != nil {
		t.Fatal(err)
	}
	if chosen != 0 {
		t.Errorf("chosen after reset = %d, want lowest id 0", chosen)
	}
}

func TestChosenOnEmptyResponse(t *testing.T) {
	resp := &RankingResponse{}
	if _, err := resp.ChosenActionID(); err == nil {
		t.Error("expected error on empty ranking")
	}
	if _, err := resp.ChosenProbability(); err == nil {
		t.Error("expected error on empty ranking")
	}
}

func TestResetChosenActionMultiSlotBounds(t *testing.T) {
	resp := &MultiSlotResponse{
		Slots: []SlotResponse{
			{SlotID: "a", ActionID: 9, Probability: 0.4},
			{SlotID: "b", ActionID: 9, Probability: 0.4},
			{SlotID: "c", ActionID: 9, Probability: 0.4},
		},
	}
	resetChosenActionMultiSlot(resp, []int{5, 7})

	want := []uint32{5, 7, 2}
	for i := range want {
		if resp.Slots[i].ActionID != want[i] {
			t.Errorf("slot %d = %d, want %d", i, resp.Slots[i].ActionID, want[i])
		}
		if resp.Slots[i].Probability != 1 {
			t.Errorf("slot %d probability = %v, want 1", i, resp.Slots[i].Probability)
		}
	}
}

func TestResetChosenActionMultiSlotDetailed(t *testing.T) {
	resp := &MultiSlotResponseDetailed{
		Slots: []SlotRanking{
			{SlotID: "a", ChosenAction: 9},
			{SlotID: "b", ChosenAction: 9},
		},
	}
	resetChosenActionMultiSlotDetailed(resp, nil)
	if resp.Slots[0].ChosenAction != 0 || resp.Slots[1].ChosenAction != 1 {
		t.Errorf("implicit baseline not applied: %+v", resp.Slots)
	}
}
