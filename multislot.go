package decision

// SlotResponse is one slot of a multi-slot decision.
type SlotResponse struct {
	SlotID      string
	ActionID    uint32
	Probability float32
}

// MultiSlotResponse is the compact multi-slot result: one chosen action
// per slot.
type MultiSlotResponse struct {
	EventID      string
	ModelVersion string
	Slots        []SlotResponse
}

// SlotRanking is one slot of a detailed multi-slot decision, keeping
// the slot's full reordered pdf alongside the chosen action.
type SlotRanking struct {
	SlotID       string
	ChosenAction uint32
	Ranking      []ActionProb
}

// MultiSlotResponseDetailed is the detailed multi-slot result.
type MultiSlotResponseDetailed struct {
	EventID      string
	ModelVersion string
	Slots        []SlotRanking
}

// resetChosenActionMultiSlot rewrites each slot's chosen action to the
// baseline, or to the slot index when the baseline does not cover it,
// with probability 1. The per-slot action lists are left alone: the
// actions available to a slot depend on earlier slots, so reordering
// them is not meaningful.
func resetChosenActionMultiSlot(resp *MultiSlotResponse, baseline []int) {
	for i := range resp.Slots {
		if len(baseline) > i {
			resp.Slots[i].ActionID = uint32(baseline[i])
		} else {
			resp.Slots[i].ActionID = uint32(i)
		}
		resp.Slots[i].Probability = 1
	}
}

func resetChosenActionMultiSlotDetailed(resp *MultiSlotResponseDetailed, baseline []int) {
	for i := range resp.Slots {
		if len(baseline) > i {
			resp.Slots[i].ChosenAction = uint32(baseline[i])
		} else {
			resp.Slots[i].ChosenAction = uint32(i)
		}
	}
}
