package decision

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tjfontaine/decision-client/internal/ctxutil"
	"github.com/tjfontaine/decision-client/internal/explore"
	"github.com/tjfontaine/decision-client/internal/telemetry"
	"github.com/tjfontaine/decision-client/status"
)

// autoEventID generates a v4 identifier suffixed with the decimal seed
// shift so duplicate identifiers across hosts stay collision-resistant
// and reproducible under the reference seed scheme.
func (lm *LiveModel) autoEventID() string {
	return uuid.NewString() + strconv.FormatUint(lm.seedShift, 10)
}

func (lm *LiveModel) span(op, eventID string) func() {
	_, span := telemetry.Tracer().Start(context.Background(), op)
	if eventID != "" {
		span.SetAttributes(attribute.String("decision.event_id", eventID))
	}
	return func() { span.End() }
}

// ChooseRank ranks the context's actions and returns an explored
// choice. An empty eventID is replaced by an auto-generated one.
func (lm *LiveModel) ChooseRank(eventID string, contextJSON []byte, flags Flags) (*RankingResponse, error) {
	if eventID == "" {
		eventID = lm.autoEventID()
	}
	end := lm.span("ChooseRank", eventID)
	defer end()

	if len(contextJSON) == 0 {
		return nil, status.New(status.InvalidArgument, "context is empty")
	}

	seed := explore.EventSeed(eventID, lm.seedShift)
	rank, err := lm.policy.ChooseRank(eventID, seed, contextJSON)
	if err != nil {
		return nil, status.From(err, status.InvalidArgument)
	}

	ids := append([]uint32(nil), rank.ActionIDs...)
	pdf := append([]float32(nil), rank.PDF...)
	if _, err := explore.SampleAndReorder(seed, ids, pdf); err != nil {
		return nil, err
	}

	resp := &RankingResponse{EventID: eventID, ModelVersion: rank.ModelVersion}
	resp.Ranking = make([]ActionProb, len(ids))
	for i := range ids {
		resp.Ranking[i] = ActionProb{ActionID: ids[i], Probability: pdf[i]}
	}

	if lm.learningMode == ModeLoggingOnly {
		// The log reflects the uniform baseline.
		resetActionOrder(resp)
	}

	if err := lm.interactions.LogRank(eventID, contextJSON, resp.actionIDs(), resp.probabilities(),
		resp.ModelVersion, lm.learningMode.String(), flags.deferred()); err != nil {
		return nil, status.From(err, status.BackgroundQueueOverflow)
	}

	if lm.learningMode == ModeApprentice {
		// The caller follows the baseline while the sampled order was
		// logged above.
		resetActionOrder(resp)
	}

	// Checked last so the decision work is still done and logged.
	if err := lm.checkBackground(); err != nil {
		return resp, err
	}
	return resp, nil
}

// RequestContinuousAction chooses a scalar action for the context. An
// empty eventID is replaced by an auto-generated one.
func (lm *LiveModel) RequestContinuousAction(eventID string, contextJSON []byte, flags Flags) (*ContinuousActionResponse, error) {
	if eventID == "" {
		eventID = lm.autoEventID()
	}
	end := lm.span("RequestContinuousAction", eventID)
	defer end()

	if len(contextJSON) == 0 {
		return nil, status.New(status.InvalidArgument, "context is empty")
	}

	ca, err := lm.policy.ChooseContinuous(contextJSON)
	if err != nil {
		return nil, status.From(err, status.InvalidArgument)
	}
	resp := &ContinuousActionResponse{
		EventID:      eventID,
		ModelVersion: ca.ModelVersion,
		Action:       ca.Action,
		PdfValue:     ca.PdfValue,
	}

	if err := lm.interactions.LogContinuous(eventID, contextJSON, resp.Action, resp.PdfValue,
		resp.ModelVersion, flags.deferred()); err != nil {
		return nil, status.From(err, status.BackgroundQueueOverflow)
	}

	if err := lm.checkBackground(); err != nil {
		return resp, err
	}
	return resp, nil
}

// validateSlotContext parses the context and enforces that it carries
// both a _multi array and a _slots array, with _multi first.
func validateSlotContext(contextJSON []byte) (*ctxutil.Info, error) {
	info, err := ctxutil.Parse(contextJSON)
	if err != nil {
		return nil, err
	}
	if !info.HasMulti() || !info.HasSlots() || info.SlotsOffset < info.MultiOffset {
		return nil, status.New(status.JSONParseError,
			"there must be both a _multi field and _slots, and _multi must come first")
	}
	return info, nil
}

// fillMissingIDs replaces empty slot identifiers with auto-generated
// ones.
func (lm *LiveModel) fillMissingIDs(ids []string) {
	for i, id := range ids {
		if id == "" {
			ids[i] = lm.autoEventID()
		}
	}
}

// RequestDecision fills each slot of a CCB context, drawing per-slot
// event ids from the slots' _id fields where present. Only supported in
// the Online learning mode.
func (lm *LiveModel) RequestDecision(contextJSON []byte, flags Flags) (*DecisionResponse, error) {
	end := lm.span("RequestDecision", "")
	defer end()

	if lm.learningMode == ModeApprentice || lm.learningMode == ModeLoggingOnly {
		return nil, status.New(status.NotSupported,
			"RequestDecision is not supported in %s mode", lm.learningMode)
	}
	if len(contextJSON) == 0 {
		return nil, status.New(status.InvalidArgument, "context is empty")
	}

	info, err := validateSlotContext(contextJSON)
	if err != nil {
		return nil, err
	}
	eventIDs, err := ctxutil.EventIDs(info)
	if err != nil {
		return nil, status.From(err, status.JSONParseError)
	}
	lm.fillMissingIDs(eventIDs)

	slots, err := lm.policy.RequestDecision(eventIDs, contextJSON)
	if err != nil {
		return nil, status.From(err, status.InvalidArgument)
	}
	if len(slots.ActionIDs) != len(eventIDs) {
		return nil, status.New(status.InvalidPdf,
			"policy returned %d slot rankings for %d slots", len(slots.ActionIDs), len(eventIDs))
	}

	resp := &DecisionResponse{ModelVersion: slots.ModelVersion}
	resp.Slots = make([]DecisionSlot, len(eventIDs))
	for i := range eventIDs {
		resp.Slots[i] = DecisionSlot{EventID: eventIDs[i], Ranking: zipRanking(slots.ActionIDs[i], slots.PDFs[i])}
	}

	if err := lm.interactions.LogDecisions(eventIDs, contextJSON, slots.ActionIDs, slots.PDFs,
		slots.ModelVersion, flags.deferred()); err != nil {
		return nil, status.From(err, status.BackgroundQueueOverflow)
	}

	if err := lm.checkBackground(); err != nil {
		return resp, err
	}
	return resp, nil
}

// requestMultiSlotImpl validates, parses and scores a multi-slot call.
func (lm *LiveModel) requestMultiSlotImpl(eventID string, contextJSON []byte, baseline []int) (slotIDs []string, actionIDs [][]uint32, pdfs [][]float32, modelVersion string, err error) {
	if lm.learningMode == ModeApprentice && len(baseline) == 0 {
		return nil, nil, nil, "", status.New(status.BaselineActionsNotDefined,
			"apprentice mode requires baseline actions")
	}
	if eventID == "" {
		return nil, nil, nil, "", status.New(status.InvalidArgument, "event id is empty")
	}
	if len(contextJSON) == 0 {
		return nil, nil, nil, "", status.New(status.InvalidArgument, "context is empty")
	}

	info, err := validateSlotContext(contextJSON)
	if err != nil {
		return nil, nil, nil, "", err
	}
	slotIDs = make([]string, info.SlotCount())
	copy(slotIDs, info.SlotIDs)
	lm.fillMissingIDs(slotIDs)

	slots, err := lm.policy.RequestMultiSlotDecision(eventID, slotIDs, contextJSON)
	if err != nil {
		return nil, nil, nil, "", status.From(err, status.InvalidArgument)
	}
	if len(slots.ActionIDs) != len(slotIDs) {
		return nil, nil, nil, "", status.New(status.InvalidPdf,
			"policy returned %d slot rankings for %d slots", len(slots.ActionIDs), len(slotIDs))
	}
	for i := range slots.ActionIDs {
		if len(slots.ActionIDs[i]) == 0 || len(slots.ActionIDs[i]) != len(slots.PDFs[i]) {
			return nil, nil, nil, "", status.New(status.InvalidPdf, "policy returned an empty ranking for slot %d", i)
		}
	}
	return slotIDs, slots.ActionIDs, slots.PDFs, slots.ModelVersion, nil
}

// RequestMultiSlotDecision fills each named slot of the context under
// one event id. An empty eventID is replaced by an auto-generated one.
// Under Apprentice or LoggingOnly the returned chosen actions are reset
// to the baseline after the sampled result has been logged.
func (lm *LiveModel) RequestMultiSlotDecision(eventID string, contextJSON []byte, flags Flags, baseline []int) (*MultiSlotResponse, error) {
	if eventID == "" {
		eventID = lm.autoEventID()
	}
	end := lm.span("RequestMultiSlotDecision", eventID)
	defer end()

	slotIDs, actionIDs, pdfs, modelVersion, err := lm.requestMultiSlotImpl(eventID, contextJSON, baseline)
	if err != nil {
		return nil, err
	}

	resp := &MultiSlotResponse{EventID: eventID, ModelVersion: modelVersion}
	resp.Slots = make([]SlotResponse, len(slotIDs))
	for i := range slotIDs {
		resp.Slots[i] = SlotResponse{
			SlotID:      slotIDs[i],
			ActionID:    actionIDs[i][0],
			Probability: pdfs[i][0],
		}
	}

	if err := lm.interactions.LogMultiSlot(eventID, contextJSON, slotIDs, actionIDs, pdfs,
		modelVersion, lm.learningMode.String(), baseline, flags.deferred()); err != nil {
		return nil, status.From(err, status.BackgroundQueueOverflow)
	}

	if lm.learningMode == ModeApprentice || lm.learningMode == ModeLoggingOnly {
		resetChosenActionMultiSlot(resp, baseline)
	}

	if err := lm.checkBackground(); err != nil {
		return resp, err
	}
	return resp, nil
}

// RequestMultiSlotDecisionDetailed is RequestMultiSlotDecision keeping
// each slot's full reordered pdf.
func (lm *LiveModel) RequestMultiSlotDecisionDetailed(eventID string, contextJSON []byte, flags Flags, baseline []int) (*MultiSlotResponseDetailed, error) {
	if eventID == "" {
		eventID = lm.autoEventID()
	}
	end := lm.span("RequestMultiSlotDecisionDetailed", eventID)
	defer end()

	slotIDs, actionIDs, pdfs, modelVersion, err := lm.requestMultiSlotImpl(eventID, contextJSON, baseline)
	if err != nil {
		return nil, err
	}

	resp := &MultiSlotResponseDetailed{EventID: eventID, ModelVersion: modelVersion}
	resp.Slots = make([]SlotRanking, len(slotIDs))
	for i := range slotIDs {
		resp.Slots[i] = SlotRanking{
			SlotID:       slotIDs[i],
			ChosenAction: actionIDs[i][0],
			Ranking:      zipRanking(actionIDs[i], pdfs[i]),
		}
	}

	if err := lm.interactions.LogMultiSlot(eventID, contextJSON, slotIDs, actionIDs, pdfs,
		modelVersion, lm.learningMode.String(), baseline, flags.deferred()); err != nil {
		return nil, status.From(err, status.BackgroundQueueOverflow)
	}

	if lm.learningMode == ModeApprentice || lm.learningMode == ModeLoggingOnly {
		resetChosenActionMultiSlotDetailed(resp, baseline)
	}

	if err := lm.checkBackground(); err != nil {
		return resp, err
	}
	return resp, nil
}

// RequestEpisodicDecision ranks a context within an episode, patching
// it with the chosen history prefix ending at previousID. previousID is
// empty for the first decision of an episode. The episode record is
// emitted once, when the episode sees its first decision.
func (lm *LiveModel) RequestEpisodicDecision(eventID, previousID string, contextJSON []byte, flags Flags, episode *EpisodeState) (*RankingResponse, error) {
	end := lm.span("RequestEpisodicDecision", eventID)
	defer end()

	if eventID == "" || len(contextJSON) == 0 {
		return nil, status.New(status.InvalidArgument, "event id and context are required")
	}
	if episode == nil {
		return nil, status.New(status.InvalidArgument, "episode state is required")
	}
	if lm.episodes == nil {
		return nil, status.New(status.NotSupported, "episode logging is not configured")
	}

	patched, err := episode.GetContext(previousID, contextJSON)
	if err != nil {
		return nil, status.From(err, status.JSONParseError)
	}

	seed := explore.EventSeed(eventID, lm.seedShift)
	rank, err := lm.policy.ChooseRankMultistep(eventID, seed, patched, episode)
	if err != nil {
		return nil, status.From(err, status.InvalidArgument)
	}

	ids := append([]uint32(nil), rank.ActionIDs...)
	pdf := append([]float32(nil), rank.PDF...)
	if _, err := explore.SampleAndReorder(seed, ids, pdf); err != nil {
		return nil, err
	}

	resp := &RankingResponse{EventID: eventID, ModelVersion: rank.ModelVersion}
	resp.Ranking = make([]ActionProb, len(ids))
	for i := range ids {
		resp.Ranking[i] = ActionProb{ActionID: ids[i], Probability: pdf[i]}
	}

	episode.update(eventID, previousID, ids[0])

	if episode.Len() == 1 {
		if err := lm.episodes.LogEpisode(episode.EpisodeID()); err != nil {
			return nil, status.From(err, status.BackgroundQueueOverflow)
		}
	}
	if err := lm.interactions.LogMultistep(episode.EpisodeID(), previousID, eventID, patched,
		resp.actionIDs(), resp.probabilities(), resp.ModelVersion, flags.deferred()); err != nil {
		return nil, status.From(err, status.BackgroundQueueOverflow)
	}
	return resp, nil
}

// validOutcome accepts a float or a non-empty UTF-8 payload.
func validOutcome(outcome any) error {
	switch v := outcome.(type) {
	case float32, float64, int, int32, int64:
		return nil
	case string:
		if v == "" {
			return status.New(status.InvalidArgument, "outcome is empty")
		}
		return nil
	default:
		return status.New(status.InvalidArgument, "outcome must be numeric or a string")
	}
}

// ReportOutcome logs an outcome against a previously returned event id.
// No policy or sampler is involved.
func (lm *LiveModel) ReportOutcome(eventID string, outcome any) error {
	if eventID == "" {
		return status.New(status.InvalidArgument, "event id is empty")
	}
	if err := validOutcome(outcome); err != nil {
		return err
	}
	return lm.observations.LogOutcome(eventID, "", nil, outcome)
}

// ReportSecondaryOutcome logs an outcome scoped by a secondary id, the
// per-slot form of outcome attribution.
func (lm *LiveModel) ReportSecondaryOutcome(primaryID, secondaryID string, outcome any) error {
	if primaryID == "" || secondaryID == "" {
		return status.New(status.InvalidArgument, "primary and secondary ids are required")
	}
	if err := validOutcome(outcome); err != nil {
		return err
	}
	return lm.observations.LogOutcome(primaryID, secondaryID, nil, outcome)
}

// ReportIndexedOutcome logs an outcome scoped by a slot index.
func (lm *LiveModel) ReportIndexedOutcome(primaryID string, secondaryIndex int, outcome any) error {
	if primaryID == "" {
		return status.New(status.InvalidArgument, "primary id is empty")
	}
	if err := validOutcome(outcome); err != nil {
		return err
	}
	return lm.observations.LogOutcome(primaryID, "", &secondaryIndex, outcome)
}

// ReportActionTaken marks a deferred event for training even without a
// numeric outcome.
func (lm *LiveModel) ReportActionTaken(eventID string) error {
	if eventID == "" {
		return status.New(status.InvalidArgument, "event id is empty")
	}
	return lm.observations.LogActionTaken(eventID, "")
}

// ReportActionTakenSecondary is ReportActionTaken scoped by a secondary
// id.
func (lm *LiveModel) ReportActionTakenSecondary(primaryID, secondaryID string) error {
	if primaryID == "" || secondaryID == "" {
		return status.New(status.InvalidArgument, "primary and secondary ids are required")
	}
	return lm.observations.LogActionTaken(primaryID, secondaryID)
}

func zipRanking(ids []uint32, pdf []float32) []ActionProb {
	out := make([]ActionProb, len(ids))
	for i := range ids {
		out[i] = ActionProb{ActionID: ids[i], Probability: pdf[i]}
	}
	return out
}
