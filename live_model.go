package decision

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tjfontaine/decision-client/config"
	"github.com/tjfontaine/decision-client/internal/explore"
	"github.com/tjfontaine/decision-client/internal/logger"
	"github.com/tjfontaine/decision-client/internal/model"
	"github.com/tjfontaine/decision-client/internal/modelmgmt"
	"github.com/tjfontaine/decision-client/internal/sender"
	"github.com/tjfontaine/decision-client/internal/timeprov"
	"github.com/tjfontaine/decision-client/internal/trace"
	"github.com/tjfontaine/decision-client/internal/watchdog"
	"github.com/tjfontaine/decision-client/status"
)

// LiveModel is the public surface of the decision client. Construct it
// with New; all decision and outcome methods are safe for concurrent
// use against one instance. Close releases the background loops and
// drains the log queues.
type LiveModel struct {
	cfg       *config.Config
	userErrFn status.ErrorFn
	errFn     status.ErrorFn

	tr     trace.Logger
	wd     *watchdog.Watchdog
	policy model.Interface

	transport modelmgmt.Transport
	refresher *modelmgmt.Refresher
	bgRefresh bool

	interactions *logger.InteractionLogger
	observations *logger.ObservationLogger
	episodes     *logger.EpisodeLogger

	learningMode LearningMode
	seedShift    uint64
	modelReady   atomic.Bool
	closed       atomic.Bool
}

// New builds and initialises a live model from configuration. The
// sequence is fail-fast: trace logger, policy, loggers, protocol
// validation, then model management; on error everything acquired so
// far is released.
func New(cfg *config.Config, opts ...Option) (*LiveModel, error) {
	lm := &LiveModel{cfg: cfg}
	for _, opt := range opts {
		opt(lm)
	}
	if err := lm.init(); err != nil {
		// Partial init releases everything acquired so far; the queues
		// are empty, so draining is immediate.
		_ = lm.Close(context.Background())
		return nil, err
	}
	return lm, nil
}

func (lm *LiveModel) init() error {
	tr, err := trace.Create(lm.cfg)
	if err != nil {
		return status.From(err, status.InvalidArgument)
	}
	lm.tr = tr
	lm.tr.Info("API tracing initialized")

	lm.wd = watchdog.New(lm.tr)
	lm.errFn = lm.dispatchError

	raw, err := model.Create(lm.cfg, lm.tr)
	if err != nil {
		return status.From(err, status.InvalidArgument)
	}
	lm.policy = model.NewSafe(raw)

	if err := lm.initLoggers(); err != nil {
		return err
	}

	protocol := lm.cfg.GetInt(config.ProtocolVersion, config.DefaultProtocolVersion)
	if protocol == 1 {
		if lm.cfg.GetBool(config.InteractionUseDedup, false) ||
			lm.cfg.GetBool(config.InteractionUseCompression, false) ||
			lm.cfg.GetBool(config.ObservationUseCompression, false) {
			return status.New(status.ContentEncodingError,
				"dedup and compression are not supported under protocol version 1")
		}
	}

	lm.seedShift = explore.HashSeed(lm.cfg.Get(config.AppID, ""))
	lm.learningMode = learningModeFrom(lm.cfg)

	return lm.initModelMgmt()
}

func (lm *LiveModel) initLoggers() error {
	tp, err := timeprov.Create(lm.cfg)
	if err != nil {
		return status.From(err, status.InvalidArgument)
	}
	// Each channel is built with itself selected as the current config
	// section, so section-qualified options win over bare names.
	lm.cfg.SetSection("interaction")
	interactionSender, err := lm.createSender(config.InteractionSenderImplementation)
	if err != nil {
		lm.cfg.SetSection("")
		return err
	}
	lm.interactions = logger.NewInteractionLogger(lm.cfg, interactionSender, lm.errFn, tp, lm.tr)

	lm.cfg.SetSection("observation")
	observationSender, err := lm.createSender(config.ObservationSenderImplementation)
	if err != nil {
		lm.cfg.SetSection("")
		return err
	}
	lm.observations = logger.NewObservationLogger(lm.cfg, observationSender, lm.errFn, tp, lm.tr)

	if lm.episodeChannelConfigured() {
		lm.cfg.SetSection("episode")
		episodeSender, err := lm.createSender(config.EpisodeSenderImplementation)
		if err != nil {
			lm.cfg.SetSection("")
			return err
		}
		lm.episodes = logger.NewEpisodeLogger(lm.cfg, episodeSender, lm.errFn, tp, lm.tr)
	}
	lm.cfg.SetSection("")
	return nil
}

// createSender resolves the current section's sender implementation.
func (lm *LiveModel) createSender(implKey string) (sender.Sender, error) {
	name := lm.cfg.Get(implKey, config.SenderHTTP)
	snd, err := sender.Create(name, lm.cfg, lm.errFn, lm.tr)
	if err != nil {
		return nil, status.From(err, status.InvalidArgument)
	}
	if err := snd.Init(lm.cfg); err != nil {
		return nil, status.From(err, status.InvalidArgument)
	}
	return snd, nil
}

func (lm *LiveModel) episodeChannelConfigured() bool {
	return lm.cfg.Get(config.EpisodeSenderImplementation, "") != "" ||
		lm.cfg.Get(config.EpisodeFileName, "") != "" ||
		lm.cfg.Get(config.EpisodeEHHost, "") != ""
}

func (lm *LiveModel) initModelMgmt() error {
	transport, err := modelmgmt.Create(lm.cfg, lm.tr)
	if err != nil {
		return status.From(err, status.InvalidArgument)
	}
	lm.transport = transport
	lm.bgRefresh = lm.cfg.GetBool(config.ModelBackgroundRefresh, true)

	if lm.bgRefresh {
		interval := time.Duration(lm.cfg.GetInt(config.ModelRefreshIntervalMs, config.DefaultRefreshIntervalMs)) * time.Millisecond
		lm.refresher = modelmgmt.NewRefresher(transport, lm.handleModelData, interval, lm.errFn, lm.tr)
		lm.refresher.Start()
		return nil
	}
	return lm.refreshOnce()
}

// handleModelData applies a background pull to the policy.
func (lm *LiveModel) handleModelData(md *modelmgmt.ModelData) {
	if md.RefreshCount == 0 {
		lm.tr.Info("model was not updated since previous download")
		return
	}
	ready, err := lm.policy.Update(md.Data)
	if err != nil {
		lm.errFn(status.From(err, status.ModelUpdateError))
		return
	}
	lm.modelReady.Store(ready)
}

// refreshOnce pulls and applies the model synchronously.
func (lm *LiveModel) refreshOnce() error {
	md, err := lm.transport.GetData(context.Background())
	if err != nil {
		return status.From(err, status.ModelUpdateError)
	}
	if md.RefreshCount == 0 {
		lm.tr.Info("model was not updated since previous download")
		return nil
	}
	ready, err := lm.policy.Update(md.Data)
	if err != nil {
		return status.From(err, status.ModelUpdateError)
	}
	lm.modelReady.Store(ready)
	return nil
}

// RefreshModel pulls the model on demand. It is only legal when
// background refresh is disabled.
func (lm *LiveModel) RefreshModel() error {
	if lm.bgRefresh {
		return status.New(status.ModelUpdateError,
			"cannot manually refresh model when background refresh is enabled")
	}
	return lm.refreshOnce()
}

// ModelReady reports whether a model blob has been applied; before
// that, decisions run in explore-only mode. Diagnostic only.
func (lm *LiveModel) ModelReady() bool {
	return lm.modelReady.Load()
}

// dispatchError routes a background failure to the user's callback, or
// arms the watchdog when no callback was supplied.
func (lm *LiveModel) dispatchError(st *status.Status) {
	if lm.userErrFn != nil {
		lm.userErrFn(st)
		return
	}
	lm.wd.SetUnhandledBackgroundError(true)
}

// checkBackground surfaces any unhandled background error on the
// current foreground call, clearing the flag.
func (lm *LiveModel) checkBackground() error {
	if lm.wd.HasBackgroundErrorBeenReported() {
		return status.New(status.UnhandledBackgroundError,
			"a background task reported an unhandled error")
	}
	return nil
}

// Close stops the refresh loop and drains the log channels, waiting up
// to each channel's shutdown deadline. Outstanding batches beyond the
// deadline are dropped and counted.
func (lm *LiveModel) Close(ctx context.Context) error {
	if !lm.closed.CompareAndSwap(false, true) {
		return nil
	}
	lm.release()

	var firstErr error
	if lm.interactions != nil {
		if err := lm.interactions.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if lm.observations != nil {
		if err := lm.observations.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if lm.episodes != nil {
		if err := lm.episodes.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// release stops background activity; safe to call on a partially
// initialised model.
func (lm *LiveModel) release() {
	if lm.refresher != nil {
		lm.refresher.Stop()
		lm.refresher = nil
	}
}
