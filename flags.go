package decision

import (
	"strings"

	"github.com/tjfontaine/decision-client/config"
)

// Flags modify how an interaction event is handled downstream.
type Flags uint32

const (
	// DefaultFlags requests the default event lifecycle.
	DefaultFlags Flags = 0

	// DeferredFlag marks the event as not finalised until a matching
	// ReportActionTaken arrives.
	DeferredFlag Flags = 1
)

func (f Flags) deferred() bool { return f&DeferredFlag != 0 }

// LearningMode selects what is logged versus what is returned to the
// caller.
type LearningMode int

const (
	// ModeOnline logs exactly what was sampled.
	ModeOnline LearningMode = iota

	// ModeApprentice logs the sampled response and returns the
	// baseline response to the caller: ascending action order for
	// single-slot decisions, the baseline actions for multi-slot ones.
	ModeApprentice

	// ModeLoggingOnly returns and logs the baseline response; the
	// online policy is only exercised for warm-up.
	ModeLoggingOnly
)

func (m LearningMode) String() string {
	switch m {
	case ModeApprentice:
		return config.LearningModeApprentice
	case ModeLoggingOnly:
		return config.LearningModeLoggingOnly
	default:
		return config.LearningModeOnline
	}
}

func learningModeFrom(cfg *config.Config) LearningMode {
	switch strings.ToUpper(cfg.Get(config.LearningMode, config.LearningModeOnline)) {
	case config.LearningModeApprentice:
		return ModeApprentice
	case config.LearningModeLoggingOnly:
		return ModeLoggingOnly
	default:
		return ModeOnline
	}
}
