// Command decision-demo makes one ranking decision and reports one
// outcome for it against a locally captured event log, printing what a
// hosting application would see.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	decision "github.com/tjfontaine/decision-client"
	"github.com/tjfontaine/decision-client/config"
	"github.com/tjfontaine/decision-client/internal/telemetry"
)

const demoContext = `{
	"shared": {"user": {"segment": "demo"}},
	"_multi": [
		{"article": {"topic": "sports"}},
		{"article": {"topic": "politics"}},
		{"article": {"topic": "weather"}}
	]
}`

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdown, err := telemetry.InitStdoutTracer("decision-demo", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg := config.New()
	cfg.Set(config.AppID, "decision-demo")
	cfg.Set(config.ModelSrc, config.ModelSrcNone)
	cfg.Set(config.TraceLogImplementation, config.TraceLogConsole)
	cfg.Set(config.InteractionSenderImplementation, config.SenderFile)
	cfg.Set("interaction."+config.FileName, "interactions.fb")
	cfg.Set(config.ObservationSenderImplementation, config.SenderFile)
	cfg.Set("observation."+config.FileName, "observations.fb")
	if err := cfg.LoadEnv(); err != nil {
		log.Fatalf("Failed to load environment config: %v", err)
	}

	lm, err := decision.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create live model: %v", err)
	}
	defer func() {
		if err := lm.Close(context.Background()); err != nil {
			logger.Error("failed to close live model", slog.String("error", err.Error()))
		}
	}()

	resp, err := lm.ChooseRank("demo-event-1", []byte(demoContext), decision.DefaultFlags)
	if err != nil {
		log.Fatalf("ChooseRank failed: %v", err)
	}
	chosen, _ := resp.ChosenActionID()
	prob, _ := resp.ChosenProbability()
	logger.Info("decision made",
		slog.String("event_id", resp.EventID),
		slog.Uint64("chosen_action", uint64(chosen)),
		slog.Float64("probability", float64(prob)),
		slog.String("model", resp.ModelVersion))

	if err := lm.ReportOutcome(resp.EventID, float32(1.0)); err != nil {
		log.Fatalf("ReportOutcome failed: %v", err)
	}
	logger.Info("outcome reported", slog.String("event_id", resp.EventID))
}
