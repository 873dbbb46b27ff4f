// Command vocabcheck loads the configured reference vocabulary and
// substitution table and reports configuration errors. Codes given as
// arguments are checked against the vocabulary, and codes that fail are
// run through the corrector to preview the repair.
//
// Usage:
//
//	vocabcheck [code ...]
//
// Exit codes: 0 = success, 1 = configuration error or an argument code that
// stays invalid after correction.
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/marineevidence/combinedmap/internal/app"
	"github.com/marineevidence/combinedmap/internal/config"
	"github.com/marineevidence/combinedmap/internal/domain"
	"github.com/marineevidence/combinedmap/internal/habitat"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	engine, err := app.NewEngine(cfg.Engine)
	if err != nil {
		logger.Error("reference data invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("reference data loaded",
		slog.Int("vocabulary", engine.Vocabulary().Len()),
		slog.Any("rules", engine.Corrector().RuleNames()),
	)

	validator := habitat.NewValidator(engine.Vocabulary(), habitat.MatchAlternatives)
	failed := 0
	for _, code := range os.Args[1:] {
		if err := validator.Check(code); err == nil {
			logger.Info("code valid", slog.String("code", code))
			continue
		}

		rec := engine.Corrector().CorrectOne(domain.HabitatRecord{PrimaryCode: code})
		if err := validator.Check(rec.PrimaryCode); err != nil {
			failed++
			logger.Warn("code invalid",
				slog.String("code", code),
				slog.String("corrected", rec.PrimaryCode),
				slog.String("error", err.Error()),
			)
			continue
		}
		logger.Info("code recoverable",
			slog.String("code", code),
			slog.String("corrected", rec.PrimaryCode),
			slog.Any("corrections", rec.Corrections),
		)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
