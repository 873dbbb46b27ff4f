package app

import (
	"github.com/marineevidence/combinedmap/internal/config"
	"github.com/marineevidence/combinedmap/internal/habitat"
)

// NewEngine loads the reference vocabulary and substitution table named in
// cfg and builds the shared habitat engine. Every failure wraps
// domain.ErrConfiguration and must stop the command before input is read.
func NewEngine(cfg config.EngineConfig) (*habitat.Engine, error) {
	vocab, err := habitat.LoadVocabulary(cfg.VocabularyPath)
	if err != nil {
		return nil, err
	}

	table, err := habitat.LoadSubstitutions(cfg.SubstitutionsPath)
	if err != nil {
		return nil, err
	}

	return habitat.NewEngine(habitat.Config{
		Vocabulary:    vocab,
		Substitutions: table,
		StrayLiteral:  cfg.StrayLiteral,
		ReviewMarkers: cfg.ReviewMarkers,
		Workers:       cfg.Workers,
	})
}
