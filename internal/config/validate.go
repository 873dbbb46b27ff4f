package config

import (
	"fmt"
	"strings"

	"github.com/marineevidence/combinedmap/internal/domain"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically. Failures wrap
// domain.ErrConfiguration.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return domain.NewConfigError("log.level", fmt.Sprintf("unknown level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return domain.NewConfigError("log.format", fmt.Sprintf("must be json or text (got %q)", c.Log.Format))
	}

	if c.Database.Enabled() {
		if c.Database.MaxConns <= 0 {
			return domain.NewConfigError("database.max_conns", fmt.Sprintf("must be > 0 (got %d)", c.Database.MaxConns))
		}
		if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
			return domain.NewConfigError("database.min_conns",
				fmt.Sprintf("must be between 0 and max_conns (got %d)", c.Database.MinConns))
		}
		if c.Database.RetentionDays < 1 {
			return domain.NewConfigError("database.retention_days",
				fmt.Sprintf("must be >= 1 (got %d)", c.Database.RetentionDays))
		}
	}

	if err := c.Engine.validate(); err != nil {
		return err
	}

	if c.Output.Format != "csv" {
		return domain.NewConfigError("output.format", fmt.Sprintf("unsupported format %q", c.Output.Format))
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return domain.NewConfigError("output.dir", "must not be empty")
	}

	return nil
}

func (e *EngineConfig) validate() error {
	if strings.TrimSpace(e.VocabularyPath) == "" {
		return domain.NewConfigError("engine.vocabulary_path", "must not be empty")
	}
	if e.Workers < 1 {
		return domain.NewConfigError("engine.workers", fmt.Sprintf("must be >= 1 (got %d)", e.Workers))
	}

	markers := ParseList(e.ReviewMarkersRaw)
	if len(markers) == 0 {
		return domain.NewConfigError("engine.review_markers", "at least one marker is required")
	}
	e.ReviewMarkers = markers

	e.Exclusions.PreviousGUI = ParseList(e.Exclusions.PreviousGUIRaw)
	e.Exclusions.EvidenceGUI = ParseList(e.Exclusions.EvidenceGUIRaw)
	e.Exclusions.EvidenceNEUID = ParseList(e.Exclusions.EvidenceNEUIDRaw)

	return nil
}

// ParseList splits a comma-separated string into trimmed, non-empty items.
// An empty string returns a nil slice.
func ParseList(raw string) []string {
	var items []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}
