package config

import "time"

// Config is the root application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	Output   OutputConfig   `yaml:"output"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// DatabaseConfig holds PostgreSQL connection settings. An empty DSN disables
// run persistence.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	// RetentionDays is the age after which cmd/cleanup removes persisted runs.
	RetentionDays int `yaml:"retention_days" env:"DATABASE_RETENTION_DAYS" env-default:"365"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.DSN != ""
}

// EngineConfig holds the reference data locations and correction settings.
type EngineConfig struct {
	VocabularyPath    string `yaml:"vocabulary_path"    env:"ENGINE_VOCABULARY_PATH"    env-required:"true"`
	SubstitutionsPath string `yaml:"substitutions_path" env:"ENGINE_SUBSTITUTIONS_PATH"`
	StrayLiteral      string `yaml:"stray_literal"      env:"ENGINE_STRAY_LITERAL"      env-default:"a"`
	ReviewMarkersRaw  string `yaml:"review_markers"     env:"ENGINE_REVIEW_MARKERS"     env-default:"with"`
	Workers           int    `yaml:"workers"            env:"ENGINE_WORKERS"            env-default:"1"`

	Exclusions ExclusionConfig `yaml:"exclusions"`

	// ReviewMarkers is parsed from ReviewMarkersRaw during validation.
	ReviewMarkers []string `yaml:"-" env:"-"`
}

// ExclusionConfig lists provenance identifiers whose records are dropped
// before validation, as comma-separated substrings of the named column.
type ExclusionConfig struct {
	PreviousGUIRaw   string `yaml:"previous_gui"  env:"ENGINE_EXCLUDE_PREVIOUS_GUI"  env-default:"EUSM,UKSM"`
	EvidenceGUIRaw   string `yaml:"evbase_gui"    env:"ENGINE_EXCLUDE_EVBASE_GUI"    env-default:"UKSM"`
	EvidenceNEUIDRaw string `yaml:"evbase_ne_uid" env:"ENGINE_EXCLUDE_EVBASE_NE_UID" env-default:"NE_1848,D_00346,NE_1426,NE_1594,NE_1955"`

	// Parsed during validation.
	PreviousGUI   []string `yaml:"-" env:"-"`
	EvidenceGUI   []string `yaml:"-" env:"-"`
	EvidenceNEUID []string `yaml:"-" env:"-"`
}

// OutputConfig holds where partition layers are written.
type OutputConfig struct {
	Dir    string `yaml:"dir"    env:"OUTPUT_DIR"    env-default:"./out"`
	Format string `yaml:"format" env:"OUTPUT_FORMAT" env-default:"csv"`
}
