package config

// Config holds bookalign's static configuration.
// Stored at: $HOME/.bookalign/config.yaml (or --config path).
type Config struct {
	Anchor      AnchorConfig      `mapstructure:"anchor" yaml:"anchor" validate:"required"`
	Align       AlignConfig       `mapstructure:"align" yaml:"align" validate:"required"`
	Rollup      RollupConfig      `mapstructure:"rollup" yaml:"rollup" validate:"required"`
	TextGrid    TextGridConfig    `mapstructure:"textgrid" yaml:"textgrid" validate:"required"`
	BookIndex   BookIndexConfig   `mapstructure:"book_index" yaml:"book_index" validate:"required"`
	Asr         AsrConfig         `mapstructure:"asr" yaml:"asr" validate:"required"`
	Mfa         MfaConfig         `mapstructure:"mfa" yaml:"mfa" validate:"required"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency" validate:"required"`
}

// AnchorConfig mirrors anchor.Policy (spec.md §4.3).
type AnchorConfig struct {
	NgramN                int     `mapstructure:"ngram_n" yaml:"ngram_n" validate:"min=2,max=8"`
	TargetDensity         float64 `mapstructure:"target_density" yaml:"target_density" validate:"gt=0,lt=1"`
	MinSeparation         uint32  `mapstructure:"min_separation" yaml:"min_separation"`
	StopwordSetID         string  `mapstructure:"stopword_set_id" yaml:"stopword_set_id" validate:"required"`
	DisallowBoundaryCross bool    `mapstructure:"disallow_boundary_cross" yaml:"disallow_boundary_cross"`
}

// AlignConfig mirrors align.Costs (spec.md §4.4).
type AlignConfig struct {
	CostSub float64 `mapstructure:"cost_sub" yaml:"cost_sub" validate:"gte=0"`
	CostIns float64 `mapstructure:"cost_ins" yaml:"cost_ins" validate:"gte=0"`
	CostDel float64 `mapstructure:"cost_del" yaml:"cost_del" validate:"gte=0"`
}

// RollupConfig exposes the spec.md §9 Open-Question tunables.
type RollupConfig struct {
	OkWerThreshold     float64 `mapstructure:"ok_wer_threshold" yaml:"ok_wer_threshold" validate:"gte=0,lte=1"`
	ParagraphWeighting string  `mapstructure:"paragraph_weighting" yaml:"paragraph_weighting" validate:"oneof=word_count sentence_count"`
}

// TextGridConfig mirrors textgrid.Options (spec.md §4.6).
type TextGridConfig struct {
	WildMatchWindow int `mapstructure:"wild_match_window" yaml:"wild_match_window" validate:"min=0"`
}

// BookIndexConfig mirrors bookindex.Options (spec.md §4.2).
type BookIndexConfig struct {
	AverageWPM float64 `mapstructure:"average_wpm" yaml:"average_wpm" validate:"gt=0"`
}

// AsrConfig configures the OpenAI ASR adapter (spec.md §4.12).
type AsrConfig struct {
	Model            string  `mapstructure:"model" yaml:"model" validate:"required"`
	APIKey           string  `mapstructure:"api_key" yaml:"api_key"`
	RateLimitPerSec  float64 `mapstructure:"rate_limit_per_sec" yaml:"rate_limit_per_sec" validate:"gt=0"`
	MaxRetries       uint    `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelaySec    float64 `mapstructure:"retry_delay_sec" yaml:"retry_delay_sec" validate:"gte=0"`
	TimeoutSec       float64 `mapstructure:"timeout_sec" yaml:"timeout_sec" validate:"gt=0"`
}

// MfaConfig configures the forced-aligner adapter (spec.md §4.12).
type MfaConfig struct {
	AcousticModel string `mapstructure:"acoustic_model" yaml:"acoustic_model" validate:"required"`
	Dictionary    string `mapstructure:"dictionary" yaml:"dictionary" validate:"required"`
	UseDocker     bool   `mapstructure:"use_docker" yaml:"use_docker"`
	DockerImage   string `mapstructure:"docker_image" yaml:"docker_image"`
}

// ConcurrencyConfig mirrors concurrency.Limits (spec.md §5).
type ConcurrencyConfig struct {
	AsrSlots        int64  `mapstructure:"asr_slots" yaml:"asr_slots" validate:"gt=0"`
	MfaWorkspaces   int    `mapstructure:"mfa_workspaces" yaml:"mfa_workspaces" validate:"gt=0"`
	MfaWorkspaceDir string `mapstructure:"mfa_workspace_dir" yaml:"mfa_workspace_dir" validate:"required"`
}
