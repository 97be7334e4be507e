package config

// DefaultConfig returns configuration with sensible defaults, mirroring the
// default values named throughout spec.md (anchor policy in §4.3, align
// costs in §4.4, rollup thresholds in §4.5/§9, wild_match_window in §4.6,
// average_wpm in §4.2, ASR/MFA adapter tuning in §4.12, semaphore sizing in
// §5).
func DefaultConfig() *Config {
	return &Config{
		Anchor: AnchorConfig{
			NgramN:                3,
			TargetDensity:         0.02,
			MinSeparation:         5,
			StopwordSetID:         "en-basic",
			DisallowBoundaryCross: false,
		},
		Align: AlignConfig{
			CostSub: 1.0,
			CostIns: 1.0,
			CostDel: 1.0,
		},
		Rollup: RollupConfig{
			OkWerThreshold:     0.35,
			ParagraphWeighting: "word_count",
		},
		TextGrid: TextGridConfig{
			WildMatchWindow: 3,
		},
		BookIndex: BookIndexConfig{
			AverageWPM: 200,
		},
		Asr: AsrConfig{
			Model:           "whisper-1",
			APIKey:          "${OPENAI_API_KEY}",
			RateLimitPerSec: 4.0,
			MaxRetries:      3,
			RetryDelaySec:   2.0,
			TimeoutSec:      900,
		},
		Mfa: MfaConfig{
			AcousticModel: "english_us_arpa",
			Dictionary:    "english_us_arpa",
			UseDocker:     false,
			DockerImage:   "mmcauliffe/montreal-forced-aligner:latest",
		},
		Concurrency: ConcurrencyConfig{
			AsrSlots:        2,
			MfaWorkspaces:   2,
			MfaWorkspaceDir: "mfa-workspaces",
		},
	}
}
