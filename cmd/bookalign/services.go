package main

import (
	"github.com/narrationlab/bookalign/internal/concurrency"
	"github.com/narrationlab/bookalign/internal/config"
	"github.com/narrationlab/bookalign/internal/home"
)

// loadServices resolves the home directory and configuration common to
// every subcommand, following the --config/--home flags and falling back
// to the conventional locations (spec.md §6, ~/.bookalign).
func loadServices() (*home.Dir, *config.Manager, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, nil, err
	}

	configFile := cfgFile
	if configFile == "" && h.ConfigExists() {
		configFile = h.ConfigPath()
	}

	mgr, err := config.NewManager(configFile)
	if err != nil {
		return nil, nil, err
	}
	return h, mgr, nil
}

// semaphoresFrom builds the concurrency.Semaphores for this invocation from
// resolved configuration, applying any CLI overrides.
func semaphoresFrom(cfg *config.Config, asrConcurrency, mfaConcurrency int64) *concurrency.Semaphores {
	limits := concurrency.Limits{
		AsrSlots:        cfg.Concurrency.AsrSlots,
		MfaWorkspaces:   cfg.Concurrency.MfaWorkspaces,
		MfaWorkspaceDir: cfg.Concurrency.MfaWorkspaceDir,
	}
	if asrConcurrency > 0 {
		limits.AsrSlots = asrConcurrency
	}
	if mfaConcurrency > 0 {
		limits.MfaWorkspaces = int(mfaConcurrency)
	}
	return concurrency.New(limits)
}
