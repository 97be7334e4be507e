package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Anchor.NgramN != 3 {
		t.Errorf("expected default ngram_n 3, got %d", cfg.Anchor.NgramN)
	}
	if cfg.Asr.Model != "whisper-1" {
		t.Errorf("expected default asr model whisper-1, got %s", cfg.Asr.Model)
	}
	if cfg.Concurrency.AsrSlots != 2 {
		t.Errorf("expected default asr_slots 2, got %d", cfg.Concurrency.AsrSlots)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		os.Setenv("TEST_API_KEY", "secret123")
		defer os.Unsetenv("TEST_API_KEY")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestNewManager_LoadsFromConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
asr:
  model: "whisper-large"
  api_key: "${TEST_OPENAI_KEY}"
  rate_limit_per_sec: 4
  timeout_sec: 900
`
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	cfg := mgr.Get()
	if cfg.Asr.Model != "whisper-large" {
		t.Errorf("expected whisper-large, got %s", cfg.Asr.Model)
	}
	// Fields left unset in the file fall back to viper's registered defaults.
	if cfg.Anchor.NgramN != 3 {
		t.Errorf("expected default ngram_n 3 to survive partial override, got %d", cfg.Anchor.NgramN)
	}
}

func TestNewManager_RejectsInvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	// rollup.paragraph_weighting must be one of word_count/sentence_count.
	configContent := `
rollup:
  ok_wer_threshold: 0.35
  paragraph_weighting: "by_vibes"
`
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := NewManager(configFile); err == nil {
		t.Error("expected validation error for invalid paragraph_weighting")
	}
}

func TestManager_OnChange_Multiple(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configFile, []byte("asr:\n  model: whisper-1\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configFile, []byte("asr:\n  model: whisper-1\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				cfg := mgr.Get()
				_ = cfg.Asr.Model
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
asr:
  model: "whisper-1"
`
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	cfg := mgr.Get()
	if cfg.Asr.Model != "whisper-1" {
		t.Errorf("initial value mismatch: expected whisper-1, got %s", cfg.Asr.Model)
	}

	var callbackCount atomic.Int32
	var lastValue atomic.Value

	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(cfg.Asr.Model)
	})

	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher.
	time.Sleep(100 * time.Millisecond)

	newContent := `
asr:
  model: "whisper-updated"
`
	if err := os.WriteFile(configFile, []byte(newContent), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Error("callback was not invoked after config file change")
	}

	newCfg := mgr.Get()
	if newCfg.Asr.Model != "whisper-updated" {
		t.Errorf("config not updated: expected whisper-updated, got %s", newCfg.Asr.Model)
	}
	if v := lastValue.Load(); v != "whisper-updated" {
		t.Errorf("callback received wrong value: expected whisper-updated, got %v", v)
	}
}
