package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/narrationlab/bookalign/internal/errs"
)

// Exit codes per spec.md §6.
const (
	exitSuccess     = 0
	exitUserError   = 1
	exitPipelineErr = 2
	exitCancelled   = 130
)

var (
	cfgFile  string
	homeDir  string
	logLevel string
)

// parseLogLevel converts a string log level to slog.Level. Supports:
// debug, info, warn, error (case-insensitive).
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be debug, info, warn, or error", level)
	}
}

// newLogger builds the process-wide structured logger from --log-level
// (falling back to BOOKALIGN_LOG_LEVEL, then info).
func newLogger() *slog.Logger {
	level := logLevel
	if level == "" {
		level = os.Getenv("BOOKALIGN_LOG_LEVEL")
	}
	parsed, err := parseLogLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, using info\n", err)
		parsed = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parsed}))
}

var rootCmd = &cobra.Command{
	Use:   "bookalign",
	Short: "Aligns a book manuscript against its audiobook narration",
	Long: `bookalign turns a book manuscript (Markdown, DOCX, PDF, RTF, or plain
text) and a set of chapter WAV recordings into a word-level transcript with
precise per-word timing.

The pipeline runs seven fingerprinted, idempotent stages per chapter:
BookIndex -> ASR -> Anchors -> Transcript -> Hydrate -> MFA -> Merge.`,
	Version: versionString,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.bookalign/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "bookalign home directory (default: ~/.bookalign)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn, error (default: info, env: BOOKALIGN_LOG_LEVEL)",
	)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(buildIndexCmd)
	rootCmd.AddCommand(alignCmd)
	rootCmd.AddCommand(validateCmd)
}

// exitCodeFor maps a command error to the process exit code named in
// spec.md §6: 0 success, 1 user error, 2 pipeline failure, 130 cancelled.
func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}
	if errors.Is(err, context.Canceled) {
		return exitCancelled
	}
	var pe *errs.PipelineError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case errs.InputMissing, errs.InputInvalid:
			return exitUserError
		case errs.Cancelled:
			return exitCancelled
		default:
			return exitPipelineErr
		}
	}
	return exitUserError
}
