// Package svcctx provides service context for dependency injection via context.
// This package is separate from the cmd layer to avoid import cycles with it.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/narrationlab/bookalign/internal/concurrency"
	"github.com/narrationlab/bookalign/internal/config"
	"github.com/narrationlab/bookalign/internal/home"
	"github.com/narrationlab/bookalign/internal/pipeline"
	"github.com/narrationlab/bookalign/internal/workspace"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	ConfigManager *config.Manager
	Logger        *slog.Logger
	Home          *home.Dir
	BookManager   *workspace.BookManager
	ChapterMgr    *workspace.ChapterManager
	Semaphores    *concurrency.Semaphores
	Registry      *pipeline.Registry
	Orchestrator  *pipeline.Orchestrator
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// ConfigFrom extracts the current resolved configuration from context.
func ConfigFrom(ctx context.Context) *config.Config {
	if s := ServicesFrom(ctx); s != nil && s.ConfigManager != nil {
		return s.ConfigManager.Get()
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// BookManagerFrom extracts the book manager from context.
func BookManagerFrom(ctx context.Context) *workspace.BookManager {
	if s := ServicesFrom(ctx); s != nil {
		return s.BookManager
	}
	return nil
}

// ChapterManagerFrom extracts the chapter manager from context.
func ChapterManagerFrom(ctx context.Context) *workspace.ChapterManager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ChapterMgr
	}
	return nil
}

// SemaphoresFrom extracts the resource semaphores from context.
func SemaphoresFrom(ctx context.Context) *concurrency.Semaphores {
	if s := ServicesFrom(ctx); s != nil {
		return s.Semaphores
	}
	return nil
}

// RegistryFrom extracts the stage registry from context.
func RegistryFrom(ctx context.Context) *pipeline.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// OrchestratorFrom extracts the pipeline orchestrator from context.
func OrchestratorFrom(ctx context.Context) *pipeline.Orchestrator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Orchestrator
	}
	return nil
}
