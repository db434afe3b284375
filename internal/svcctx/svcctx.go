// Package svcctx provides service context for dependency injection via context.
// Commands build Services once in the root command and extract what they need.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/scoresheet/internal/config"
	"github.com/jackzampolin/scoresheet/internal/home"
	"github.com/jackzampolin/scoresheet/internal/llmcall"
	"github.com/jackzampolin/scoresheet/internal/oracle"
	"github.com/jackzampolin/scoresheet/internal/pdfscan"
)

// StarterFactory builds an oracle starter from the current config.
type StarterFactory func(cfg *config.Config, logger *slog.Logger) (oracle.Starter, error)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Config     *config.Manager
	Logger     *slog.Logger
	Home       *home.Dir
	CallStore  llmcall.Store
	Scanner    *pdfscan.Scanner
	NewStarter StarterFactory
}

// OpenAIStarter is the default StarterFactory.
func OpenAIStarter(cfg *config.Config, logger *slog.Logger) (oracle.Starter, error) {
	oc, err := cfg.ToOracleConfig()
	if err != nil {
		return nil, err
	}
	oc.Logger = logger
	return oracle.NewClient(oc), nil
}

// Recorder returns a call recorder over the configured store. Recording is
// disabled when no store is configured.
func (s *Services) Recorder() *llmcall.Recorder {
	return llmcall.NewRecorder(s.CallStore, s.Logger)
}

// Close releases resources held by the services.
func (s *Services) Close() error {
	if s.CallStore != nil {
		return s.CallStore.Close()
	}
	return nil
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

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// CallStoreFrom extracts the call history store from context.
func CallStoreFrom(ctx context.Context) llmcall.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.CallStore
	}
	return nil
}
