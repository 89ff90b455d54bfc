package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/vk/tunerun/internal/grammar"
	"github.com/vk/tunerun/internal/optimizer"
)

// App encapsulates the run's dependencies and configuration.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	fs        afero.Fs
	extractor grammar.Extractor
	runner    *optimizer.Runner
}

// Option overrides one of the App's collaborators.
type Option func(*App)

// WithExtractor replaces the grammar feature extractor chosen by
// Config.GrammarFeatures.
func WithExtractor(e grammar.Extractor) Option {
	return func(a *App) { a.extractor = e }
}

// WithRunner replaces the optimizer runner.
func WithRunner(r *optimizer.Runner) Option {
	return func(a *App) { a.runner = r }
}

// NewApp is the constructor for the orchestrator. It returns a fully
// initialized App with its own isolated logger writing to outW.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) *App {
	a := &App{
		outW:   outW,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, outW),
		config: cfg,
		fs:     afero.NewOsFs(),
		runner: &optimizer.Runner{
			Java:       cfg.Java,
			JoshuaRoot: cfg.JoshuaRoot,
			Heap:       optimizer.DefaultHeap,
			MaxMem:     optimizer.DefaultMaxMem,
		},
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.extractor == nil {
		ext, err := grammar.New(cfg.GrammarFeatures, cfg.JoshuaRoot, a.fs)
		if err != nil {
			// NewConfig validates the mode, so this is a programmer error.
			panic(fmt.Errorf("failed to build grammar feature extractor: %w", err))
		}
		a.extractor = ext
	}
	a.logger.Debug("App configured.", "tuner", cfg.Tuner, "grammar_features", cfg.GrammarFeatures)

	return a
}
