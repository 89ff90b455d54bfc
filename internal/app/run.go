package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/vk/tunerun/internal/ctxlog"
	"github.com/vk/tunerun/internal/decoderconfig"
	"github.com/vk/tunerun/internal/fsutil"
	"github.com/vk/tunerun/internal/optimizer"
	"github.com/vk/tunerun/internal/reference"
	"github.com/vk/tunerun/internal/tuner"
)

// Run executes one tuning run. Each step commits its files before the next
// begins:
//
//  1. create the tune directory
//  2. count the reference translations
//  3. link the decoder config into the tune directory
//  4. render the optimizer config
//  5. derive the initial weights and render params.txt
//  6. run the optimizer to completion
//  7. point joshua.config.final at the optimizer's final config
//
// Any failure stops the run. An optimizer that exits unsuccessfully is an
// error and leaves no final config link behind.
func (a *App) Run(ctx context.Context) (*optimizer.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	cfg := a.config
	a.logger.Debug("App.Run method started.")

	if err := fsutil.EnsureDir(a.fs, cfg.TuneDir); err != nil {
		return nil, fmt.Errorf("failed to prepare tune directory: %w", err)
	}

	refs, err := reference.Require(a.fs, cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve references: %w", err)
	}
	a.logger.Info("References resolved.", "target", cfg.Target, "count", refs.Count, "files", refs.Files())

	localConfig := filepath.Join(cfg.TuneDir, tuner.DecoderConfigLink)
	decoderConfig, err := a.decoderConfigSource(localConfig)
	if err != nil {
		return nil, err
	}
	if err := fsutil.ReplaceSymlink(a.fs, decoderConfig, localConfig); err != nil {
		return nil, fmt.Errorf("failed to link decoder config: %w", err)
	}
	a.logger.Debug("Decoder config linked.", "link", localConfig, "target", decoderConfig)

	tunerConfig := filepath.Join(cfg.TuneDir, cfg.Tuner.ConfigFile())
	err = cfg.Tuner.Template().RenderFile(a.fs, tunerConfig, tuner.ConfigValues{
		Ref:            cfg.Target,
		NumRefs:        refs.Count,
		TuneDir:        cfg.TuneDir,
		DecoderCommand: cfg.DecoderCommand,
		DecoderConfig:  localConfig,
		DecoderOutput:  cfg.DecoderOutputFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write %s config: %w", cfg.Tuner, err)
	}

	weights, err := decoderconfig.DeriveParameters(ctx, a.fs, decoderConfig, a.extractor)
	if err != nil {
		return nil, fmt.Errorf("failed to derive tunable parameters: %w", err)
	}
	paramsFile := filepath.Join(cfg.TuneDir, tuner.ParamsFile)
	if err := tuner.ParamsTemplate().RenderFile(a.fs, paramsFile, tuner.ParamsValues{Params: weights.String()}); err != nil {
		return nil, fmt.Errorf("failed to write parameter file: %w", err)
	}
	a.logger.Info("Tuning files written.", "config", tunerConfig, "params", paramsFile, "weights", len(weights))

	a.logger.Info("🚀 Tuning run ready.", "tuner", cfg.Tuner.String())
	res, err := a.runner.Run(ctx, optimizer.Invocation{
		MainClass:  cfg.Tuner.MainClass(),
		ConfigPath: tunerConfig,
		LogPath:    filepath.Join(cfg.TuneDir, cfg.Tuner.LogFile()),
	})
	if err != nil {
		return res, fmt.Errorf("%s run failed: %w", cfg.Tuner, err)
	}

	if err := a.publishFinalConfig(); err != nil {
		return res, err
	}
	a.logger.Info("🏁 Tuning finished.", "final_config", filepath.Join(cfg.TuneDir, tuner.FinalConfigLink))

	a.logger.Debug("App.Run method finished.")
	return res, nil
}

// decoderConfigSource returns the absolute path of the decoder config to
// link and parse. When the configured path is the tune directory's own
// joshua.config link, the link's current target is used instead so the link
// never points at itself.
func (a *App) decoderConfigSource(localConfig string) (string, error) {
	decoderConfig, err := filepath.Abs(a.config.DecoderConfig)
	if err != nil {
		return "", fmt.Errorf("failed to resolve decoder config path: %w", err)
	}
	link, err := filepath.Abs(localConfig)
	if err != nil {
		return "", fmt.Errorf("failed to resolve decoder config link: %w", err)
	}
	if decoderConfig != link {
		return decoderConfig, nil
	}

	target, err := fsutil.ReadLink(a.fs, link)
	if err != nil {
		return "", fmt.Errorf("decoder config %s is the tune directory's own link and cannot be followed: %w", a.config.DecoderConfig, err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(link), target)
	}
	if filepath.Clean(target) == link {
		return "", fmt.Errorf("decoder config link %s points at itself", link)
	}
	a.logger.Debug("Decoder config is the tune directory link; following it.", "link", link, "target", target)
	return filepath.Clean(target), nil
}

// publishFinalConfig replaces the joshua.config.final link. The link target
// is relative so the tune directory can be moved as a whole.
func (a *App) publishFinalConfig() error {
	cfg := a.config
	artifact := cfg.Tuner.FinalConfig()

	ok, err := afero.Exists(a.fs, filepath.Join(cfg.TuneDir, artifact))
	if err != nil {
		return fmt.Errorf("failed to check for %s: %w", artifact, err)
	}
	if !ok {
		return fmt.Errorf("%s finished without writing %s", cfg.Tuner, filepath.Join(cfg.TuneDir, artifact))
	}

	link := filepath.Join(cfg.TuneDir, tuner.FinalConfigLink)
	if prev, err := fsutil.ReadLink(a.fs, link); err == nil {
		a.logger.Info("Replacing final config link from a previous run.", "previous", prev)
	}
	if err := fsutil.ReplaceSymlink(a.fs, artifact, link); err != nil {
		return fmt.Errorf("failed to publish final config: %w", err)
	}
	return nil
}
