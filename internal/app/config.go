package app

import (
	"errors"

	"github.com/vk/tunerun/internal/grammar"
	"github.com/vk/tunerun/internal/tuner"
)

// Defaults for settings given neither on the command line nor in a run file.
const (
	DefaultTuneDir           = "SDFW"
	DefaultDecoderCommand    = "tune/decoder_command"
	DefaultDecoderConfig     = "tune/model/joshua.config"
	DefaultDecoderOutputFile = "tune/output.nbest"
	DefaultDecoderLogFile    = "tune/joshua.log"
	DefaultJava              = "java"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// JoshuaRoot is the installation root. It is injected by the entrypoint;
	// nothing below reads the environment.
	JoshuaRoot string

	Source  string
	Target  string // reference file or prefix
	TuneDir string
	Tuner   tuner.Tuner

	DecoderCommand    string
	DecoderConfig     string
	DecoderOutputFile string
	DecoderLogFile    string // accepted for compatibility; no optimizer reads it

	GrammarFeatures grammar.Mode
	Java            string

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.JoshuaRoot == "" {
		return nil, errors.New("JoshuaRoot is a required configuration field and cannot be empty")
	}
	if cfg.Target == "" {
		return nil, errors.New("Target is a required configuration field and cannot be empty")
	}
	if cfg.TuneDir == "" {
		return nil, errors.New("TuneDir is a required configuration field and cannot be empty")
	}
	if cfg.DecoderConfig == "" {
		return nil, errors.New("DecoderConfig is a required configuration field and cannot be empty")
	}
	if cfg.DecoderCommand == "" {
		return nil, errors.New("DecoderCommand is a required configuration field and cannot be empty")
	}
	if cfg.DecoderOutputFile == "" {
		return nil, errors.New("DecoderOutputFile is a required configuration field and cannot be empty")
	}
	if _, err := grammar.ParseMode(string(cfg.GrammarFeatures)); err != nil {
		return nil, err
	}
	if cfg.Java == "" {
		cfg.Java = DefaultJava
	}

	return &cfg, nil
}
