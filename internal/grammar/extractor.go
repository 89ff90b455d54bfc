package grammar

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ErrNoFeatures is returned when a grammar yields no feature identifiers.
var ErrNoFeatures = errors.New("grammar lists no features")

// Extractor lists the feature identifiers of the grammar at path.
type Extractor interface {
	ListFeatures(ctx context.Context, path string) ([]string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, path string) ([]string, error)

// ListFeatures calls f.
func (f ExtractorFunc) ListFeatures(ctx context.Context, path string) ([]string, error) {
	return f(ctx, path)
}

// Mode selects an Extractor implementation.
type Mode string

const (
	ModeScript Mode = "script"
	ModeNative Mode = "native"
	ModeAuto   Mode = "auto"
)

// ParseMode validates a mode name. The empty string selects ModeScript.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeScript, nil
	case ModeScript, ModeNative, ModeAuto:
		return m, nil
	}
	return "", fmt.Errorf("invalid grammar feature mode %q: must be 'script', 'native' or 'auto'", s)
}

// New builds the extractor for mode. joshuaRoot locates the feature script.
func New(mode Mode, joshuaRoot string, fs afero.Fs) (Extractor, error) {
	script := &ScriptExtractor{JoshuaRoot: joshuaRoot}
	text := &TextExtractor{Fs: fs}
	switch mode {
	case ModeScript, "":
		return script, nil
	case ModeNative:
		return text, nil
	case ModeAuto:
		return &AutoExtractor{Fs: fs, Packed: script, Text: text}, nil
	}
	return nil, fmt.Errorf("unknown grammar feature mode %q", mode)
}

// AutoExtractor sends packed grammars (directories) to Packed and plain
// files to Text.
type AutoExtractor struct {
	Fs     afero.Fs
	Packed Extractor
	Text   Extractor
}

// ListFeatures implements Extractor.
func (a *AutoExtractor) ListFeatures(ctx context.Context, path string) ([]string, error) {
	isDir, err := afero.IsDir(a.Fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot inspect grammar %s", path)
	}
	if isDir {
		return a.Packed.ListFeatures(ctx, path)
	}
	return a.Text.ListFeatures(ctx, path)
}
