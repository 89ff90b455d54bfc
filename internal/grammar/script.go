package grammar

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/vk/tunerun/internal/ctxlog"
)

// ScriptPath is the feature script's location below the Joshua root.
const ScriptPath = "scripts/training/get_grammar_features.pl"

// ScriptExtractor runs Joshua's get_grammar_features.pl and reads one
// feature identifier per output line.
type ScriptExtractor struct {
	JoshuaRoot string
	// Script overrides the script location; mostly for tests.
	Script string
}

func (s *ScriptExtractor) script() string {
	if s.Script != "" {
		return s.Script
	}
	return filepath.Join(s.JoshuaRoot, ScriptPath)
}

// ListFeatures implements Extractor.
func (s *ScriptExtractor) ListFeatures(ctx context.Context, path string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	script := s.script()
	logger.Debug("Listing grammar features.", "script", script, "grammar", path)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, script, path)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrapf(err, "%s %s: %s", script, path, msg)
		}
		return nil, errors.Wrapf(err, "%s %s", script, path)
	}

	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, errors.Wrapf(ErrNoFeatures, "%s", path)
	}
	return strings.Split(trimmed, "\n"), nil
}
