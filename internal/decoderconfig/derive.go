package decoderconfig

import (
	"bufio"
	"context"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/vk/tunerun/internal/ctxlog"
	"github.com/vk/tunerun/internal/grammar"
	"github.com/vk/tunerun/internal/params"
)

// tunableFeatures are the non-LM feature functions that carry a weight.
var tunableFeatures = map[string]bool{
	"SourcePath":    true,
	"PhrasePenalty": true,
	"Distortion":    true,
}

var denseID = regexp.MustCompile(`^\d+$`)

// Declaration is one relevant line of a decoder config. Exactly one of TM
// and Feature is set.
type Declaration struct {
	Line    int
	TM      *TMDeclaration
	Feature *FeatureFunction
}

// Parse reads the decoder config at path and returns its TM and feature
// function declarations in file order. Relative grammar paths are resolved
// against the directory holding the config, never the working directory.
func Parse(fs afero.Fs, path string) ([]Declaration, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open decoder config")
	}
	defer f.Close()

	configDir := filepath.Dir(path)
	var decls []Declaration
	lmIndex := 0
	lineNo := 0

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		switch {
		case IsTMLine(line):
			tm, err := ParseTMLine(line)
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d", path, lineNo)
			}
			if tm.Path == "" {
				return nil, errors.Wrapf(ErrMalformedTMDeclaration, "%s:%d: tm declaration has no grammar path", path, lineNo)
			}
			tm.Path, err = resolve(configDir, tm.Path)
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d", path, lineNo)
			}
			decls = append(decls, Declaration{Line: lineNo, TM: &tm})

		case IsFeatureFunctionLine(line):
			ff, ok := ParseFeatureFunctionLine(line, lmIndex)
			if !ok {
				continue
			}
			if ff.IsLanguageModel() {
				lmIndex++
			}
			decls = append(decls, Declaration{Line: lineNo, Feature: &ff})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "cannot read decoder config %s", path)
	}
	return decls, nil
}

func resolve(configDir, grammarPath string) (string, error) {
	if filepath.IsAbs(grammarPath) {
		return grammarPath, nil
	}
	return filepath.Abs(filepath.Join(configDir, grammarPath))
}

// DeriveParameters parses the decoder config at path and builds the
// ordered list of initial weights:
//
//   - each dense grammar feature N of a TM owned by O becomes tm_O_N (1.0)
//   - each named grammar feature becomes a weight of that name (0.0)
//   - the i-th language model becomes lm_i (1.0, bounded below by 0.1)
//   - SourcePath, PhrasePenalty and Distortion get a weight (1.0)
//
// Other feature functions contribute nothing.
func DeriveParameters(ctx context.Context, fs afero.Fs, path string, extractor grammar.Extractor) (params.List, error) {
	logger := ctxlog.FromContext(ctx)

	decls, err := Parse(fs, path)
	if err != nil {
		return nil, err
	}

	var list params.List
	for _, d := range decls {
		switch {
		case d.TM != nil:
			features, err := extractor.ListFeatures(ctx, d.TM.Path)
			if err != nil {
				return nil, errors.Wrapf(ErrGrammarFeatureLookup, "%s:%d: %s: %v", path, d.Line, d.TM.Path, err)
			}
			if len(features) == 0 {
				return nil, errors.Wrapf(ErrGrammarFeatureLookup, "%s:%d: %s: no features", path, d.Line, d.TM.Path)
			}
			logger.Debug("Grammar features listed.", "owner", d.TM.Owner, "grammar", d.TM.Path, "features", len(features))
			for _, feat := range features {
				if denseID.MatchString(feat) {
					list = append(list, params.Weight("tm_"+d.TM.Owner+"_"+feat, 1))
				} else {
					list = append(list, params.Weight(feat, 0))
				}
			}

		case d.Feature.IsLanguageModel():
			list = append(list, params.LanguageModel(d.Feature.LMIndex))

		case tunableFeatures[d.Feature.Name]:
			list = append(list, params.Weight(d.Feature.Name, 1))

		default:
			logger.Debug("Feature function has no tunable weight.", "name", d.Feature.Name, "line", d.Line)
		}
	}
	return list, nil
}
