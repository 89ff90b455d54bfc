package grammar

import (
	"bufio"
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/vk/tunerun/internal/ctxlog"
)

// fieldDelimiter separates the fields of a Hiero/Thrax rule:
//
//	[X] ||| source ||| target ||| features [||| alignment]
var fieldDelimiter = regexp.MustCompile(`\s\|{3}\s`)

// maxRuleLength bounds a single grammar line.
const maxRuleLength = 16 << 20

// TextExtractor reads the first rule of a plain-text (optionally gzipped)
// Hiero or Thrax grammar. Labeled features `name=value` are reported by
// name; unlabeled values get sequential dense ids starting at 0.
type TextExtractor struct {
	Fs afero.Fs
}

// ListFeatures implements Extractor.
func (t *TextExtractor) ListFeatures(ctx context.Context, path string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	f, err := t.Fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open grammar")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot decompress grammar %s", path)
		}
		defer zr.Close()
		r = zr
	}

	line, err := firstRule(r)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read grammar %s", path)
	}
	features, err := RuleFeatures(line)
	if err != nil {
		return nil, errors.Wrapf(err, "grammar %s", path)
	}
	if len(features) == 0 {
		return nil, errors.Wrapf(ErrNoFeatures, "%s", path)
	}

	logger.Debug("Read grammar features from first rule.", "grammar", path, "count", len(features))
	return features, nil
}

func firstRule(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRuleLength)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", ErrNoFeatures
}

// RuleFeatures returns the feature identifiers of one grammar rule.
func RuleFeatures(rule string) ([]string, error) {
	fields := fieldDelimiter.Split(rule, -1)
	if len(fields) < 3 {
		return nil, errors.Errorf("rule %q does not have at least three fields", rule)
	}
	if len(fields) == 3 {
		return nil, nil
	}

	var features []string
	dense := 0
	for _, tok := range strings.Fields(fields[3]) {
		if name, _, labeled := strings.Cut(tok, "="); labeled {
			features = append(features, name)
			continue
		}
		features = append(features, strconv.Itoa(dense))
		dense++
	}
	return features, nil
}
