package decoderconfig

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedTMDeclaration is returned for a `tm =` line that matches
	// neither the positional nor the keyed syntax.
	ErrMalformedTMDeclaration = errors.New("malformed tm declaration")

	// ErrGrammarFeatureLookup is returned when a grammar's features cannot
	// be listed.
	ErrGrammarFeatureLookup = errors.New("grammar feature lookup failed")
)

var (
	tmPrefix      = regexp.MustCompile(`^\s*tm\s*=\s*`)
	featurePrefix = regexp.MustCompile(`^\s*feature-function\s*=\s*`)
)

// TMDeclaration is a translation model line.
type TMDeclaration struct {
	Type    string
	Owner   string
	MaxSpan string
	Path    string
}

// FeatureFunction is a `feature-function =` line. LMIndex is the 0-based
// position among language models and -1 for everything else.
type FeatureFunction struct {
	Name    string
	LMIndex int
}

// IsLanguageModel reports whether the declaration is a language model.
func (f FeatureFunction) IsLanguageModel() bool {
	return f.LMIndex >= 0
}

// IsTMLine reports whether line declares a translation model.
func IsTMLine(line string) bool {
	return tmPrefix.MatchString(line)
}

// IsFeatureFunctionLine reports whether line declares a feature function.
func IsFeatureFunctionLine(line string) bool {
	return featurePrefix.MatchString(line)
}

// ParseTMLine parses either TM syntax. In the keyed form keys may come in
// any order and any subset may be present; unknown keys are ignored.
func ParseTMLine(line string) (TMDeclaration, error) {
	if !IsTMLine(line) {
		return TMDeclaration{}, errors.Wrapf(ErrMalformedTMDeclaration, "not a tm line: %q", line)
	}
	fields := strings.Fields(tmPrefix.ReplaceAllString(line, ""))
	if len(fields) == 0 {
		return TMDeclaration{}, errors.Wrapf(ErrMalformedTMDeclaration, "empty tm line")
	}

	if len(fields) > 1 && strings.HasPrefix(fields[1], "-") {
		return parseKeyed(fields)
	}
	if len(fields) != 4 {
		return TMDeclaration{}, errors.Wrapf(ErrMalformedTMDeclaration,
			"expected 'tm = type owner maxspan path', got %d fields in %q", len(fields), strings.TrimSpace(line))
	}
	return TMDeclaration{Type: fields[0], Owner: fields[1], MaxSpan: fields[2], Path: fields[3]}, nil
}

func parseKeyed(fields []string) (TMDeclaration, error) {
	tm := TMDeclaration{Type: fields[0]}
	rest := fields[1:]
	if len(rest)%2 != 0 {
		return TMDeclaration{}, errors.Wrapf(ErrMalformedTMDeclaration, "unpaired key in %q", strings.Join(fields, " "))
	}
	for i := 0; i < len(rest); i += 2 {
		key, value := rest[i], rest[i+1]
		if !strings.HasPrefix(key, "-") {
			return TMDeclaration{}, errors.Wrapf(ErrMalformedTMDeclaration, "expected a -key, got %q", key)
		}
		switch key {
		case "-owner":
			tm.Owner = value
		case "-maxspan":
			tm.MaxSpan = value
		case "-path":
			tm.Path = value
		}
	}
	return tm, nil
}

// ParseFeatureFunctionLine parses a feature-function line. lmIndex is the
// index to assign if the line turns out to be a language model; any line
// mentioning LanguageModel counts as one.
func ParseFeatureFunctionLine(line string, lmIndex int) (FeatureFunction, bool) {
	if !IsFeatureFunctionLine(line) {
		return FeatureFunction{}, false
	}
	fields := strings.Fields(featurePrefix.ReplaceAllString(line, ""))
	if len(fields) == 0 {
		return FeatureFunction{}, false
	}
	ff := FeatureFunction{Name: fields[0], LMIndex: -1}
	if strings.Contains(line, "LanguageModel") {
		ff.LMIndex = lmIndex
	}
	return ff, true
}
