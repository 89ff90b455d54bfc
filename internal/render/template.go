package render

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

// placeholderPattern matches `<NAME>`; the shortest match wins, so two
// placeholders on one line are found separately.
var placeholderPattern = regexp.MustCompile(`<(.*?)>`)

// Template is a parsed line-oriented text template.
type Template struct {
	name         string
	lines        []string
	placeholders []string
}

// Parse splits text into lines and records the placeholders it uses, in
// order of first appearance. Parsing never fails; unknown placeholders are
// only detected when values are supplied.
func Parse(name, text string) *Template {
	t := &Template{name: name, lines: strings.Split(text, "\n")}
	seen := make(map[string]bool)
	for _, line := range t.lines {
		for _, m := range placeholderPattern.FindAllStringSubmatch(line, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				t.placeholders = append(t.placeholders, m[1])
			}
		}
	}
	return t
}

// Name returns the name given to Parse.
func (t *Template) Name() string { return t.name }

// Placeholders returns the placeholder names in order of first appearance.
func (t *Template) Placeholders() []string {
	return append([]string(nil), t.placeholders...)
}

// Validate checks that values supply exactly the template's placeholders:
// a missing key yields a *MissingKeyError, an extra key an error wrapping
// ErrUnexpectedSubstitutionKey.
func (t *Template) Validate(values any) error {
	vals, err := toValueMap(values)
	if err != nil {
		return err
	}
	for _, key := range t.placeholders {
		if _, ok := vals[key]; !ok {
			return &MissingKeyError{Template: t.name, Key: key}
		}
	}

	used := make(map[string]bool, len(t.placeholders))
	for _, key := range t.placeholders {
		used[key] = true
	}
	var extra []string
	for key := range vals {
		if !used[key] {
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return fmt.Errorf("template %q does not use %s: %w", t.name, strings.Join(extra, ", "), ErrUnexpectedSubstitutionKey)
	}
	return nil
}

// Execute renders the template into w. Every line, including the last,
// is terminated by a newline. Nothing is written if any placeholder
// cannot be filled.
func (t *Template) Execute(w io.Writer, values any) error {
	vals, err := toValueMap(values)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for i, line := range t.lines {
		rendered, err := t.renderLine(line, i+1, vals)
		if err != nil {
			return err
		}
		buf.WriteString(rendered)
		buf.WriteByte('\n')
	}

	_, err = w.Write(buf.Bytes())
	return err
}

// RenderFile renders the template to path on fs, replacing any existing
// file.
func (t *Template) RenderFile(fs afero.Fs, path string, values any) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, values); err != nil {
		return err
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Render parses text and writes it to outputPath with values substituted.
func Render(fs afero.Fs, text, outputPath string, values any) error {
	return Parse(outputPath, text).RenderFile(fs, outputPath, values)
}

func (t *Template) renderLine(line string, lineNo int, vals map[string]cty.Value) (string, error) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return line, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		key := line[m[2]:m[3]]
		v, ok := vals[key]
		if !ok {
			return "", &MissingKeyError{Template: t.name, Key: key, Line: lineNo}
		}
		s, err := stringify(v)
		if err != nil {
			return "", fmt.Errorf("template %q line %d: <%s>: %w", t.name, lineNo, key, err)
		}
		b.WriteString(line[last:m[0]])
		b.WriteString(s)
		last = m[1]
	}
	b.WriteString(line[last:])
	return b.String(), nil
}
