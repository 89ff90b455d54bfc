// Package reference works out how many parallel reference translations a
// tuning target provides.
//
// A target is either a single file or a numbered family sharing a prefix:
// `ref.0, ref.1, ...` or `ref0, ref1, ...`. The dotted convention is tried
// first. Counting stops at the first gap.
package reference

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/afero"
)

// ErrNoReferences is returned by Require when nothing exists at the prefix.
var ErrNoReferences = errors.New("no reference files found")

// separators lists the numbering conventions in probe order.
var separators = []string{".", ""}

// Set describes a resolved reference set.
type Set struct {
	Prefix    string
	Separator string
	Count     int
	Numbered  bool
}

// Files returns the paths that make up the set.
func (s Set) Files() []string {
	if !s.Numbered {
		if s.Count == 0 {
			return nil
		}
		return []string{s.Prefix}
	}
	files := make([]string, s.Count)
	for i := range files {
		files[i] = s.numbered(i)
	}
	return files
}

func (s Set) numbered(i int) string {
	return s.Prefix + s.Separator + strconv.Itoa(i)
}

// Resolve probes fs for the reference files behind prefix. A set with Count
// zero means nothing was found; that is not an error here.
func Resolve(fs afero.Fs, prefix string) (Set, error) {
	for _, sep := range separators {
		set := Set{Prefix: prefix, Separator: sep, Numbered: true}
		ok, err := afero.Exists(fs, set.numbered(0))
		if err != nil {
			return Set{}, fmt.Errorf("failed to probe %s: %w", set.numbered(0), err)
		}
		if !ok {
			continue
		}
		for {
			ok, err := afero.Exists(fs, set.numbered(set.Count))
			if err != nil {
				return Set{}, fmt.Errorf("failed to probe %s: %w", set.numbered(set.Count), err)
			}
			if !ok {
				return set, nil
			}
			set.Count++
		}
	}

	ok, err := afero.Exists(fs, prefix)
	if err != nil {
		return Set{}, fmt.Errorf("failed to probe %s: %w", prefix, err)
	}
	if ok {
		return Set{Prefix: prefix, Count: 1}, nil
	}
	return Set{Prefix: prefix}, nil
}

// Count returns the number of references behind prefix: the length of the
// numbered family, 1 for a plain file, or 0 when nothing exists.
func Count(fs afero.Fs, prefix string) (int, error) {
	set, err := Resolve(fs, prefix)
	if err != nil {
		return 0, err
	}
	return set.Count, nil
}

// Require is Resolve for callers that cannot tune without references.
func Require(fs afero.Fs, prefix string) (Set, error) {
	set, err := Resolve(fs, prefix)
	if err != nil {
		return Set{}, err
	}
	if set.Count == 0 {
		return Set{}, fmt.Errorf("%s: %w", prefix, ErrNoReferences)
	}
	return set, nil
}
