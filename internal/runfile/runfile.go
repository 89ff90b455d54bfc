// Package runfile loads an optional HCL description of a tuning run. Any
// attribute may be omitted; command-line flags take precedence over the
// file and the file over built-in defaults.
//
//	source  = "tune/input.src"
//	target  = "tune/ref.en"
//	tunedir = "work"
//	tuner   = "pro"
//	decoder {
//	  command     = "${joshua_root}/bin/decoder"
//	  config      = "tune/model/joshua.config"
//	  output_file = "tune/output.nbest"
//	}
//
// The variable joshua_root holds the installation root.
package runfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"github.com/vk/tunerun/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// File is the decoded run description. Nil fields were not set.
type File struct {
	Source          *string  `hcl:"source,optional"`
	Target          *string  `hcl:"target,optional"`
	TuneDir         *string  `hcl:"tunedir,optional"`
	Tuner           *string  `hcl:"tuner,optional"`
	GrammarFeatures *string  `hcl:"grammar_features,optional"`
	Java            *string  `hcl:"java,optional"`
	Decoder         *Decoder `hcl:"decoder,block"`
}

// Decoder groups the decoder settings.
type Decoder struct {
	Command    *string `hcl:"command,optional"`
	Config     *string `hcl:"config,optional"`
	OutputFile *string `hcl:"output_file,optional"`
	LogFile    *string `hcl:"log_file,optional"`
}

// Load reads path, which may be a single .hcl file or a directory whose
// .hcl files are merged. Setting the same attribute in two files is an
// error.
func Load(fs afero.Fs, path, joshuaRoot string) (*File, error) {
	files, err := fsutil.FindFilesByExtension(fs, path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find run files in %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl run files found at %s", path)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"joshua_root": cty.StringVal(joshuaRoot),
		},
	}

	parser := hclparse.NewParser()
	merged := &File{}
	for _, name := range files {
		src, err := afero.ReadFile(fs, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read run file %s: %w", name, err)
		}
		hclFile, diags := parser.ParseHCL(src, name)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse run file %s: %w", name, diags)
		}

		var f File
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &f); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode run file %s: %w", name, diags)
		}
		if err := merged.merge(&f, name); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

type field struct {
	name     string
	dst, src **string
}

func (f *File) merge(other *File, from string) error {
	fields := []field{
		{"source", &f.Source, &other.Source},
		{"target", &f.Target, &other.Target},
		{"tunedir", &f.TuneDir, &other.TuneDir},
		{"tuner", &f.Tuner, &other.Tuner},
		{"grammar_features", &f.GrammarFeatures, &other.GrammarFeatures},
		{"java", &f.Java, &other.Java},
	}
	if other.Decoder != nil {
		if f.Decoder == nil {
			f.Decoder = &Decoder{}
		}
		fields = append(fields,
			field{"decoder.command", &f.Decoder.Command, &other.Decoder.Command},
			field{"decoder.config", &f.Decoder.Config, &other.Decoder.Config},
			field{"decoder.output_file", &f.Decoder.OutputFile, &other.Decoder.OutputFile},
			field{"decoder.log_file", &f.Decoder.LogFile, &other.Decoder.LogFile},
		)
	}

	for _, fl := range fields {
		if *fl.src == nil {
			continue
		}
		if *fl.dst != nil {
			return fmt.Errorf("%s is set more than once (again in %s)", fl.name, from)
		}
		*fl.dst = *fl.src
	}
	return nil
}

// Get returns *p, or fallback when p is nil.
func Get(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

// DecoderField returns a decoder attribute selected by pick, or nil when
// the file has no decoder block.
func (f *File) DecoderField(pick func(*Decoder) *string) *string {
	if f == nil || f.Decoder == nil {
		return nil
	}
	return pick(f.Decoder)
}
