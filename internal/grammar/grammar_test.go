package grammar

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestRuleFeatures(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		rule    string
		want    []string
		wantErr bool
	}{
		{
			name: "unlabeled dense features",
			rule: "[X] ||| el gato ||| the cat ||| 0.5 -1.2 3",
			want: []string{"0", "1", "2"},
		},
		{
			name: "labeled sparse features",
			rule: "[X] ||| a ||| b ||| PhrasePenalty=1 Lex(e|f)=0.2",
			want: []string{"PhrasePenalty", "Lex(e|f)"},
		},
		{
			name: "mixed labeled and unlabeled with alignment",
			rule: "[X] ||| [X,1] a ||| [X,1] b ||| 0.1 Glue=1 0.7 ||| 0-0 1-1",
			want: []string{"0", "Glue", "1"},
		},
		{
			name: "no feature field",
			rule: "[X] ||| a ||| b",
			want: nil,
		},
		{
			name:    "too few fields",
			rule:    "[X] ||| a",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := RuleFeatures(tc.rule)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestTextExtractor_FirstRuleOnly(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	fs := afero.NewMemMapFs()
	grammar := "\n[X] ||| a ||| b ||| 0.1 0.2\n[X] ||| c ||| d ||| 0.1 0.2 0.3 Extra=1\n"
	require.NoError(t, afero.WriteFile(fs, "/g/grammar", []byte(grammar), 0o644))

	// --- Act ---
	got, err := (&TextExtractor{Fs: fs}).ListFeatures(context.Background(), "/g/grammar")

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, []string{"0", "1"}, got)
}

func TestTextExtractor_Gzip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("[X] ||| a ||| b ||| 1 2 3 OOV=1\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/g/grammar.gz", buf.Bytes(), 0o644))

	got, err := (&TextExtractor{Fs: fs}).ListFeatures(context.Background(), "/g/grammar.gz")
	require.NoError(t, err)
	require.Equal(t, []string{"0", "1", "2", "OOV"}, got)
}

func TestTextExtractor_Failures(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/empty", []byte("\n\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/nofeatures", []byte("[X] ||| a ||| b\n"), 0o644))
	ext := &TextExtractor{Fs: fs}

	_, err := ext.ListFeatures(context.Background(), "/empty")
	require.ErrorIs(t, err, ErrNoFeatures)

	_, err = ext.ListFeatures(context.Background(), "/nofeatures")
	require.ErrorIs(t, err, ErrNoFeatures)

	_, err = ext.ListFeatures(context.Background(), "/missing")
	require.Error(t, err)
}

// writeScript creates an executable shell script. Tests that exec freshly
// written files do not run in parallel, to avoid ETXTBSY from forks that
// inherit the still-open write descriptor.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "get_grammar_features.pl")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestScriptExtractor(t *testing.T) {
	script := writeScript(t, "echo 0\necho 1\necho \"grammar=$1\"\n")
	ext := &ScriptExtractor{Script: script}

	got, err := ext.ListFeatures(context.Background(), "/some/grammar")
	require.NoError(t, err)
	require.Equal(t, []string{"0", "1", "grammar=/some/grammar"}, got)
}

func TestScriptExtractor_EmptyOutput(t *testing.T) {
	ext := &ScriptExtractor{Script: writeScript(t, "exit 0\n")}
	_, err := ext.ListFeatures(context.Background(), "/g")
	require.ErrorIs(t, err, ErrNoFeatures)
}

func TestScriptExtractor_FailureCarriesStderr(t *testing.T) {
	ext := &ScriptExtractor{Script: writeScript(t, "echo 'no such grammar' >&2\nexit 3\n")}
	_, err := ext.ListFeatures(context.Background(), "/g")
	require.ErrorContains(t, err, "no such grammar")
}

func TestScriptExtractor_DefaultLocation(t *testing.T) {
	t.Parallel()

	ext := &ScriptExtractor{JoshuaRoot: "/opt/joshua"}
	require.Equal(t, "/opt/joshua/scripts/training/get_grammar_features.pl", ext.script())
}

func TestAutoExtractor(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/g/packed", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/g/text", []byte("x"), 0o644))

	packed := ExtractorFunc(func(context.Context, string) ([]string, error) { return []string{"packed"}, nil })
	text := ExtractorFunc(func(context.Context, string) ([]string, error) { return []string{"text"}, nil })
	auto := &AutoExtractor{Fs: fs, Packed: packed, Text: text}

	// --- Act & Assert ---
	got, err := auto.ListFeatures(context.Background(), "/g/packed")
	require.NoError(t, err)
	require.Equal(t, []string{"packed"}, got)

	got, err = auto.ListFeatures(context.Background(), "/g/text")
	require.NoError(t, err)
	require.Equal(t, []string{"text"}, got)
}

func TestParseModeAndNew(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Mode{"": ModeScript, "Script": ModeScript, "native": ModeNative, " auto ": ModeAuto} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseMode("perl")
	require.Error(t, err)

	fs := afero.NewMemMapFs()
	ext, err := New(ModeNative, "/opt/joshua", fs)
	require.NoError(t, err)
	require.IsType(t, &TextExtractor{}, ext)

	ext, err = New(ModeAuto, "/opt/joshua", fs)
	require.NoError(t, err)
	require.IsType(t, &AutoExtractor{}, ext)

	ext, err = New(ModeScript, "/opt/joshua", fs)
	require.NoError(t, err)
	require.IsType(t, &ScriptExtractor{}, ext)
}
