package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/tunerun/internal/grammar"
	"github.com/vk/tunerun/internal/optimizer"
	"github.com/vk/tunerun/internal/tuner"
)

// fixture is a scratch workspace holding a decoder config, its grammars, a
// reference set and a stand-in JVM.
type fixture struct {
	root    string
	cfg     Config
	logs    *bytes.Buffer
	grammar map[string][]string
}

// fakeJavaScript stands in for the JVM. It copies the tune directory's
// decoder config to the final artifact the named optimizer would write.
// $4 is the main class and $7 the optimizer config.
const fakeJavaScript = `#!/bin/sh
dir=$(dirname "$7")
case "$4" in
  joshua.zmert.ZMERT) tag=ZMERT ;;
  joshua.pro.PRO) tag=PRO ;;
  *) echo "unknown main class $4" >&2; exit 3 ;;
esac
echo "tuning with $tag"
echo "args: $*"
cp "$dir/joshua.config" "$dir/joshua.config.$tag.final"
`

const decoderConfigText = `# test model
lm = kenlm 5 false false 100 lm.gz
tm = thrax pt 12 grammar.packed
tm = thrax -owner glue -maxspan -1 -path glue.grammar
feature-function = WordPenalty
feature-function = LanguageModel -lm_type kenlm -lm_order 5 -lm_file lm.gz
feature-function = PhrasePenalty -owner pt
`

// newFixture lays out the workspace. Tests using it are not parallel:
// exec of a freshly written script can fail with ETXTBSY when another
// goroutine forks at the same moment.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "model", "joshua.config"), decoderConfigText, 0o644)
	writeFile(t, filepath.Join(root, "ref.en.0"), "a\n", 0o644)
	writeFile(t, filepath.Join(root, "ref.en.1"), "b\n", 0o644)
	writeFile(t, filepath.Join(root, "bin", "java"), fakeJavaScript, 0o755)

	f := &fixture{
		root: root,
		logs: &bytes.Buffer{},
		grammar: map[string][]string{
			filepath.Join(root, "model", "grammar.packed"): {"0", "1"},
			filepath.Join(root, "model", "glue.grammar"):   {"0"},
		},
	}
	f.cfg = Config{
		JoshuaRoot:        filepath.Join(root, "joshua"),
		Source:            filepath.Join(root, "input.src"),
		Target:            filepath.Join(root, "ref.en"),
		TuneDir:           filepath.Join(root, "tune"),
		Tuner:             tuner.ZMert,
		DecoderCommand:    filepath.Join(root, "decoder_command"),
		DecoderConfig:     filepath.Join(root, "model", "joshua.config"),
		DecoderOutputFile: filepath.Join(root, "output.nbest"),
		DecoderLogFile:    filepath.Join(root, "joshua.log"),
		Java:              filepath.Join(root, "bin", "java"),
		LogLevel:          "debug",
	}
	return f
}

func (f *fixture) newApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	cfg, err := NewConfig(f.cfg)
	require.NoError(t, err)

	extractor := grammar.ExtractorFunc(func(_ context.Context, path string) ([]string, error) {
		ids, ok := f.grammar[path]
		if !ok {
			return nil, grammar.ErrNoFeatures
		}
		return ids, nil
	})
	opts = append([]Option{WithExtractor(extractor)}, opts...)
	return NewApp(f.logs, cfg, opts...)
}

func (f *fixture) run(t *testing.T, opts ...Option) (*optimizer.Result, error) {
	t.Helper()
	return f.newApp(t, opts...).Run(context.Background())
}

func (f *fixture) tunePath(name string) string {
	return filepath.Join(f.cfg.TuneDir, name)
}

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}
