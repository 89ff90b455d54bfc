package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/spf13/afero"
	"github.com/vk/tunerun/internal/app"
	"github.com/vk/tunerun/internal/grammar"
	"github.com/vk/tunerun/internal/runfile"
	"github.com/vk/tunerun/internal/tuner"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// args are the command-line flags. Pointer fields stay nil when the flag is
// absent so a run file can fill them in.
type args struct {
	Source            string  `arg:"positional" help:"source side of the tuning set"`
	Target            string  `arg:"positional" help:"reference translation file, or prefix of numbered files"`
	TuneDir           *string `arg:"-d,--tunedir" placeholder:"DIR" help:"directory for tuning files [default: SDFW]"`
	Tuner             *string `arg:"--tuner" placeholder:"NAME" help:"optimizer to run: zmert or pro [default: zmert]"`
	Decoder           *string `arg:"--decoder" placeholder:"FILE" help:"decoder command file [default: tune/decoder_command]"`
	DecoderConfig     *string `arg:"--decoder-config" placeholder:"FILE" help:"decoder configuration [default: tune/model/joshua.config]"`
	DecoderOutputFile *string `arg:"--decoder-output-file" placeholder:"FILE" help:"decoder n-best output [default: tune/output.nbest]"`
	DecoderLogFile    *string `arg:"--decoder-log-file" placeholder:"FILE" help:"decoder log [default: tune/joshua.log]"`
	Config            string  `arg:"--config" placeholder:"PATH" help:"HCL run file, or a directory of them"`
	GrammarFeatures   *string `arg:"--grammar-features" placeholder:"MODE" help:"grammar feature lookup: script, native or auto [default: script]"`
	Java              *string `arg:"--java" placeholder:"PATH" help:"java executable [default: java]"`
	LogFormat         string  `arg:"--log-format" default:"text" help:"log output format: text or json"`
	Verbose           bool    `arg:"-v,--verbose" help:"log debug messages"`
}

func (args) Description() string {
	return "Prepares a tune directory for the Joshua decoder and runs Z-MERT or PRO over it."
}

const example = `
Example:
  tunerun tune/input.src tune/ref.en --tunedir SDFW --tuner pro \
    --decoder tune/decoder_command --decoder-config tune/model/joshua.config
`

// writeHelp prints the full help followed by an example invocation.
func writeHelp(parser *arg.Parser, output io.Writer) {
	parser.WriteHelp(output)
	fmt.Fprint(output, example)
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an
// ExitError. joshuaRoot is the installation root resolved by the caller.
func Parse(argv []string, output io.Writer, joshuaRoot string) (*app.Config, bool, error) {
	return parse(argv, output, joshuaRoot, afero.NewOsFs())
}

func parse(argv []string, output io.Writer, joshuaRoot string, fs afero.Fs) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	var a args
	parser, err := arg.NewParser(arg.Config{Program: "tunerun"}, &a)
	if err != nil {
		// The args struct is static, so this is a programmer error.
		panic(fmt.Errorf("invalid argument definitions: %w", err))
	}

	if err := parser.Parse(argv); err != nil {
		if errors.Is(err, arg.ErrHelp) {
			writeHelp(parser, output)
			return nil, true, nil
		}
		return nil, false, usageError(parser, output, err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	file := &runfile.File{}
	if a.Config != "" {
		file, err = runfile.Load(fs, a.Config, joshuaRoot)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		slog.Debug("Run file loaded.", "path", a.Config)
	}

	source := pick(nilIfEmpty(a.Source), file.Source, "")
	target := pick(nilIfEmpty(a.Target), file.Target, "")
	if source == "" || target == "" {
		return nil, false, usageError(parser, output, "source and target are required")
	}

	tunerName := pick(a.Tuner, file.Tuner, tuner.ZMert.String())
	t, err := tuner.Parse(tunerName)
	if err != nil {
		return nil, false, usageError(parser, output, err.Error())
	}

	mode, err := grammar.ParseMode(pick(a.GrammarFeatures, file.GrammarFeatures, string(grammar.ModeScript)))
	if err != nil {
		return nil, false, usageError(parser, output, err.Error())
	}

	logFormat := strings.ToLower(a.LogFormat)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError(parser, output, "invalid log-format: must be 'text' or 'json'")
	}
	logLevel := "warn"
	if a.Verbose {
		logLevel = "debug"
	}

	config, err := app.NewConfig(app.Config{
		JoshuaRoot:        joshuaRoot,
		Source:            source,
		Target:            target,
		TuneDir:           pick(a.TuneDir, file.TuneDir, app.DefaultTuneDir),
		Tuner:             t,
		DecoderCommand:    pick(a.Decoder, file.DecoderField(func(d *runfile.Decoder) *string { return d.Command }), app.DefaultDecoderCommand),
		DecoderConfig:     pick(a.DecoderConfig, file.DecoderField(func(d *runfile.Decoder) *string { return d.Config }), app.DefaultDecoderConfig),
		DecoderOutputFile: pick(a.DecoderOutputFile, file.DecoderField(func(d *runfile.Decoder) *string { return d.OutputFile }), app.DefaultDecoderOutputFile),
		DecoderLogFile:    pick(a.DecoderLogFile, file.DecoderField(func(d *runfile.Decoder) *string { return d.LogFile }), app.DefaultDecoderLogFile),
		GrammarFeatures:   mode,
		Java:              pick(a.Java, file.Java, app.DefaultJava),
		LogFormat:         logFormat,
		LogLevel:          logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// pick applies flag > run file > default precedence.
func pick(flag, file *string, fallback string) string {
	if flag != nil {
		return *flag
	}
	return runfile.Get(file, fallback)
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func usageError(parser *arg.Parser, output io.Writer, msg string) *ExitError {
	writeHelp(parser, output)
	return &ExitError{Code: 2, Message: "error: " + msg}
}
