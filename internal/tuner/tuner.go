// Package tuner describes the two optimizers a tuning run can use, Z-MERT
// and PRO, and the files each one reads and writes.
package tuner

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/vk/tunerun/internal/render"
)

var (
	//go:embed templates/zmert.config
	zmertTemplate string
	//go:embed templates/pro.config
	proTemplate string
	//go:embed templates/params.txt
	paramsTemplate string
)

// Fixed file names inside a tune directory.
const (
	DecoderConfigLink = "joshua.config"
	FinalConfigLink   = "joshua.config.final"
	ParamsFile        = "params.txt"
)

// Tuner selects an optimizer.
type Tuner int

const (
	ZMert Tuner = iota
	PRO
)

// Parse maps a --tuner value to a Tuner. Matching is case-insensitive.
func Parse(s string) (Tuner, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zmert", "":
		return ZMert, nil
	case "pro":
		return PRO, nil
	}
	return 0, fmt.Errorf("invalid tuner %q: must be 'zmert' or 'pro'", s)
}

func (t Tuner) String() string {
	if t == PRO {
		return "pro"
	}
	return "zmert"
}

// ConfigFile is the name of the rendered optimizer config.
func (t Tuner) ConfigFile() string {
	if t == PRO {
		return "pro.config"
	}
	return "mert.config"
}

// LogFile receives the optimizer's combined stdout and stderr.
func (t Tuner) LogFile() string {
	if t == PRO {
		return "pro.log"
	}
	return "mert.log"
}

// MainClass is the optimizer's Java entry point.
func (t Tuner) MainClass() string {
	if t == PRO {
		return "joshua.pro.PRO"
	}
	return "joshua.zmert.ZMERT"
}

// FinalConfig is the file the optimizer writes its tuned decoder config to.
// Both optimizers append their own tag to the -dcfg path they were given.
func (t Tuner) FinalConfig() string {
	if t == PRO {
		return DecoderConfigLink + ".PRO.final"
	}
	return DecoderConfigLink + ".ZMERT.final"
}

// Template returns the optimizer config template.
func (t Tuner) Template() *render.Template {
	if t == PRO {
		return render.Parse("pro.config", proTemplate)
	}
	return render.Parse("mert.config", zmertTemplate)
}

// ParamsTemplate returns the params.txt template.
func ParamsTemplate() *render.Template {
	return render.Parse(ParamsFile, paramsTemplate)
}

// ConfigValues fills an optimizer config template.
type ConfigValues struct {
	Ref            string `cty:"REF"`
	NumRefs        int    `cty:"NUMREFS"`
	TuneDir        string `cty:"TUNEDIR"`
	DecoderCommand string `cty:"DECODER_COMMAND"`
	DecoderConfig  string `cty:"DECODER_CONFIG"`
	DecoderOutput  string `cty:"DECODER_OUTPUT"`
}

// ParamsValues fills the params.txt template. Params holds one formatted
// parameter per line.
type ParamsValues struct {
	Params string `cty:"PARAMS"`
}
