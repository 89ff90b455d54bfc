// Package params models the tunable weights handed to the optimizer and
// their line format in params.txt:
//
//	name ||| value Opt|Fix lower upper min_step max_step
package params

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Optimizability says whether the optimizer may move a weight.
type Optimizability int

const (
	Fixed Optimizability = iota
	Optimizable
)

func (o Optimizability) String() string {
	if o == Optimizable {
		return "Opt"
	}
	return "Fix"
}

// Parameter is one line of the optimizer's parameter file.
type Parameter struct {
	Name           string
	Value          float64
	Optimizability Optimizability
	Lower          float64
	Upper          float64
	MinStep        float64
	MaxStep        float64
}

// Weight returns an unbounded optimizable weight with unit steps.
func Weight(name string, initial float64) Parameter {
	return Parameter{
		Name:           name,
		Value:          initial,
		Optimizability: Optimizable,
		Lower:          math.Inf(-1),
		Upper:          math.Inf(1),
		MinStep:        -1,
		MaxStep:        1,
	}
}

// LanguageModel returns the weight for the index-th language model. LM
// weights are kept positive.
func LanguageModel(index int) Parameter {
	return Parameter{
		Name:           fmt.Sprintf("lm_%d", index),
		Value:          1,
		Optimizability: Optimizable,
		Lower:          0.1,
		Upper:          math.Inf(1),
		MinStep:        0.5,
		MaxStep:        1.5,
	}
}

// String formats p as a params.txt line.
func (p Parameter) String() string {
	return fmt.Sprintf("%s ||| %s %s %s %s %s %s",
		p.Name,
		formatValue(p.Value),
		p.Optimizability,
		formatBound(p.Lower),
		formatBound(p.Upper),
		formatStep(p.MinStep),
		formatStep(p.MaxStep),
	)
}

// List keeps parameters in the order they were declared. Some optimizer
// back ends depend on that order.
type List []Parameter

// Names returns the parameter names in order.
func (l List) Names() []string {
	names := make([]string, len(l))
	for i, p := range l {
		names[i] = p.Name
	}
	return names
}

// String formats the list one parameter per line, without a trailing
// newline.
func (l List) String() string {
	lines := make([]string, len(l))
	for i, p := range l {
		lines[i] = p.String()
	}
	return strings.Join(lines, "\n")
}

// formatValue always shows a fractional part: 1 -> "1.0".
func formatValue(v float64) string {
	if !math.IsInf(v, 0) && v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return formatBound(v)
}

func formatBound(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatStep always carries a sign: 1 -> "+1", -1 -> "-1".
func formatStep(v float64) string {
	s := formatBound(v)
	if v >= 0 && !math.IsInf(v, 0) {
		return "+" + s
	}
	return s
}
