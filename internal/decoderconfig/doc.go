// Package decoderconfig reads a Joshua decoder configuration and derives
// the initial tunable weights for the optimizer.
//
// Only two kinds of lines matter:
//
//	tm = <type> <owner> <maxspan> <path>
//	tm = <type> -owner <owner> -path <path> -maxspan <maxspan>
//	feature-function = <Name> [args...]
//
// Everything else passes through unexamined. Weights are emitted in the
// order their declarations appear in the file.
package decoderconfig
