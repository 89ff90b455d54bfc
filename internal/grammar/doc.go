// Package grammar lists the feature identifiers a translation grammar
// defines. Identifiers that are decimal numerals are dense feature slots;
// anything else is a sparse feature name.
//
// Packed grammars are handled by Joshua's get_grammar_features.pl script.
// Plain-text grammars can also be read natively; in both cases only the
// features on the first rule of a text grammar are reported.
package grammar
