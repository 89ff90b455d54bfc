// Package render fills `<NAME>` placeholders in line-oriented text
// templates and writes the result to disk.
//
// Substitution values are given either as a map or as a struct whose fields
// carry `cty:"NAME"` tags. Both forms are converted to a cty object, and
// every value is stringified through cty's string conversion. A placeholder
// without a value is always an error; there is no default and no silent
// blank. Literal angle brackets cannot be escaped.
package render
