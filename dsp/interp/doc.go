// Package interp provides fractional-position readers for sample tables
// and delay lines.
//
// [Mode] selects the algorithm: truncation, 2-point linear or 4-point cubic
// Hermite. [Table] reads a table at a fractional index with wraparound.
package interp
