// Package biquad implements the second-order IIR section used by the filter
// units of the graph runtime. Sections are mono, stateful, and not
// thread-safe; each stream slot owns its own Section.
package biquad
