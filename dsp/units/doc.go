// Package units provides the concrete node kinds of the audio graph:
// oscillators, sound file players, hardware inputs, filters, envelopes,
// delays and control sources.
//
// Every constructor takes an argument struct whose graph.Param fields
// broadcast against each other the way graph.Normalize describes: the node
// gets one slot per position of the longest sequence and shorter ones wrap.
// Empty fields take the documented defaults.
//
// A Registry maps kind names to factories so that patches can build units
// from untyped arguments.
package units
