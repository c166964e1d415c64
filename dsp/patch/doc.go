// Package patch loads declarative YAML descriptions of an audio graph and
// builds them into an engine.
//
// A patch lists nodes by id. Parameters are numbers, lists or references
// to earlier nodes: "osc" names a whole node, "fft.real" one of its views
// and "osc.1" a single slot. Nodes are built in dependency order, so they
// may be listed in any order as long as the references form no cycle.
//
//	sampleRate: 48000
//	duration: 2
//	nodes:
//	  - id: osc
//	    kind: sine
//	    params: {freq: [220, 330], mul: 0.2}
//	  - id: lp
//	    kind: biquad
//	    params: {input: osc, freq: 800}
//	    options: {type: lowpass}
//	    out: [0]
package patch
