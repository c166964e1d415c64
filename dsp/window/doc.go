// Package window generates the analysis and resynthesis windows used by the
// spectral frame engine, and computes the overlap-add gain a pairing of
// windows produces for a given overlap count.
package window
