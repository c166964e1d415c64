// Package design computes RBJ cookbook biquad coefficients for the filter
// units. Designs clamp out-of-range frequencies instead of failing, because
// they are re-evaluated on the audio thread whenever a modulated parameter
// changes.
package design
