// Package signal provides offline helpers for rendered multichannel
// signals: peak measurement, normalization, interleaving and PCM
// quantization.
package signal
