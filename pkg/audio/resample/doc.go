// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts mono audio between different sample rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates.
// Handles both upsampling and downsampling, and keeps state between
// calls so chunked input resamples the same as one contiguous buffer.
//
// Example:
//
//	r := resample.New(16000, 48000)
//	out := r.Resample(chunk)
package resample
