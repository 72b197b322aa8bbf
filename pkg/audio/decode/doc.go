// ABOUTME: Audio decoder package for inbound speech
// ABOUTME: Provides the Decoder interface and the base64 PCM16 implementation
// Package decode turns the encoded audio chunks received from the voice
// service into normalized float samples.
//
// Chunks are standard base64 text wrapping little-endian signed 16-bit PCM.
// Every sample s becomes s / 32768.
//
// A malformed chunk yields an *Error; callers log it and drop the chunk.
//
// Example:
//
//	decoder, err := decode.NewPCM(format)
//	samples, err := decoder.Decode(part.InlineData.Data)
package decode
