// ABOUTME: Audio encoder package for outbound microphone audio
// ABOUTME: Provides the Encoder interface and the base64 PCM16 implementation
// Package encode is the mirror of package decode: it turns captured float
// samples into base64 PCM16 chunks ready for a realtime input envelope.
//
// Samples are clamped to [-1, 1] before scaling, so clipping input never
// wraps around.
//
// Example:
//
//	encoder, err := encode.NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 1, BitDepth: 16})
//	chunk := encoder.Encode(samples)
//	mime := encoder.MimeType() // audio/pcm;rate=48000
package encode
