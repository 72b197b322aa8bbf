// ABOUTME: Package capture provides audio sources for the outbound stream
// ABOUTME: Stands in for a microphone with files, stdin or MP3 URLs
// Package capture reads recorded audio and replays it at real-time pace so
// it can be streamed to a live session as if it came from a microphone.
package capture
