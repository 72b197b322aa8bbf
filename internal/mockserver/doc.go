// ABOUTME: Package mockserver fakes the Gemini Live service for local runs
// ABOUTME: Used by integration tests and the live-mock command
// Package mockserver implements enough of the BidiGenerateContent protocol
// to exercise a live session without network access: it acknowledges
// setup, replies to streamed audio with a sine tone split into 24kHz PCM
// chunks, and can interrupt or drop connections on demand.
package mockserver
