// ABOUTME: Playback pipeline package
// ABOUTME: Frame assembly and lookahead scheduling against an audio clock
// Package player turns a stream of encoded speech chunks into gapless
// playback.
//
// Decoded samples are re-chunked by an Assembler into fixed frames. A
// Scheduler binds each frame to the output device clock just ahead of real
// time, polling its queue on a repeating timer. Stream wires the two
// together behind a single AddChunk call.
//
// Example:
//
//	stream, err := player.NewStream(out, lp, player.StreamConfig{})
//	if err := stream.AddChunk(data); err != nil {
//	    log.Printf("Decode error: %v", err)
//	}
package player
