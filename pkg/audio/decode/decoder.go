// ABOUTME: Decoder interface definition
// ABOUTME: Common interface and error type for wire audio decoders
package decode

import "fmt"

// Decoder decodes text-safe encoded audio chunks to normalized samples
type Decoder interface {
	// Decode converts one encoded chunk to float samples in [-1, 1)
	Decode(chunk string) ([]float32, error)

	// Close releases decoder resources
	Close() error
}

// Error reports a chunk that could not be decoded. The chunk should be
// dropped; the stream it came from is still usable.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %s: %v", e.Reason, e.Err)
	}
	return "decode: " + e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}
