// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for outbound audio encoders
package encode

// Encoder encodes captured float samples into text-safe wire chunks
type Encoder interface {
	// Encode converts samples to one encoded chunk
	Encode(samples []float32) string

	// MimeType tags the chunks this encoder produces
	MimeType() string

	// Close releases encoder resources
	Close() error
}
