// ABOUTME: Version and product identification constants
// ABOUTME: Reported in the WebSocket User-Agent and the status view
package version

const (
	// Version is the release version
	Version = "0.1.0"

	// Product is the product name
	Product = "livevoice"
)

// UserAgent returns the User-Agent sent on the WebSocket handshake
func UserAgent() string {
	return Product + "/" + Version
}
