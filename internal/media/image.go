// ABOUTME: Still image loader for frames sent alongside audio
// ABOUTME: Reads images from disk or URLs and checks their MIME type
package media

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// MaxImageSize bounds a single still frame
const MaxImageSize = 4 << 20

// Image is an encoded still frame ready for SendMedia
type Image struct {
	MimeType string
	Data     []byte
}

// Loader fetches still frames
type Loader struct {
	client *http.Client
}

// NewLoader creates a loader with a bounded HTTP timeout
func NewLoader() *Loader {
	return &Loader{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Load reads an image from a file path or HTTP(S) URL. Only JPEG and PNG
// are accepted.
func (l *Loader) Load(pathOrURL string) (*Image, error) {
	if pathOrURL == "" {
		return nil, fmt.Errorf("empty image path")
	}

	var data []byte
	var err error
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		data, err = l.download(pathOrURL)
	} else {
		data, err = readFile(pathOrURL)
	}
	if err != nil {
		return nil, err
	}

	mimeType := http.DetectContentType(data)
	if mimeType != "image/jpeg" && mimeType != "image/png" {
		return nil, fmt.Errorf("unsupported image type %s", mimeType)
	}

	log.Printf("Loaded %s image (%d bytes) from %s", mimeType, len(data), pathOrURL)
	return &Image{MimeType: mimeType, Data: data}, nil
}

func (l *Loader) download(url string) ([]byte, error) {
	log.Printf("Downloading image: %s", url)
	resp, err := l.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download failed: HTTP %d", resp.StatusCode)
	}
	return readLimited(resp.Body)
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return readLimited(f)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}
	return data, nil
}
