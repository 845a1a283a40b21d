// Package ocr wraps the Tesseract OCR engine via gosseract. It requires
// Tesseract to be installed on the system. On macOS, install via:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev
package ocr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// engine is the subset of gosseract.Client we use, extracted so the
// serialization behavior is testable without a Tesseract install.
type engine interface {
	SetImageFromBytes([]byte) error
	Text() (string, error)
	Close() error
}

// Client wraps Tesseract for OCR operations. It implements port.OCREngine.
//
// A gosseract client holds a single Tesseract handle and is not safe for
// concurrent use; one Client is shared by the queue worker's parallel jobs
// and by synchronous parse requests, so calls are serialized here.
type Client struct {
	mu     sync.Mutex
	client engine
}

// New creates a new OCR client with the given language ("" defaults to eng)
// and page segmentation mode (0 keeps Tesseract's default).
// The client should be closed when no longer needed to release resources.
func New(language string, psm int) (*Client, error) {
	client := gosseract.NewClient()
	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("setting OCR language %q: %w", language, err)
		}
	}
	if psm > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("setting OCR page segmentation mode %d: %w", psm, err)
		}
	}
	return &Client{client: client}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// RecognizeImage performs OCR on image data (PNG, TIFF, JPEG, etc.).
// Returns the recognized text with leading/trailing whitespace trimmed.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return strings.TrimSpace(text), nil
}
