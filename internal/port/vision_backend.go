package port

import "context"

// ExtractInput is one extraction call: a single image or document payload
// plus a natural-language instruction.
type ExtractInput struct {
	Payload     []byte
	ContentType string
	Instruction string
	MaxTokens   int
}

// VisionBackend abstracts a hosted vision-language extraction service.
// Extract returns the backend's raw text response; shaping that response
// into the canonical schema is the normalizer's job, not the backend's.
type VisionBackend interface {
	Extract(ctx context.Context, input ExtractInput) (string, error)
	Available() bool
	Name() string
}

// OCREngine abstracts a local OCR engine.
type OCREngine interface {
	RecognizeImage(imageData []byte) (string, error)
	Close() error
}
