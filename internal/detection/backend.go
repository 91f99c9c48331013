package detection

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
)

// Detection failure modes. Backend runtime errors are wrapped with ErrFailed
// so the cause stays attached; callers match with errors.Is.
var (
	ErrUnavailable  = errors.New("no detection backend configured")
	ErrInvalidImage = errors.New("invalid image data")
	ErrFailed       = errors.New("detection failed")
)

// BoundingBox is the pixel geometry of a single detection.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Observation is one detected tool class with its aggregated quantity.
// Confidence is on the 0-100 percentage scale.
type Observation struct {
	ClassName   string       `json:"className"`
	Confidence  float64      `json:"confidence"`
	Quantity    int          `json:"detectedQuantity"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
}

// Backend turns a base64-encoded image into tool observations. Observations
// below the confidence threshold (0.0-1.0 probability scale) are discarded.
// Implementations return no partial results on failure.
type Backend interface {
	Detect(ctx context.Context, imageBase64 string, confidenceThreshold float64) ([]Observation, error)
}

// Unavailable is the backend used when nothing is configured; every Detect
// call fails with ErrUnavailable.
type Unavailable struct{}

func (Unavailable) Detect(context.Context, string, float64) ([]Observation, error) {
	return nil, ErrUnavailable
}

// Select picks the backend for a call: remote always wins over local, and a
// nil pair resolves to Unavailable. The choice is stateless per call.
func Select(remote, local Backend) Backend {
	if remote != nil {
		return remote
	}
	if local != nil {
		return local
	}
	return Unavailable{}
}

// decodeBase64 strips an optional data-URI prefix and decodes the payload.
func decodeBase64(imageBase64 string) ([]byte, error) {
	if imageBase64 == "" {
		return nil, ErrInvalidImage
	}
	if idx := strings.IndexByte(imageBase64, ','); idx >= 0 {
		imageBase64 = imageBase64[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, ErrInvalidImage
	}
	return raw, nil
}
