package detection

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// RawDetection is a single box emitted by an object detector before any
// post-processing. Confidence is on the 0.0-1.0 probability scale.
type RawDetection struct {
	ClassName  string
	Confidence float64
	Box        BoundingBox
}

// Inferencer runs an in-process object detector over a decoded image. Model
// loading and the inference runtime live behind this interface.
type Inferencer interface {
	Infer(ctx context.Context, img image.Image) ([]RawDetection, error)
}

// LocalBackend decodes the image in-process and post-processes raw detector
// output: detections below the confidence threshold are discarded, the rest
// are grouped by class name, and one observation per class is emitted with
// quantity = number of detections in the group. Confidence carries the
// detector's value for the first detection of the class, converted to the
// percentage scale.
type LocalBackend struct {
	inferencer Inferencer
}

func NewLocalBackend(inferencer Inferencer) *LocalBackend {
	return &LocalBackend{inferencer: inferencer}
}

func (b *LocalBackend) Detect(ctx context.Context, imageBase64 string, confidenceThreshold float64) ([]Observation, error) {
	raw, err := decodeBase64(imageBase64)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	detections, err := b.inferencer.Infer(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}

	counts := make(map[string]int)
	order := make([]*Observation, 0, len(detections))
	byClass := make(map[string]*Observation)

	for _, d := range detections {
		if d.Confidence < confidenceThreshold {
			continue
		}
		counts[d.ClassName]++
		if _, ok := byClass[d.ClassName]; !ok {
			box := d.Box
			obs := &Observation{
				ClassName:   d.ClassName,
				Confidence:  d.Confidence * 100,
				BoundingBox: &box,
			}
			byClass[d.ClassName] = obs
			order = append(order, obs)
		}
	}

	observations := make([]Observation, 0, len(order))
	for _, obs := range order {
		obs.Quantity = counts[obs.ClassName]
		observations = append(observations, *obs)
	}
	return observations, nil
}
