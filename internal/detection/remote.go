package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RemoteBackend delegates detection to a separately deployed inference
// service. It is treated as authoritative whenever configured.
type RemoteBackend struct {
	baseURL string
	client  *http.Client
}

// NewRemoteBackend builds a backend for the service at baseURL. Every call is
// bounded by timeout; on expiry the call fails with ErrFailed and is not
// retried.
func NewRemoteBackend(baseURL string, timeout time.Duration) *RemoteBackend {
	return &RemoteBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type detectRequest struct {
	Image               string  `json:"image"`
	ConfidenceThreshold float64 `json:"confidenceThreshold"`
}

type detectResponse struct {
	Success bool `json:"success"`
	Results struct {
		DetectedTools  []Observation `json:"detectedTools"`
		TotalDetected  int           `json:"totalDetected"`
		ProcessingTime float64       `json:"processingTime"`
	} `json:"results"`
	Error string `json:"error,omitempty"`
}

func (b *RemoteBackend) Detect(ctx context.Context, imageBase64 string, confidenceThreshold float64) ([]Observation, error) {
	if imageBase64 == "" {
		return nil, ErrInvalidImage
	}

	body, err := json.Marshal(detectRequest{
		Image:               imageBase64,
		ConfidenceThreshold: confidenceThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/detect", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: detection service returned status %d", ErrFailed, resp.StatusCode)
	}

	var parsed detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrFailed, err)
	}

	// A success:false response is treated identically to a transport failure.
	if !parsed.Success {
		if parsed.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrFailed, parsed.Error)
		}
		return nil, fmt.Errorf("%w: detection service reported failure", ErrFailed)
	}

	return parsed.Results.DetectedTools, nil
}
