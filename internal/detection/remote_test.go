package detection

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteBackendDetect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/detect", r.URL.Path)

		var req detectRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "aW1hZ2U=", req.Image)
		assert.InDelta(t, 0.6, req.ConfidenceThreshold, 0.001)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"results": map[string]interface{}{
				"detectedTools": []map[string]interface{}{
					{"className": "hammer", "confidence": 95.5, "detectedQuantity": 1},
					{"className": "wrench", "confidence": 87.2, "detectedQuantity": 2,
						"boundingBox": map[string]int{"x1": 1, "y1": 2, "x2": 3, "y2": 4}},
				},
				"totalDetected":  3,
				"processingTime": 12.5,
			},
		})
	}))
	defer server.Close()

	backend := NewRemoteBackend(server.URL, 5*time.Second)
	observations, err := backend.Detect(context.Background(), "aW1hZ2U=", 0.6)
	require.NoError(t, err)
	require.Len(t, observations, 2)

	assert.Equal(t, "hammer", observations[0].ClassName)
	assert.Equal(t, 1, observations[0].Quantity)
	require.NotNil(t, observations[1].BoundingBox)
	assert.Equal(t, BoundingBox{X1: 1, Y1: 2, X2: 3, Y2: 4}, *observations[1].BoundingBox)
}

// success:false is indistinguishable from a transport failure to callers.
func TestRemoteBackendReportedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "inference crashed",
		})
	}))
	defer server.Close()

	backend := NewRemoteBackend(server.URL, 5*time.Second)
	observations, err := backend.Detect(context.Background(), "aW1hZ2U=", 0.5)
	assert.Nil(t, observations)
	assert.ErrorIs(t, err, ErrFailed)
	assert.Contains(t, err.Error(), "inference crashed")
}

func TestRemoteBackendNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	backend := NewRemoteBackend(server.URL, 5*time.Second)
	_, err := backend.Detect(context.Background(), "aW1hZ2U=", 0.5)
	assert.ErrorIs(t, err, ErrFailed)
}

func TestRemoteBackendTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	backend := NewRemoteBackend(server.URL, time.Second)
	_, err := backend.Detect(context.Background(), "aW1hZ2U=", 0.5)
	assert.ErrorIs(t, err, ErrFailed)
}

func TestRemoteBackendTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	backend := NewRemoteBackend(server.URL, 20*time.Millisecond)
	_, err := backend.Detect(context.Background(), "aW1hZ2U=", 0.5)
	assert.ErrorIs(t, err, ErrFailed)
}

func TestRemoteBackendEmptyImage(t *testing.T) {
	backend := NewRemoteBackend("http://detector.local", time.Second)
	_, err := backend.Detect(context.Background(), "", 0.5)
	assert.ErrorIs(t, err, ErrInvalidImage)
}
