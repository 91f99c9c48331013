package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInferencer struct {
	detections []RawDetection
	err        error
}

func (f *fakeInferencer) Infer(ctx context.Context, img image.Image) ([]RawDetection, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detections, nil
}

func testImageBase64(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestLocalBackendGroupsByClass(t *testing.T) {
	backend := NewLocalBackend(&fakeInferencer{detections: []RawDetection{
		{ClassName: "wrench", Confidence: 0.91, Box: BoundingBox{X1: 0, Y1: 0, X2: 5, Y2: 5}},
		{ClassName: "hammer", Confidence: 0.85, Box: BoundingBox{X1: 10, Y1: 10, X2: 20, Y2: 20}},
		{ClassName: "wrench", Confidence: 0.74, Box: BoundingBox{X1: 30, Y1: 30, X2: 40, Y2: 40}},
	}})

	observations, err := backend.Detect(context.Background(), testImageBase64(t), 0.5)
	require.NoError(t, err)
	require.Len(t, observations, 2)

	assert.Equal(t, "wrench", observations[0].ClassName)
	assert.Equal(t, 2, observations[0].Quantity)
	assert.InDelta(t, 91.0, observations[0].Confidence, 0.001)
	require.NotNil(t, observations[0].BoundingBox)
	assert.Equal(t, 5, observations[0].BoundingBox.X2)

	assert.Equal(t, "hammer", observations[1].ClassName)
	assert.Equal(t, 1, observations[1].Quantity)
	assert.InDelta(t, 85.0, observations[1].Confidence, 0.001)
}

func TestLocalBackendDiscardsBelowThreshold(t *testing.T) {
	backend := NewLocalBackend(&fakeInferencer{detections: []RawDetection{
		{ClassName: "wrench", Confidence: 0.9},
		{ClassName: "pliers", Confidence: 0.3},
	}})

	observations, err := backend.Detect(context.Background(), testImageBase64(t), 0.5)
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "wrench", observations[0].ClassName)
}

func TestLocalBackendRejectsMalformedImage(t *testing.T) {
	backend := NewLocalBackend(&fakeInferencer{})

	_, err := backend.Detect(context.Background(), "not-base64!!!", 0.5)
	assert.ErrorIs(t, err, ErrInvalidImage)

	notAnImage := base64.StdEncoding.EncodeToString([]byte("plain text"))
	_, err = backend.Detect(context.Background(), notAnImage, 0.5)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestLocalBackendStripsDataURIPrefix(t *testing.T) {
	backend := NewLocalBackend(&fakeInferencer{detections: []RawDetection{
		{ClassName: "hammer", Confidence: 0.8},
	}})

	payload := "data:image/png;base64," + testImageBase64(t)
	observations, err := backend.Detect(context.Background(), payload, 0.5)
	require.NoError(t, err)
	require.Len(t, observations, 1)
}

func TestLocalBackendWrapsInferenceErrors(t *testing.T) {
	cause := errors.New("model exploded")
	backend := NewLocalBackend(&fakeInferencer{err: cause})

	observations, err := backend.Detect(context.Background(), testImageBase64(t), 0.5)
	assert.Nil(t, observations)
	assert.ErrorIs(t, err, ErrFailed)
	assert.Contains(t, err.Error(), "model exploded")
}

func TestSelectPrefersRemote(t *testing.T) {
	remote := NewRemoteBackend("http://detector.local", 0)
	local := NewLocalBackend(&fakeInferencer{})

	assert.Same(t, Backend(remote), Select(remote, local))
	assert.Same(t, Backend(local), Select(nil, local))
	assert.IsType(t, Unavailable{}, Select(nil, nil))
}

func TestUnavailableAlwaysFails(t *testing.T) {
	_, err := Unavailable{}.Detect(context.Background(), testImageBase64(t), 0.5)
	assert.ErrorIs(t, err, ErrUnavailable)
}
