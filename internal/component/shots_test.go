package component

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/fiapx/fiapx-video-intelligence/internal/domain/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestShotAnalyzerConvertsOffsets(t *testing.T) {
	annotator := &fakeAnnotator{results: []port.AnnotationResult{{
		ShotAnnotations: []port.Segment{
			{Start: off(0, 0), End: off(4, 500_000_000)},
			{Start: off(4, 541_666_000), End: off(9, 0)},
			{Start: off(9, 41_666_000), End: off(12, 250_000_000)},
		},
	}}}
	a := NewShotAnalyzer(annotator, AnalyzerConfig{Model: "builtin/stable"}, zap.NewNop())

	shots, err := a.Analyze(context.Background(), "gs://bucket/a.mp4")
	require.NoError(t, err)

	require.Len(t, shots, 3)
	assert.Equal(t, entity.ShotRecord{StartTime: 0, EndTime: 4.5}, shots[0])
	assert.InDelta(t, 4.541666, shots[1].StartTime, 1e-9)
	assert.InDelta(t, 12.25, shots[2].EndTime, 1e-9)
	for _, s := range shots {
		assert.LessOrEqual(t, s.StartTime, s.EndTime)
	}

	require.Len(t, annotator.requests, 1)
	req := annotator.requests[0]
	assert.Equal(t, port.FeatureShotChangeDetection, req.Feature)
	assert.Equal(t, "gs://bucket/a.mp4", req.InputURI)
	require.NotNil(t, req.ShotChange)
	assert.Equal(t, "builtin/stable", req.ShotChange.Model)
	assert.Nil(t, req.Text)
}

func TestShotAnalyzerEmptyResult(t *testing.T) {
	a := NewShotAnalyzer(&fakeAnnotator{results: []port.AnnotationResult{{}}}, AnalyzerConfig{}, zap.NewNop())

	shots, err := a.Analyze(context.Background(), "gs://bucket/a.mp4")
	require.NoError(t, err)
	assert.NotNil(t, shots)
	assert.Empty(t, shots)
}

func TestShotAnalyzerResultCountViolation(t *testing.T) {
	cases := map[string][]port.AnnotationResult{
		"none":     nil,
		"multiple": {{}, {}},
	}
	for name, results := range cases {
		t.Run(name, func(t *testing.T) {
			a := NewShotAnalyzer(&fakeAnnotator{results: results}, AnalyzerConfig{}, zap.NewNop())
			_, err := a.Analyze(context.Background(), "gs://bucket/a.mp4")
			assert.ErrorIs(t, err, ErrUnexpectedResultCount)
		})
	}
}

func TestShotAnalyzerBackendError(t *testing.T) {
	backendErr := errors.New("quota exceeded")
	a := NewShotAnalyzer(&fakeAnnotator{err: backendErr}, AnalyzerConfig{}, zap.NewNop())

	_, err := a.Analyze(context.Background(), "gs://bucket/a.mp4")
	assert.ErrorIs(t, err, backendErr)
	assert.NotErrorIs(t, err, ErrAnnotationTimeout)
}

func TestShotAnalyzerTimeout(t *testing.T) {
	a := NewShotAnalyzer(&fakeAnnotator{block: true}, AnalyzerConfig{Timeout: 20 * time.Millisecond}, zap.NewNop())

	_, err := a.Analyze(context.Background(), "gs://bucket/a.mp4")
	assert.ErrorIs(t, err, ErrAnnotationTimeout)
}

func TestShotAnalyzerCallerCancellationIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := NewShotAnalyzer(&fakeAnnotator{block: true}, AnalyzerConfig{}, zap.NewNop())

	_, err := a.Analyze(ctx, "gs://bucket/a.mp4")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAnnotationTimeout)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzerConfigDefaultTimeout(t *testing.T) {
	assert.Equal(t, 2*time.Hour, AnalyzerConfig{}.timeout())
	assert.Equal(t, time.Minute, AnalyzerConfig{Timeout: time.Minute}.timeout())
}
