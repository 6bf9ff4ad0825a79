package component

import (
	"context"
	"testing"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func textResult(annotations ...port.TextAnnotation) []port.AnnotationResult {
	return []port.AnnotationResult{{TextAnnotations: annotations}}
}

func TestTextAnalyzerUsesFirstSegmentAndFrame(t *testing.T) {
	annotator := &fakeAnnotator{results: textResult(
		port.TextAnnotation{
			Text: "OPEN",
			Segments: []port.TextSegment{
				{
					Segment:    port.Segment{Start: off(2, 0), End: off(3, 500_000_000)},
					Confidence: 0.98,
					Frames: []port.TextFrame{
						{TimeOffset: off(2, 100_000_000), Vertices: box()},
						{TimeOffset: off(3, 0), Vertices: box()},
					},
				},
				{
					Segment:    port.Segment{Start: off(40, 0), End: off(41, 0)},
					Confidence: 0.5,
					Frames:     []port.TextFrame{{TimeOffset: off(40, 0), Vertices: box()}},
				},
			},
		},
		port.TextAnnotation{
			Text: "CLOSED",
			Segments: []port.TextSegment{{
				Segment:    port.Segment{Start: off(1, 0), End: off(1, 900_000_000)},
				Confidence: 0.7,
				Frames:     []port.TextFrame{{TimeOffset: off(1, 0), Vertices: box()}},
			}},
		},
	)}
	a := NewTextAnalyzer(annotator, AnalyzerConfig{LanguageHints: []string{"en"}}, zap.NewNop())

	records, err := a.Analyze(context.Background(), "gs://bucket/a.mp4")
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "OPEN", first.Text)
	assert.InDelta(t, 2.0, first.StartTime, 1e-9)
	assert.InDelta(t, 3.5, first.EndTime, 1e-9)
	assert.InDelta(t, 0.98, first.Confidence, 1e-9)
	assert.InDelta(t, 2.1, first.TimeOffset, 1e-9)
	assert.Equal(t, 0.1, first.Vertices[0].X)
	assert.Equal(t, 0.3, first.Vertices[3].Y)

	assert.Equal(t, "CLOSED", records[1].Text, "backend order is kept")
	for _, r := range records {
		assert.Len(t, r.Vertices, 4)
	}

	req := annotator.requests[0]
	assert.Equal(t, port.FeatureTextDetection, req.Feature)
	require.NotNil(t, req.Text)
	assert.Equal(t, []string{"en"}, req.Text.LanguageHints)
	assert.Nil(t, req.ShotChange)
}

func TestTextAnalyzerMalformedAnnotations(t *testing.T) {
	cases := map[string]port.TextAnnotation{
		"no segments": {Text: "A"},
		"no frames": {Text: "B", Segments: []port.TextSegment{{
			Segment: port.Segment{Start: off(0, 0), End: off(1, 0)},
		}}},
		"three vertices": {Text: "C", Segments: []port.TextSegment{{
			Frames: []port.TextFrame{{Vertices: box()[:3]}},
		}}},
	}
	for name, ta := range cases {
		t.Run(name, func(t *testing.T) {
			a := NewTextAnalyzer(&fakeAnnotator{results: textResult(ta)}, AnalyzerConfig{}, zap.NewNop())
			_, err := a.Analyze(context.Background(), "gs://bucket/a.mp4")
			assert.ErrorIs(t, err, ErrMalformedAnnotation)
		})
	}
}

func TestTextAnalyzerResultCountViolation(t *testing.T) {
	a := NewTextAnalyzer(&fakeAnnotator{results: []port.AnnotationResult{{}, {}}}, AnalyzerConfig{}, zap.NewNop())
	_, err := a.Analyze(context.Background(), "gs://bucket/a.mp4")
	assert.ErrorIs(t, err, ErrUnexpectedResultCount)
}
