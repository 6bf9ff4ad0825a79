package component

import (
	"context"
	"fmt"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/fiapx/fiapx-video-intelligence/internal/domain/port"
	"go.uber.org/zap"
)

const boxVertices = 4

// TextAnalyzer detects on-screen text through the annotation backend.
type TextAnalyzer struct {
	annotator port.VideoAnnotator
	cfg       AnalyzerConfig
	logger    *zap.Logger
}

func NewTextAnalyzer(annotator port.VideoAnnotator, cfg AnalyzerConfig, logger *zap.Logger) *TextAnalyzer {
	return &TextAnalyzer{annotator: annotator, cfg: cfg, logger: logger}
}

// Analyze returns one record per text annotation, in backend order. Each
// record is built from the first segment and its first frame; later
// segments and frames are dropped.
func (a *TextAnalyzer) Analyze(ctx context.Context, video entity.VideoReference) ([]entity.TextRecord, error) {
	log := a.logger.With(zap.String("video", video.String()))

	result, err := annotateOne(ctx, a.annotator, port.AnnotationRequest{
		Feature:  port.FeatureTextDetection,
		InputURI: video.String(),
		Text: &port.TextDetectionConfig{
			Model:         a.cfg.Model,
			LanguageHints: a.cfg.LanguageHints,
		},
	}, a.cfg.timeout(), log)
	if err != nil {
		return nil, err
	}

	records := make([]entity.TextRecord, 0, len(result.TextAnnotations))
	for i, ta := range result.TextAnnotations {
		rec, err := textRecord(ta)
		if err != nil {
			return nil, fmt.Errorf("text annotation %d (%q): %w", i, ta.Text, err)
		}
		records = append(records, rec)
	}

	log.Info("text detected", zap.Int("count", len(records)))
	return records, nil
}

func textRecord(ta port.TextAnnotation) (entity.TextRecord, error) {
	if len(ta.Segments) == 0 {
		return entity.TextRecord{}, fmt.Errorf("no segments: %w", ErrMalformedAnnotation)
	}
	seg := ta.Segments[0]
	if len(seg.Frames) == 0 {
		return entity.TextRecord{}, fmt.Errorf("no frames in first segment: %w", ErrMalformedAnnotation)
	}
	frame := seg.Frames[0]
	if len(frame.Vertices) != boxVertices {
		return entity.TextRecord{}, fmt.Errorf("bounding box has %d vertices: %w", len(frame.Vertices), ErrMalformedAnnotation)
	}

	vertices := make([]entity.Vertex, 0, boxVertices)
	for _, p := range frame.Vertices {
		vertices = append(vertices, entity.Vertex{X: p.X, Y: p.Y})
	}

	return entity.TextRecord{
		Text:       ta.Text,
		StartTime:  seconds(seg.Segment.Start),
		EndTime:    seconds(seg.Segment.End),
		Confidence: seg.Confidence,
		TimeOffset: seconds(frame.TimeOffset),
		Vertices:   vertices,
	}, nil
}
