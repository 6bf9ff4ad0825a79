package component

import (
	"context"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/fiapx/fiapx-video-intelligence/internal/domain/port"
	"go.uber.org/zap"
)

// ShotAnalyzer detects camera shot changes through the annotation backend.
type ShotAnalyzer struct {
	annotator port.VideoAnnotator
	cfg       AnalyzerConfig
	logger    *zap.Logger
}

func NewShotAnalyzer(annotator port.VideoAnnotator, cfg AnalyzerConfig, logger *zap.Logger) *ShotAnalyzer {
	return &ShotAnalyzer{annotator: annotator, cfg: cfg, logger: logger}
}

func (a *ShotAnalyzer) Analyze(ctx context.Context, video entity.VideoReference) ([]entity.ShotRecord, error) {
	log := a.logger.With(zap.String("video", video.String()))

	result, err := annotateOne(ctx, a.annotator, port.AnnotationRequest{
		Feature:    port.FeatureShotChangeDetection,
		InputURI:   video.String(),
		ShotChange: &port.ShotChangeDetectionConfig{Model: a.cfg.Model},
	}, a.cfg.timeout(), log)
	if err != nil {
		return nil, err
	}

	shots := make([]entity.ShotRecord, 0, len(result.ShotAnnotations))
	for _, s := range result.ShotAnnotations {
		shots = append(shots, entity.ShotRecord{
			StartTime: seconds(s.Start),
			EndTime:   seconds(s.End),
		})
	}

	log.Info("shots detected", zap.Int("count", len(shots)))
	return shots, nil
}
