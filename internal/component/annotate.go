package component

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/port"
	"github.com/fiapx/fiapx-video-intelligence/internal/infra/metrics"
	"go.uber.org/zap"
)

const DefaultAnnotationTimeout = 2 * time.Hour

type AnalyzerConfig struct {
	Timeout       time.Duration
	Model         string
	LanguageHints []string
}

func (c AnalyzerConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultAnnotationTimeout
	}
	return c.Timeout
}

// annotateOne submits req, waits at most timeout and returns the single
// result set of the request. Any other number of result sets is an error.
func annotateOne(
	ctx context.Context,
	annotator port.VideoAnnotator,
	req port.AnnotationRequest,
	timeout time.Duration,
	log *zap.Logger,
) (*port.AnnotationResult, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Info("submitting annotation request", zap.Stringer("feature", req.Feature))
	start := time.Now()

	results, err := annotator.Annotate(waitCtx, req)
	metrics.AnnotationWaitDuration.WithLabelValues(req.Feature.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s after %s: %w", req.Feature, timeout, ErrAnnotationTimeout)
		}
		return nil, fmt.Errorf("annotate %s: %w", req.Feature, err)
	}

	if len(results) != 1 {
		log.Error("annotation backend broke the one-video-per-request contract",
			zap.Stringer("feature", req.Feature),
			zap.Int("result_sets", len(results)),
		)
		return nil, fmt.Errorf("%s: got %d result sets for one video: %w", req.Feature, len(results), ErrUnexpectedResultCount)
	}

	log.Info("annotation finished",
		zap.Stringer("feature", req.Feature),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &results[0], nil
}

func seconds(o port.Offset) float64 {
	return float64(o.Seconds) + float64(o.Nanos)/1e9
}
