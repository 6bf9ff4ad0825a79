package component

import (
	"context"
	"fmt"
	"strings"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/fiapx/fiapx-video-intelligence/internal/domain/port"
	"go.uber.org/zap"
)

// PathResolver maps storage URIs onto the local mount of the bucket,
// e.g. gs://bucket/a.mp4 -> /gcs/bucket/a.mp4. References without the
// prefix are used as-is.
type PathResolver struct {
	Prefix    string
	MountPath string
}

func (r PathResolver) Resolve(video entity.VideoReference) string {
	ref := video.String()
	if r.Prefix == "" || !strings.HasPrefix(ref, r.Prefix) {
		return ref
	}
	return strings.TrimSuffix(r.MountPath, "/") + "/" + strings.TrimPrefix(ref, r.Prefix)
}

// MetadataExtractor reads container metadata of the first video stream.
type MetadataExtractor struct {
	prober   port.ContainerProber
	resolver PathResolver
	logger   *zap.Logger
}

func NewMetadataExtractor(prober port.ContainerProber, resolver PathResolver, logger *zap.Logger) *MetadataExtractor {
	return &MetadataExtractor{prober: prober, resolver: resolver, logger: logger}
}

// Extract returns a single-element slice describing the video stream.
func (e *MetadataExtractor) Extract(ctx context.Context, video entity.VideoReference) ([]entity.MetadataRecord, error) {
	path := e.resolver.Resolve(video)

	info, err := e.prober.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}

	stream, ok := firstVideoStream(info.Streams)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNoVideoStream)
	}

	rec := entity.MetadataRecord{
		Width:     stream.Width,
		Height:    stream.Height,
		Duration:  streamDuration(stream),
		FrameRate: stream.AvgFrameRate.Float(),
	}

	e.logger.Info("container metadata extracted",
		zap.String("video", video.String()),
		zap.Int("width", rec.Width),
		zap.Int("height", rec.Height),
		zap.Float64("duration", rec.Duration),
		zap.Float64("frame_rate", rec.FrameRate),
	)
	return []entity.MetadataRecord{rec}, nil
}

func firstVideoStream(streams []port.StreamInfo) (port.StreamInfo, bool) {
	for _, s := range streams {
		if s.CodecType == "video" {
			return s, true
		}
	}
	return port.StreamInfo{}, false
}

// streamDuration is duration_ts * time_base, falling back to the demuxer's
// own seconds value when the tick count is missing.
func streamDuration(s port.StreamInfo) float64 {
	if s.DurationTS > 0 && s.TimeBase.Den != 0 {
		return float64(s.DurationTS) * s.TimeBase.Float()
	}
	return s.Duration
}
