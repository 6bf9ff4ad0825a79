package videointelligence

import (
	"context"
	"fmt"

	video "cloud.google.com/go/videointelligence/apiv1"
	"cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
	"github.com/fiapx/fiapx-video-intelligence/internal/domain/port"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/durationpb"
)

type Annotator struct {
	client *video.Client
	logger *zap.Logger
}

func NewAnnotator(ctx context.Context, logger *zap.Logger) (*Annotator, error) {
	client, err := video.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create video intelligence client: %w", err)
	}
	return &Annotator{client: client, logger: logger}, nil
}

func (a *Annotator) Annotate(ctx context.Context, req port.AnnotationRequest) ([]port.AnnotationResult, error) {
	pbReq, err := buildRequest(req)
	if err != nil {
		return nil, err
	}

	op, err := a.client.AnnotateVideo(ctx, pbReq)
	if err != nil {
		return nil, fmt.Errorf("annotate video: %w", err)
	}
	a.logger.Debug("annotation operation started",
		zap.String("operation", op.Name()),
		zap.String("input_uri", req.InputURI),
	)

	resp, err := op.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait for operation %s: %w", op.Name(), err)
	}
	return convertResponse(resp)
}

func (a *Annotator) Close() error {
	return a.client.Close()
}

func buildRequest(req port.AnnotationRequest) (*videointelligencepb.AnnotateVideoRequest, error) {
	out := &videointelligencepb.AnnotateVideoRequest{
		InputUri:     req.InputURI,
		VideoContext: &videointelligencepb.VideoContext{},
	}

	switch req.Feature {
	case port.FeatureShotChangeDetection:
		out.Features = []videointelligencepb.Feature{videointelligencepb.Feature_SHOT_CHANGE_DETECTION}
		if req.ShotChange != nil {
			out.VideoContext.ShotChangeDetectionConfig = &videointelligencepb.ShotChangeDetectionConfig{
				Model: req.ShotChange.Model,
			}
		}
	case port.FeatureTextDetection:
		out.Features = []videointelligencepb.Feature{videointelligencepb.Feature_TEXT_DETECTION}
		if req.Text != nil {
			out.VideoContext.TextDetectionConfig = &videointelligencepb.TextDetectionConfig{
				Model:         req.Text.Model,
				LanguageHints: req.Text.LanguageHints,
			}
		}
	default:
		return nil, fmt.Errorf("unsupported feature %d", req.Feature)
	}
	return out, nil
}

func convertResponse(resp *videointelligencepb.AnnotateVideoResponse) ([]port.AnnotationResult, error) {
	results := make([]port.AnnotationResult, 0, len(resp.GetAnnotationResults()))
	for _, r := range resp.GetAnnotationResults() {
		if st := r.GetError(); st != nil && st.GetCode() != 0 {
			return nil, fmt.Errorf("annotation of %s failed: code %d: %s", r.GetInputUri(), st.GetCode(), st.GetMessage())
		}

		res := port.AnnotationResult{InputURI: r.GetInputUri()}
		for _, shot := range r.GetShotAnnotations() {
			res.ShotAnnotations = append(res.ShotAnnotations, convertSegment(shot))
		}
		for _, ta := range r.GetTextAnnotations() {
			res.TextAnnotations = append(res.TextAnnotations, convertText(ta))
		}
		results = append(results, res)
	}
	return results, nil
}

func convertSegment(s *videointelligencepb.VideoSegment) port.Segment {
	return port.Segment{
		Start: offset(s.GetStartTimeOffset()),
		End:   offset(s.GetEndTimeOffset()),
	}
}

func convertText(ta *videointelligencepb.TextAnnotation) port.TextAnnotation {
	out := port.TextAnnotation{Text: ta.GetText()}
	for _, seg := range ta.GetSegments() {
		ts := port.TextSegment{
			Segment:    convertSegment(seg.GetSegment()),
			Confidence: float64(seg.GetConfidence()),
		}
		for _, f := range seg.GetFrames() {
			frame := port.TextFrame{TimeOffset: offset(f.GetTimeOffset())}
			for _, v := range f.GetRotatedBoundingBox().GetVertices() {
				frame.Vertices = append(frame.Vertices, port.Point{X: float64(v.GetX()), Y: float64(v.GetY())})
			}
			ts.Frames = append(ts.Frames, frame)
		}
		out.Segments = append(out.Segments, ts)
	}
	return out
}

func offset(d *durationpb.Duration) port.Offset {
	return port.Offset{Seconds: d.GetSeconds(), Nanos: d.GetNanos()}
}
