package port

import "context"

// Feature is the closed set of analyses the annotation backend is asked for.
type Feature int

const (
	FeatureShotChangeDetection Feature = iota + 1
	FeatureTextDetection
)

func (f Feature) String() string {
	switch f {
	case FeatureShotChangeDetection:
		return "shot_change_detection"
	case FeatureTextDetection:
		return "text_detection"
	}
	return "unknown"
}

type ShotChangeDetectionConfig struct {
	Model string
}

type TextDetectionConfig struct {
	Model         string
	LanguageHints []string
}

// AnnotationRequest asks for exactly one feature on exactly one video. Only
// the payload matching Feature is read.
type AnnotationRequest struct {
	Feature    Feature
	InputURI   string
	ShotChange *ShotChangeDetectionConfig
	Text       *TextDetectionConfig
}

// Offset is a backend time offset split into whole seconds and nanoseconds.
type Offset struct {
	Seconds int64
	Nanos   int32
}

type Segment struct {
	Start Offset
	End   Offset
}

type Point struct {
	X float64
	Y float64
}

type TextFrame struct {
	TimeOffset Offset
	Vertices   []Point
}

type TextSegment struct {
	Segment    Segment
	Confidence float64
	Frames     []TextFrame
}

type TextAnnotation struct {
	Text     string
	Segments []TextSegment
}

// AnnotationResult is the backend's result set for one input video.
type AnnotationResult struct {
	InputURI        string
	ShotAnnotations []Segment
	TextAnnotations []TextAnnotation
}

type VideoAnnotator interface {
	// Annotate submits the request and blocks until the long-running
	// operation completes or ctx is done.
	Annotate(ctx context.Context, req AnnotationRequest) ([]AnnotationResult, error)
}
