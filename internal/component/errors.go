package component

import "errors"

var (
	// ErrUnexpectedResultCount means the backend returned zero or several
	// result sets for a single-video request.
	ErrUnexpectedResultCount = errors.New("annotation backend returned unexpected number of result sets")
	ErrAnnotationTimeout     = errors.New("annotation did not complete before timeout")
	ErrMalformedAnnotation   = errors.New("malformed text annotation")
	ErrNoVideoStream         = errors.New("no video stream found")
)
