package port

import "context"

// Rational is a numerator/denominator pair as reported by the demuxer.
type Rational struct {
	Num int64
	Den int64
}

func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

type StreamInfo struct {
	Index        int
	CodecType    string
	Width        int
	Height       int
	DurationTS   int64
	Duration     float64
	TimeBase     Rational
	AvgFrameRate Rational
}

type ContainerInfo struct {
	Path    string
	Streams []StreamInfo
}

type ContainerProber interface {
	Probe(ctx context.Context, path string) (*ContainerInfo, error)
}
