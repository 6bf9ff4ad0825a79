package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/port"
	"go.uber.org/zap"
)

// Prober reads container stream metadata with a single ffprobe JSON call.
type Prober struct {
	binary string
	logger *zap.Logger
}

func NewProber(binary string, logger *zap.Logger) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{binary: binary, logger: logger}
}

func (p *Prober) Probe(ctx context.Context, path string) (*port.ContainerInfo, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("ffprobe error: %w, output: %s", err, stderr)
	}

	info, err := ParseJSON(output)
	if err != nil {
		return nil, err
	}
	info.Path = path

	p.logger.Debug("container probed",
		zap.String("path", path),
		zap.Int("streams", len(info.Streams)),
	)
	return info, nil
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	Index        int    `json:"index"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	TimeBase     string `json:"time_base"`
	DurationTS   int64  `json:"duration_ts"`
	Duration     string `json:"duration"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

// ParseJSON converts raw ffprobe output into stream descriptions.
func ParseJSON(data []byte) (*port.ContainerInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	info := &port.ContainerInfo{Streams: make([]port.StreamInfo, 0, len(raw.Streams))}
	for _, s := range raw.Streams {
		info.Streams = append(info.Streams, port.StreamInfo{
			Index:        s.Index,
			CodecType:    s.CodecType,
			Width:        s.Width,
			Height:       s.Height,
			DurationTS:   s.DurationTS,
			Duration:     parseFloat(s.Duration),
			TimeBase:     parseRational(s.TimeBase),
			AvgFrameRate: parseRational(s.AvgFrameRate),
		})
	}
	return info, nil
}

// parseRational reads "num/den" values such as "1/15360" or "30000/1001".
// Malformed input yields 0/0.
func parseRational(s string) port.Rational {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return port.Rational{}
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return port.Rational{}
	}
	d, err := strconv.ParseInt(den, 10, 64)
	if err != nil {
		return port.Rational{}
	}
	return port.Rational{Num: n, Den: d}
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
