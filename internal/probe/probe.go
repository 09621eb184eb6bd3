// Package probe wraps ffprobe for media identification and tag reading.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// Prober runs ffprobe against media files
type Prober struct {
	// Path to the ffprobe binary
	Path string
}

// New creates a Prober. An empty path defaults to "ffprobe" on $PATH.
func New(path string) *Prober {
	if path == "" {
		path = "ffprobe"
	}
	return &Prober{Path: path}
}

// Probe runs a single ffprobe JSON call against path and returns the
// parsed result
func (p *Prober) Probe(ctx context.Context, path string) (*Result, error) {
	cmd := exec.CommandContext(ctx, p.Path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}

	return ParseJSON(out)
}

// ParseJSON converts raw ffprobe JSON output into a Result.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*Result, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	if raw.Format.FormatName == "" && len(raw.Streams) == 0 {
		return nil, fmt.Errorf("ffprobe returned no format or streams")
	}

	result := &Result{
		Format: FormatInfo{
			FormatName: raw.Format.FormatName,
			Tags:       raw.Format.Tags,
		},
	}
	for _, s := range raw.Streams {
		result.Streams = append(result.Streams, StreamInfo{
			Index:     s.Index,
			CodecType: s.CodecType,
			CodecName: s.CodecName,
			Tags:      s.Tags,
		})
	}
	return result, nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

type ffprobeStream struct {
	Index     int               `json:"index"`
	CodecName string            `json:"codec_name"`
	CodecType string            `json:"codec_type"`
	Tags      map[string]string `json:"tags"`
}

// FormatInfo holds container-level metadata from ffprobe's format section
type FormatInfo struct {
	FormatName string
	Tags       map[string]string
}

// StreamInfo holds the properties of a single stream
type StreamInfo struct {
	Index     int
	CodecType string
	CodecName string
	Tags      map[string]string
}

// Result is the parsed output of one ffprobe call
type Result struct {
	Format  FormatInfo
	Streams []StreamInfo
}

// HasAudio reports whether the file contains at least one audio stream
func (r *Result) HasAudio() bool {
	for _, s := range r.Streams {
		if s.CodecType == "audio" {
			return true
		}
	}
	return false
}

// Tags merges container-level and audio-stream tags into a single map.
// Stream tags win on key collision: vorbis-style containers keep their
// comments on the stream, not the format.
func (r *Result) Tags() map[string]string {
	merged := make(map[string]string, len(r.Format.Tags))
	for k, v := range r.Format.Tags {
		merged[k] = v
	}
	for _, s := range r.Streams {
		if s.CodecType != "audio" {
			continue
		}
		for k, v := range s.Tags {
			merged[k] = v
		}
	}
	return merged
}
