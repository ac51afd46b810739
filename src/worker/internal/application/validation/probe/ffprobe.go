package probe

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/executor"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// AudioInfo is what validation needs to know about an uploaded file.
type AudioInfo struct {
	// Format is the canonical container name: mp3, wav, m4a, or flac.
	// Anything ffprobe reports outside those comes through as-is and
	// fails the allowlist downstream.
	Format      string
	DurationSec float64
}

//counterfeiter:generate . Prober
type Prober interface {
	Probe(ctx context.Context, filePath string) (AudioInfo, error)
}

var _ Prober = FFProbe{}

type FFProbe struct {
	binPath  string
	executor executor.Executor
}

func NewFFProbe(binPath string, executor executor.Executor) FFProbe {
	return FFProbe{
		binPath:  binPath,
		executor: executor,
	}
}

type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

func (f FFProbe) Probe(ctx context.Context, filePath string) (AudioInfo, error) {
	if ctx.Err() != nil {
		return AudioInfo{}, cerr.Wrap(ctx.Err()).Error("Context cancelled before probing could happen")
	}

	args := []string{"-v", "error", "-print_format", "json", "-show_format", filePath}

	errctx := cerr.Field("ffprobe_bin_path", f.binPath).Field("ffprobe_args", args)

	cmd := f.executor.Command(f.binPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return AudioInfo{}, errctx.Field("ffprobe_output", string(output)).
			Wrap(err).
			Error("ffprobe could not read the file")
	}

	parsed := ffprobeOutput{}
	if err := json.Unmarshal(output, &parsed); err != nil {
		return AudioInfo{}, errctx.Wrap(err).Error("Failed to unmarshal ffprobe output")
	}

	if parsed.Format.FormatName == "" {
		return AudioInfo{}, errctx.Error("ffprobe reported no container format")
	}

	durationSec, err := strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil {
		return AudioInfo{}, errctx.Wrap(err).Error("ffprobe reported an unparseable duration")
	}

	return AudioInfo{
		Format:      canonicalFormat(parsed.Format.FormatName),
		DurationSec: durationSec,
	}, nil
}

// canonicalFormat maps ffprobe's format_name, which can be a comma
// separated list of demuxer names, to our format vocabulary.
func canonicalFormat(formatName string) string {
	switch {
	case strings.Contains(formatName, "mp3"):
		return "mp3"
	case strings.Contains(formatName, "wav"):
		return "wav"
	case strings.Contains(formatName, "mp4") || strings.Contains(formatName, "m4a"):
		return "m4a"
	case strings.Contains(formatName, "flac"):
		return "flac"
	default:
		return formatName
	}
}
