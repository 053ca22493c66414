package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
)

var ErrUnsupportedFormat = errors.New("invalid format: must be mp4, gif, or webm")

// framePattern names the PNG frames an encode reads.
const framePattern = "frame_%05d.png"

// Encoder turns a directory of numbered PNG frames into a video with ffmpeg.
type Encoder struct {
	ffmpegPath string
}

func NewEncoder(ffmpegPath string) *Encoder {
	return &Encoder{ffmpegPath: ffmpegPath}
}

// ContentType returns the MIME type of an output format.
func ContentType(format string) (string, error) {
	switch format {
	case "mp4":
		return "video/mp4", nil
	case "gif":
		return "image/gif", nil
	case "webm":
		return "video/webm", nil
	}
	return "", ErrUnsupportedFormat
}

// FramePath returns the path of frame i inside dir.
func FramePath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf(framePattern, i))
}

// Encode writes dir/output.<format> from the frames in dir and returns its path.
func (e *Encoder) Encode(ctx context.Context, dir, format string, fps int) (string, error) {
	if _, err := ContentType(format); err != nil {
		return "", err
	}

	input := filepath.Join(dir, framePattern)
	rate := strconv.Itoa(fps)
	output := filepath.Join(dir, "output."+format)

	switch format {
	case "mp4":
		return output, e.run(ctx,
			"-framerate", rate,
			"-i", input,
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			"-crf", "18",
			"-preset", "fast",
			"-movflags", "+faststart",
			output,
		)

	case "gif":
		// Two passes: build a palette from the frames, then apply it.
		palette := filepath.Join(dir, "palette.png")
		if err := e.run(ctx,
			"-framerate", rate,
			"-i", input,
			"-vf", "palettegen=stats_mode=diff",
			palette,
		); err != nil {
			return "", err
		}
		return output, e.run(ctx,
			"-framerate", rate,
			"-i", input,
			"-i", palette,
			"-lavfi", "paletteuse=dither=bayer:bayer_scale=5:diff_mode=rectangle",
			output,
		)

	default:
		return output, e.run(ctx,
			"-framerate", rate,
			"-i", input,
			"-c:v", "libvpx-vp9",
			"-crf", "30",
			"-b:v", "0",
			output,
		)
	}
}

func (e *Encoder) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, append([]string{"-y"}, args...)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%v: %s", err, stderr.String())
	}
	return nil
}
