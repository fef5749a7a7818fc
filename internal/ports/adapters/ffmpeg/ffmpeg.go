// Package ffmpeg implements the frame extraction, probing and encoding
// capabilities on top of the ffmpeg/ffprobe binaries.
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/vclip/internal/ports"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// ExtractFrame returns a single JPEG frame at the given timestamp.
func (a *Adapter) ExtractFrame(ctx context.Context, videoPath string, at time.Duration) ([]byte, error) {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-hide_banner", "-loglevel", "error",
		"-ss", fmtSeconds(at),
		"-i", videoPath,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		if execNotFound(err) {
			return nil, fmt.Errorf("%w: ffmpeg: %v", ports.ErrUnavailable, err)
		}
		return nil, fmt.Errorf("ffmpeg extract frame at %s: %w\n%s", at, err, errBuf.String())
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg extract frame at %s: empty output", at)
	}
	return out.Bytes(), nil
}

// Probe returns the source dimensions and duration.
func (a *Adapter) Probe(ctx context.Context, videoPath string) (ports.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-show_entries", "format=duration",
		"-of", "json",
		videoPath,
	)
	b, err := cmd.Output()
	if err != nil {
		if execNotFound(err) {
			return ports.VideoInfo{}, fmt.Errorf("%w: ffprobe: %v", ports.ErrUnavailable, err)
		}
		return ports.VideoInfo{}, fmt.Errorf("ffprobe %s: %w", videoPath, err)
	}

	var probe struct {
		Streams []struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return ports.VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 || probe.Streams[0].Width <= 0 || probe.Streams[0].Height <= 0 {
		return ports.VideoInfo{}, fmt.Errorf("ffprobe %s: no video stream dimensions", videoPath)
	}
	info := ports.VideoInfo{Width: probe.Streams[0].Width, Height: probe.Streams[0].Height}
	if sec, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64); err == nil {
		info.Duration = time.Duration(sec * float64(time.Second))
	}
	return info, nil
}

// Encode runs one clip encode. Progress comes from ffmpeg's
// "-progress pipe:1" key=value stream: out_time_us over the clip
// duration gives the encoded fraction. CommandContext kills the
// process on cancellation.
func (a *Adapter) Encode(ctx context.Context, spec ports.EncodeSpec, onProgress func(frac float64)) error {
	args := []string{
		"-hide_banner", "-nostats", "-y",
		"-ss", fmtSeconds(spec.Start),
		"-to", fmtSeconds(spec.End),
		"-i", spec.InputPath,
	}
	for _, in := range spec.ExtraInputs {
		args = append(args, "-i", in)
	}
	switch {
	case spec.FilterGraph != "":
		args = append(args, "-filter_complex", spec.FilterGraph, "-map", "[vout]", "-map", "0:a?")
	case spec.FilterChain != "":
		args = append(args, "-vf", spec.FilterChain)
	}
	args = append(args,
		"-c:v", orDefault(spec.VideoCodec, "libx264"),
		"-preset", orDefault(spec.Preset, "veryfast"),
		"-crf", strconv.Itoa(spec.CRF),
		"-c:a", "aac",
		"-b:a", orDefault(spec.AudioBitrate, "192k"),
		"-progress", "pipe:1",
		spec.OutputPath,
	)

	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf

	if err := cmd.Start(); err != nil {
		if execNotFound(err) {
			return fmt.Errorf("%w: ffmpeg: %v", ports.ErrUnavailable, err)
		}
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	clipDur := spec.End - spec.Start
	readProgress(stdout, clipDur, onProgress)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg encode: %w\n%s", err, tail(errBuf.String(), 2000))
	}
	if onProgress != nil {
		onProgress(1)
	}
	return nil
}

// readProgress consumes the key=value progress stream until EOF.
func readProgress(r io.Reader, clipDur time.Duration, onProgress func(frac float64)) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		val, ok := strings.CutPrefix(line, "out_time_us=")
		if !ok {
			continue
		}
		us, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil || us < 0 {
			continue
		}
		if onProgress != nil && clipDur > 0 {
			frac := float64(us) * float64(time.Microsecond) / float64(clipDur)
			if frac > 1 {
				frac = 1
			}
			onProgress(frac)
		}
	}
}

func execNotFound(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr)
}

func fmtSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
