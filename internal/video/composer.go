package video

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/AfikDanan/DayZeroAI/internal/artifact"
)

// CommandRunner executes the external encoder and returns its combined
// output. Injectable so tests can capture the argument grammar without
// an ffmpeg binary.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Input is everything the compose stage needs from the earlier stages.
type Input struct {
	JobID             string
	WorkDir           string
	Slides            []string
	NarrationPath     string
	NarrationDuration time.Duration
}

// Composer loops each slide for an equal share of the narration, muxes the
// narration track, and hands the result to the artifact sink.
type Composer struct {
	runner CommandRunner
	sink   artifact.Sink
	fps    int
	preset string
	crf    int
	log    *zap.Logger
}

func NewComposer(sink artifact.Sink, log *zap.Logger) *Composer {
	return &Composer{
		runner: execRunner,
		sink:   sink,
		fps:    30,
		preset: "fast",
		crf:    23,
		log:    log,
	}
}

// NewComposerWithRunner is used by tests to stub the encoder.
func NewComposerWithRunner(sink artifact.Sink, runner CommandRunner, log *zap.Logger) *Composer {
	c := NewComposer(sink, log)
	c.runner = runner
	return c
}

// Compose encodes and publishes the final artifact, returning its URL.
func (c *Composer) Compose(ctx context.Context, in Input) (string, error) {
	if len(in.Slides) == 0 {
		return "", fmt.Errorf("no slides to compose")
	}

	outPath := filepath.Join(in.WorkDir, "final.mp4")
	args := c.buildArgs(in, outPath)

	output, err := c.runner(ctx, "ffmpeg", args...)
	if err != nil {
		return "", fmt.Errorf("ffmpeg: %w: %s", err, tail(output, 2048))
	}

	url, err := c.sink.Store(ctx, in.JobID, outPath)
	if err != nil {
		return "", err
	}

	c.log.Info("video composed",
		zap.String("job_id", in.JobID),
		zap.String("url", url),
		zap.Duration("narration", in.NarrationDuration),
	)
	return url, nil
}

// buildArgs emits the fixed encoder grammar: one looped image input per
// slide held for narration/len(slides) seconds, a concat filter, the
// single narration track, and -shortest so the output is truncated to the
// shorter of the two streams.
func (c *Composer) buildArgs(in Input, outPath string) []string {
	perSlide := in.NarrationDuration.Seconds() / float64(len(in.Slides))

	args := []string{"-y"}
	for _, slide := range in.Slides {
		args = append(args,
			"-loop", "1",
			"-t", strconv.FormatFloat(perSlide, 'f', 3, 64),
			"-i", slide,
		)
	}
	args = append(args, "-i", in.NarrationPath)

	concat := fmt.Sprintf("concat=n=%d:v=1:a=0,fps=%d[v]", len(in.Slides), c.fps)
	args = append(args,
		"-filter_complex", concat,
		"-map", "[v]",
		"-map", fmt.Sprintf("%d:a", len(in.Slides)),
		"-c:v", "libx264",
		"-preset", c.preset,
		"-crf", strconv.Itoa(c.crf),
		"-c:a", "aac",
		"-shortest",
		outPath,
	)
	return args
}

func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
