package narration

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/AfikDanan/DayZeroAI/internal/models"
)

// Format used when the script is empty and no clip dictates one.
const (
	defaultSampleRate = 24000
	defaultBitDepth   = 16
	defaultChannels   = 1
)

// Gap inserted before each clip.
const clipGap = 500 * time.Millisecond

// Result is the narration artifact handed to the compose stage.
type Result struct {
	Path     string
	Duration time.Duration
}

// Renderer synthesizes one clip per script line and joins them into a
// single WAV, with a fixed silence preceding every clip and none trailing
// the last. Total duration is sum(clips) + len(script) * gap.
type Renderer struct {
	synth Synthesizer
	log   *zap.Logger
}

func NewRenderer(synth Synthesizer, log *zap.Logger) *Renderer {
	return &Renderer{synth: synth, log: log}
}

// Render writes the narration artifact into workDir and reports its
// duration. An empty script still exports a valid zero-length artifact.
func (r *Renderer) Render(ctx context.Context, script models.Script, workDir string) (Result, error) {
	sampleRate := defaultSampleRate
	bitDepth := defaultBitDepth
	channels := defaultChannels

	var pcm []int
	for i, line := range script {
		raw, err := r.synth.Synthesize(ctx, line.Text, line.Speaker)
		if err != nil {
			return Result{}, fmt.Errorf("synthesize clip %d (%s): %w", i, line.Speaker, err)
		}

		dec := wav.NewDecoder(bytes.NewReader(raw))
		buf, err := dec.FullPCMBuffer()
		if err != nil {
			return Result{}, fmt.Errorf("decode clip %d: %w", i, err)
		}
		if buf.Format == nil {
			return Result{}, fmt.Errorf("decode clip %d: missing format", i)
		}

		if i == 0 {
			sampleRate = buf.Format.SampleRate
			channels = buf.Format.NumChannels
			bitDepth = int(dec.BitDepth)
		} else if buf.Format.SampleRate != sampleRate || buf.Format.NumChannels != channels {
			return Result{}, fmt.Errorf("clip %d format mismatch: %d Hz/%d ch, want %d Hz/%d ch",
				i, buf.Format.SampleRate, buf.Format.NumChannels, sampleRate, channels)
		}

		pcm = append(pcm, silenceSamples(sampleRate, channels)...)
		pcm = append(pcm, buf.Data...)
	}

	path := filepath.Join(workDir, "narration.wav")
	if err := writeWAV(path, pcm, sampleRate, bitDepth, channels); err != nil {
		return Result{}, err
	}

	frames := len(pcm) / channels
	duration := time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
	r.log.Info("narration rendered",
		zap.Int("clips", len(script)),
		zap.Duration("duration", duration),
	)
	return Result{Path: path, Duration: duration}, nil
}

func silenceSamples(sampleRate, channels int) []int {
	n := int(clipGap.Seconds()*float64(sampleRate)) * channels
	return make([]int, n)
}

func writeWAV(path string, pcm []int, sampleRate, bitDepth, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create narration file: %w", err)
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		Data:           pcm,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("write narration samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize narration file: %w", err)
	}
	return f.Close()
}
