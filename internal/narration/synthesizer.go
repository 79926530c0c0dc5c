package narration

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"github.com/AfikDanan/DayZeroAI/internal/config"
	"github.com/AfikDanan/DayZeroAI/internal/models"
)

// Synthesizer is the speech collaborator: one utterance in, WAV bytes out.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, speaker models.Speaker) ([]byte, error)
}

type voiceProfile struct {
	language string
	name     string
}

// GoogleSynthesizer maps the two host roles onto fixed Cloud TTS voices.
type GoogleSynthesizer struct {
	client *texttospeech.Client
	voices map[models.Speaker]voiceProfile
}

func NewGoogleSynthesizer(ctx context.Context, cfg config.Config) (*GoogleSynthesizer, error) {
	var opts []option.ClientOption
	if cfg.GoogleCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentials))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("text-to-speech client: %w", err)
	}
	return &GoogleSynthesizer{
		client: client,
		voices: map[models.Speaker]voiceProfile{
			models.Host1: {language: cfg.VoiceLanguage, name: cfg.VoiceHost1},
			models.Host2: {language: cfg.VoiceLanguage, name: cfg.VoiceHost2},
		},
	}, nil
}

func (s *GoogleSynthesizer) Close() error {
	return s.client.Close()
}

// Synthesize renders one utterance as 16-bit linear PCM in a WAV container.
// Unknown speakers fall back to the host1 voice.
func (s *GoogleSynthesizer) Synthesize(ctx context.Context, text string, speaker models.Speaker) ([]byte, error) {
	voice, ok := s.voices[speaker]
	if !ok {
		voice = s.voices[models.Host1]
	}

	resp, err := s.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: voice.language,
			Name:         voice.name,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_LINEAR16,
			SpeakingRate:  1.0,
			Pitch:         0.0,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	return resp.AudioContent, nil
}
