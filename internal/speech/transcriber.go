// Package speech turns recorded voice messages into utterances.
package speech

import (
	"context"
	"fmt"
	"strings"

	speechapi "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Transcriber converts a validated WAV clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// GoogleTranscriber uses Google Cloud Speech-to-Text.
type GoogleTranscriber struct {
	client   *speechapi.Client
	language string
	log      *zap.Logger
}

func NewGoogleTranscriber(ctx context.Context, credentialsFile, language string, logger *zap.Logger) (*GoogleTranscriber, error) {
	client, err := speechapi.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initializing speech client: %w", err)
	}
	if language == "" {
		language = "en-US"
	}
	return &GoogleTranscriber{client: client, language: language, log: logger.Named("speech")}, nil
}

func (g *GoogleTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if err := ValidateWAV(wav); err != nil {
		return "", err
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   SampleRateHertz,
			LanguageCode:      g.language,
			AudioChannelCount: 1,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: wav},
		},
	}

	resp, err := g.client.Recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("speech recognition: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		// Alternatives are ordered by confidence; keep the best one.
		if len(result.Alternatives) > 0 {
			parts = append(parts, strings.TrimSpace(result.Alternatives[0].Transcript))
		}
	}
	text := strings.Join(parts, " ")
	g.log.Debug("transcribed", zap.Int("bytes", len(wav)), zap.Int("chars", len(text)))
	return text, nil
}

func (g *GoogleTranscriber) Close() error {
	return g.client.Close()
}
