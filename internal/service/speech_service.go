package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/immxrtalbeast/verbis/internal/domain"
	"github.com/immxrtalbeast/verbis/internal/provider"
	"github.com/immxrtalbeast/verbis/lib/logger/sl"
)

const maxAudioBytes = 25 << 20

type SpeechService struct {
	log      *slog.Logger
	provider provider.Provider
}

func NewSpeechService(p provider.Provider, log *slog.Logger) *SpeechService {
	return &SpeechService{log: log, provider: p}
}

func (s *SpeechService) Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error) {
	const op = "service.speech.transcribe"
	log := s.log.With(slog.String("op", op), slog.String("language", language))

	if len(audio) == 0 {
		return "", invalid("audio", "audio file is required")
	}
	if len(audio) > maxAudioBytes {
		return "", invalid("audio", "audio file is too large")
	}
	if language == "" {
		language = domain.DefaultLanguage
	}
	if !domain.IsSupportedLanguage(language) {
		return "", invalid("language", "unsupported language")
	}

	text, err := s.provider.SpeechToText(ctx, audio, filename, language)
	if err != nil {
		log.Error("transcription failed", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return text, nil
}

func (s *SpeechService) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	const op = "service.speech.synthesize"
	log := s.log.With(slog.String("op", op), slog.String("voice", voice))

	if strings.TrimSpace(text) == "" {
		return nil, invalid("text", "text is required")
	}
	if voice == "" {
		voice = provider.DefaultVoice
	}
	if !provider.IsSupportedVoice(voice) {
		return nil, invalid("voice", "unsupported voice")
	}

	audio, err := s.provider.TextToSpeech(ctx, text, voice)
	if err != nil {
		log.Error("speech synthesis failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return audio, nil
}
