package provider

import (
	"context"
	"errors"
	"fmt"
)

//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks

// Provider is the external machine translation and speech backend.
// Implementations never retry; callers decide what to do with a failure.
type Provider interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	SpeechToText(ctx context.Context, audio []byte, filename, languageHint string) (string, error)
	TextToSpeech(ctx context.Context, text, voice string) ([]byte, error)
	Model() string
}

type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"
	KindMalformed   ErrorKind = "malformed"
	KindRejected    ErrorKind = "rejected"
	KindTimeout     ErrorKind = "timeout"
	KindUnavailable ErrorKind = "unavailable"
)

// ProviderError is the only error type returned by a Provider.
type ProviderError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a ProviderError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind == kind
	}
	return false
}

const DefaultVoice = "alloy"

var voices = []string{"alloy", "ash", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer"}

func Voices() []string {
	out := make([]string, len(voices))
	copy(out, voices)
	return out
}

func IsSupportedVoice(voice string) bool {
	for _, v := range voices {
		if v == voice {
			return true
		}
	}
	return false
}
