package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

const (
	defaultChatModel = "gpt-3.5-turbo"
	defaultSTTModel  = openai.Whisper1
	defaultTTSModel  = "tts-1"
	defaultTimeout   = 15 * time.Second
	maxTokens        = 1000
	defaultAudioName = "audio.webm"
)

type Options struct {
	APIKey    string
	BaseURL   string
	ChatModel string
	STTModel  string
	TTSModel  string
	Timeout   time.Duration

	// Breaker opens after MaxFailures consecutive failures and stays open
	// for OpenTimeout before letting a probe request through.
	MaxFailures uint32
	OpenTimeout time.Duration

	HTTPClient *http.Client
}

type OpenAI struct {
	log     *slog.Logger
	client  *openai.Client
	breaker *gobreaker.CircuitBreaker
	opts    Options
}

func NewOpenAI(log *slog.Logger, opts Options) *OpenAI {
	if opts.ChatModel == "" {
		opts.ChatModel = defaultChatModel
	}
	if opts.STTModel == "" {
		opts.STTModel = defaultSTTModel
	}
	if opts.TTSModel == "" {
		opts.TTSModel = defaultTTSModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 5
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	p := &OpenAI{
		log:    log,
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openai",
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		// A rejected request says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || IsKind(err, KindRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return p
}

func (p *OpenAI) Model() string {
	return p.opts.ChatModel
}

func (p *OpenAI) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	const op = "translate"

	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s. Only respond with the translation, nothing else.\n\nText: %q",
		sourceLang, targetLang, text,
	)

	out, err := p.execute(ctx, op, func(ctx context.Context) (any, error) {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: p.opts.ChatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			MaxTokens: maxTokens,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, &ProviderError{Op: op, Kind: KindMalformed, Err: errors.New("no choices in response")}
		}
		translated := strings.TrimSpace(resp.Choices[0].Message.Content)
		if translated == "" {
			return nil, &ProviderError{Op: op, Kind: KindMalformed, Err: errors.New("empty translation")}
		}
		return translated, nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (p *OpenAI) SpeechToText(ctx context.Context, audio []byte, filename, languageHint string) (string, error) {
	const op = "transcribe"

	if filename == "" {
		filename = defaultAudioName
	}

	out, err := p.execute(ctx, op, func(ctx context.Context) (any, error) {
		resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    p.opts.STTModel,
			FilePath: filename,
			Reader:   bytes.NewReader(audio),
			Language: languageHint,
		})
		if err != nil {
			return nil, err
		}
		return strings.TrimSpace(resp.Text), nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (p *OpenAI) TextToSpeech(ctx context.Context, text, voice string) ([]byte, error) {
	const op = "synthesize"

	if voice == "" {
		voice = DefaultVoice
	}

	out, err := p.execute(ctx, op, func(ctx context.Context) (any, error) {
		resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
			Model:          openai.SpeechModel(p.opts.TTSModel),
			Input:          text,
			Voice:          openai.SpeechVoice(voice),
			ResponseFormat: openai.SpeechResponseFormatMp3,
		})
		if err != nil {
			return nil, err
		}
		defer resp.Close()

		data, err := io.ReadAll(resp)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, &ProviderError{Op: op, Kind: KindMalformed, Err: errors.New("no audio data received")}
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

// execute bounds fn by the configured timeout, runs it through the breaker
// and normalizes every failure into a *ProviderError.
func (p *OpenAI) execute(ctx context.Context, op string, fn func(ctx context.Context) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	out, err := p.breaker.Execute(func() (interface{}, error) {
		res, err := fn(ctx)
		if err != nil {
			return nil, classify(op, err)
		}
		return res, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &ProviderError{Op: op, Kind: KindUnavailable, Err: err}
		}
		return nil, classify(op, err)
	}
	return out, nil
}

func classify(op string, err error) error {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Op: op, Kind: KindTimeout, Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Op: op, Kind: kindForStatus(apiErr.HTTPStatusCode), Err: errors.New(apiErr.Message)}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{Op: op, Kind: kindForStatus(reqErr.HTTPStatusCode), Err: fmt.Errorf("status %d", reqErr.HTTPStatusCode)}
	}

	return &ProviderError{Op: op, Kind: KindTransport, Err: err}
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return KindUnavailable
	case status >= http.StatusBadRequest:
		return KindRejected
	default:
		return KindMalformed
	}
}
