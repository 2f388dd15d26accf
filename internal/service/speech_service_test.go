package service

import (
	"context"
	"errors"
	"testing"

	"github.com/immxrtalbeast/verbis/internal/provider"
	"github.com/immxrtalbeast/verbis/internal/provider/mocks"
	"github.com/immxrtalbeast/verbis/lib/logger/slogdiscard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSpeechService_Transcribe(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockProvider(ctrl)
	svc := NewSpeechService(p, slogdiscard.NewDiscardLogger())

	p.EXPECT().SpeechToText(gomock.Any(), []byte("pcm"), "a.webm", "en").Return("hello there", nil)

	text, err := svc.Transcribe(context.Background(), []byte("pcm"), "a.webm", "")
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)

	_, err = svc.Transcribe(context.Background(), nil, "a.webm", "en")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSpeechService_Synthesize(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockProvider(ctrl)
	svc := NewSpeechService(p, slogdiscard.NewDiscardLogger())

	p.EXPECT().TextToSpeech(gomock.Any(), "merhaba", "alloy").Return([]byte("mp3"), nil)
	audio, err := svc.Synthesize(context.Background(), "merhaba", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3"), audio)

	_, err = svc.Synthesize(context.Background(), "merhaba", "robot")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	perr := &provider.ProviderError{Op: "synthesize", Kind: provider.KindRejected, Err: errors.New("nope")}
	p.EXPECT().TextToSpeech(gomock.Any(), "merhaba", "nova").Return(nil, perr)
	_, err = svc.Synthesize(context.Background(), "merhaba", "nova")
	assert.True(t, provider.IsKind(err, provider.KindRejected))
}
