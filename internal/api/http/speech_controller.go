package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/verbis/internal/domain"
	"github.com/immxrtalbeast/verbis/internal/service"
)

const maxUploadBytes = 25 << 20

type SpeechController struct {
	speech service.SpeechInteractor
	log    *slog.Logger
}

func NewSpeechController(speech service.SpeechInteractor, log *slog.Logger) *SpeechController {
	return &SpeechController{speech: speech, log: log}
}

func (c *SpeechController) Transcribe(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxUploadBytes+1<<20)

	header, err := ctx.FormFile("audio")
	if err != nil {
		errorResponse(ctx, http.StatusBadRequest, "audio file is required")
		return
	}
	if header.Size > maxUploadBytes {
		errorResponse(ctx, http.StatusBadRequest, "audio file is too large")
		return
	}

	file, err := header.Open()
	if err != nil {
		errorResponse(ctx, http.StatusBadRequest, "unreadable audio file")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		errorResponse(ctx, http.StatusBadRequest, "unreadable audio file")
		return
	}

	language := ctx.DefaultPostForm("language", domain.DefaultLanguage)
	text, err := c.speech.Transcribe(ctx.Request.Context(), audio, header.Filename, language)
	if err != nil {
		handleServiceError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"text": text, "language": language})
}

func (c *SpeechController) Synthesize(ctx *gin.Context) {
	type request struct {
		Text  string `json:"text" binding:"required"`
		Voice string `json:"voice"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorResponse(ctx, http.StatusBadRequest, "text is required")
		return
	}

	audio, err := c.speech.Synthesize(ctx.Request.Context(), req.Text, req.Voice)
	if err != nil {
		handleServiceError(ctx, c.log, err)
		return
	}

	ctx.Data(http.StatusOK, "audio/mpeg", audio)
}
