package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/verbis/internal/domain"
	"github.com/immxrtalbeast/verbis/internal/service"
)

type TranslationController struct {
	translations service.TranslationInteractor
	log          *slog.Logger
}

func NewTranslationController(translations service.TranslationInteractor, log *slog.Logger) *TranslationController {
	return &TranslationController{translations: translations, log: log}
}

func (c *TranslationController) TranslateText(ctx *gin.Context) {
	type request struct {
		Text           string `json:"text" binding:"required"`
		SourceLanguage string `json:"sourceLanguage" binding:"required"`
		TargetLanguage string `json:"targetLanguage" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorResponse(ctx, http.StatusBadRequest, "text, sourceLanguage and targetLanguage are required")
		return
	}
	if !domain.IsSupportedLanguage(req.SourceLanguage) || !domain.IsSupportedLanguage(req.TargetLanguage) {
		errorResponse(ctx, http.StatusBadRequest, "unsupported language")
		return
	}

	translated, err := c.translations.GetTranslation(ctx.Request.Context(), req.Text, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		handleServiceError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"originalText":     req.Text,
		"originalLanguage": req.SourceLanguage,
		"translatedText":   translated,
		"targetLanguage":   req.TargetLanguage,
		"translationModel": c.translations.Model(),
	})
}

func (c *TranslationController) Languages(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.translations.Languages())
}
