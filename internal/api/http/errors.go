package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/verbis/internal/provider"
	"github.com/immxrtalbeast/verbis/internal/service"
	"github.com/immxrtalbeast/verbis/lib/logger/sl"
)

func errorResponse(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, gin.H{"error": message})
}

// handleServiceError maps service and provider errors to HTTP responses.
// Messages of unexpected errors never reach the client.
func handleServiceError(ctx *gin.Context, log *slog.Logger, err error) {
	var (
		verr *service.ValidationError
		terr *service.TranslationError
		perr *provider.ProviderError
	)

	switch {
	case errors.As(err, &verr):
		errorResponse(ctx, http.StatusBadRequest, verr.Error())
	case errors.Is(err, service.ErrUnauthorized):
		errorResponse(ctx, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrForbidden):
		errorResponse(ctx, http.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrNotFound):
		errorResponse(ctx, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrRoomFull):
		errorResponse(ctx, http.StatusConflict, "room is full")
	case errors.Is(err, service.ErrConflict):
		errorResponse(ctx, http.StatusConflict, "already exists")
	case errors.As(err, &terr), errors.As(err, &perr):
		log.Warn("upstream provider failure", slog.String("path", ctx.FullPath()), sl.Err(err))
		errorResponse(ctx, http.StatusBadGateway, upstreamMessage(err))
	default:
		log.Error("unhandled internal error", slog.String("path", ctx.FullPath()), sl.Err(err))
		errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func upstreamMessage(err error) string {
	switch {
	case provider.IsKind(err, provider.KindTimeout):
		return "translation provider timed out"
	case provider.IsKind(err, provider.KindUnavailable):
		return "translation provider unavailable"
	default:
		return "translation provider error"
	}
}
