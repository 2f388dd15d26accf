package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/verbis/internal/service"
)

const (
	identityKey     = "identity"
	legacyTokenHdr  = "x-auth-token"
	tokenQueryParam = "token"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID uuid.UUID
}

type identityCtxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}

// AuthMiddleware accepts a bearer token, the legacy x-auth-token header or,
// when allowQuery is set, a token query parameter.
func AuthMiddleware(users service.UserInteractor, allowQuery bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := extractToken(ctx, allowQuery)
		if token == "" {
			errorResponse(ctx, http.StatusUnauthorized, "authorization token is required")
			return
		}

		userID, err := users.Authenticate(ctx.Request.Context(), token)
		if err != nil {
			errorResponse(ctx, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		id := Identity{UserID: userID}
		ctx.Set(identityKey, id)
		ctx.Request = ctx.Request.WithContext(WithIdentity(ctx.Request.Context(), id))
		ctx.Next()
	}
}

func extractToken(ctx *gin.Context, allowQuery bool) string {
	if header := ctx.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if token := ctx.GetHeader(legacyTokenHdr); token != "" {
		return token
	}
	if allowQuery {
		return ctx.Query(tokenQueryParam)
	}
	return ""
}

func identity(ctx *gin.Context) Identity {
	if v, ok := ctx.Get(identityKey); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}
