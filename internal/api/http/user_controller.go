package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/verbis/internal/api/http/converter"
	"github.com/immxrtalbeast/verbis/internal/service"
)

type UserController struct {
	users service.UserInteractor
	log   *slog.Logger
}

func NewUserController(users service.UserInteractor, log *slog.Logger) *UserController {
	return &UserController{users: users, log: log}
}

func (c *UserController) Register(ctx *gin.Context) {
	type request struct {
		Email             string `json:"email" binding:"required"`
		Password          string `json:"password" binding:"required"`
		Name              string `json:"name" binding:"required"`
		PreferredLanguage string `json:"preferredLanguage"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorResponse(ctx, http.StatusBadRequest, "email, password and name are required")
		return
	}

	token, user, err := c.users.Register(ctx.Request.Context(), service.RegisterInput{
		Email:             req.Email,
		Password:          req.Password,
		Name:              req.Name,
		PreferredLanguage: req.PreferredLanguage,
	})
	if err != nil {
		handleServiceError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"token": token, "user": converter.UserToApi(user)})
}

func (c *UserController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorResponse(ctx, http.StatusBadRequest, "email and password are required")
		return
	}

	token, user, err := c.users.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token, "user": converter.UserToApi(user)})
}

func (c *UserController) Me(ctx *gin.Context) {
	user, err := c.users.GetUser(ctx.Request.Context(), identity(ctx).UserID)
	if err != nil {
		handleServiceError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, converter.UserToApi(user))
}

func (c *UserController) UpdateProfile(ctx *gin.Context) {
	type request struct {
		Name              string `json:"name"`
		PreferredLanguage string `json:"preferredLanguage"`
		ProfilePictureURL string `json:"profilePictureUrl"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorResponse(ctx, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := c.users.UpdateProfile(ctx.Request.Context(), identity(ctx).UserID, service.ProfileUpdate{
		Name:              req.Name,
		PreferredLanguage: req.PreferredLanguage,
		ProfilePictureURL: req.ProfilePictureURL,
	})
	if err != nil {
		handleServiceError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, converter.UserToApi(user))
}
