package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/verbis/internal/api/http/converter"
	"github.com/immxrtalbeast/verbis/internal/domain"
	"github.com/immxrtalbeast/verbis/internal/service"
)

type RoomController struct {
	rooms service.RoomInteractor
	log   *slog.Logger
}

func NewRoomController(rooms service.RoomInteractor, log *slog.Logger) *RoomController {
	return &RoomController{rooms: rooms, log: log}
}

func (c *RoomController) CreateRoom(ctx *gin.Context) {
	type settings struct {
		RecordConversation    *bool `json:"recordConversation"`
		AllowJoinRequests     *bool `json:"allowJoinRequests"`
		AutoTranslateMessages *bool `json:"autoTranslateMessages"`
	}
	type request struct {
		Name               string    `json:"name" binding:"required"`
		SupportedLanguages []string  `json:"supportedLanguages"`
		IsPrivate          bool      `json:"isPrivate"`
		MaxParticipants    int       `json:"maxParticipants"`
		Settings           *settings `json:"settings"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorResponse(ctx, http.StatusBadRequest, "room name is required")
		return
	}

	in := service.CreateRoomInput{
		Name:               req.Name,
		SupportedLanguages: req.SupportedLanguages,
		IsPrivate:          req.IsPrivate,
		MaxParticipants:    req.MaxParticipants,
	}
	if req.Settings != nil {
		s := domain.DefaultRoomSettings()
		if req.Settings.RecordConversation != nil {
			s.RecordConversation = *req.Settings.RecordConversation
		}
		if req.Settings.AllowJoinRequests != nil {
			s.AllowJoinRequests = *req.Settings.AllowJoinRequests
		}
		if req.Settings.AutoTranslateMessages != nil {
			s.AutoTranslateMessages = *req.Settings.AutoTranslateMessages
		}
		in.Settings = &s
	}

	room, participant, err := c.rooms.CreateRoom(ctx.Request.Context(), identity(ctx).UserID, in)
	if err != nil {
		handleServiceError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"room":     converter.RoomToApi(room),
		"userInfo": converter.ParticipantToApi(participant),
	})
}

func (c *RoomController) JoinRoom(ctx *gin.Context) {
	type request struct {
		RoomCode          string `json:"roomCode" binding:"required"`
		SpeakingLanguage  string `json:"speakingLanguage"`
		ListeningLanguage string `json:"listeningLanguage"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorResponse(ctx, http.StatusBadRequest, "roomCode is required")
		return
	}

	room, participant, err := c.rooms.JoinRoom(ctx.Request.Context(), identity(ctx).UserID, req.RoomCode, req.SpeakingLanguage, req.ListeningLanguage)
	if err != nil {
		handleServiceError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"room":        converter.RoomToApi(room),
		"participant": converter.ParticipantToApi(participant),
	})
}

func (c *RoomController) ListRooms(ctx *gin.Context) {
	rooms, err := c.rooms.ListRooms(ctx.Request.Context(), identity(ctx).UserID)
	if err != nil {
		handleServiceError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, converter.RoomsToApi(rooms))
}

func (c *RoomController) GetRoomDetails(ctx *gin.Context) {
	roomID, err := uuid.Parse(ctx.Param("roomID"))
	if err != nil {
		errorResponse(ctx, http.StatusBadRequest, "invalid room id")
		return
	}

	room, participants, err := c.rooms.GetRoomDetails(ctx.Request.Context(), roomID, identity(ctx).UserID)
	if err != nil {
		handleServiceError(ctx, c.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"room":         converter.RoomToApi(room),
		"participants": converter.ParticipantDetailsToApi(participants),
	})
}

func (c *RoomController) LeaveRoom(ctx *gin.Context) {
	roomID, err := uuid.Parse(ctx.Param("roomID"))
	if err != nil {
		errorResponse(ctx, http.StatusBadRequest, "invalid room id")
		return
	}

	if err := c.rooms.LeaveRoom(ctx.Request.Context(), roomID, identity(ctx).UserID); err != nil {
		handleServiceError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "left the room"})
}
