package http

import (
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/verbis/internal/service"
)

type Controllers struct {
	Users        *UserController
	Rooms        *RoomController
	Translations *TranslationController
	Speech       *SpeechController
	Realtime     *RealtimeController
}

func SetupRouter(corsOrigins []string, users service.UserInteractor, c Controllers) *gin.Engine {
	router := gin.Default()
	config := cors.DefaultConfig()
	if len(corsOrigins) == 0 || slices.Contains(corsOrigins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = corsOrigins
		config.AllowCredentials = true
	}
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
		legacyTokenHdr,
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := AuthMiddleware(users, false)
	api := router.Group("/api")

	if c.Users != nil {
		g := api.Group("/users")
		g.POST("/register", c.Users.Register)
		g.POST("/login", c.Users.Login)
		g.GET("/me", auth, c.Users.Me)
		g.PUT("/profile", auth, c.Users.UpdateProfile)
	}

	if c.Rooms != nil {
		g := api.Group("/rooms", auth)
		g.POST("/create", c.Rooms.CreateRoom)
		g.POST("/join", c.Rooms.JoinRoom)
		g.GET("/list", c.Rooms.ListRooms)
		g.GET("/:roomID", c.Rooms.GetRoomDetails)
		g.POST("/:roomID/leave", c.Rooms.LeaveRoom)
	}

	if c.Translations != nil {
		g := api.Group("/translate")
		g.GET("/languages", c.Translations.Languages)
		g.POST("/text", auth, c.Translations.TranslateText)
	}

	if c.Speech != nil {
		g := api.Group("/speech", auth)
		g.POST("/transcribe", c.Speech.Transcribe)
		g.POST("/synthesize", c.Speech.Synthesize)
	}

	if c.Realtime != nil {
		router.GET("/ws", AuthMiddleware(users, true), c.Realtime.Connect)
	}

	return router
}
