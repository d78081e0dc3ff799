package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/peer-relay/config"
	"github.com/rs/zerolog/log"
)

// Server groups the handlers mounted on the engine
type Server struct {
	Rooms     *RoomHandler
	Uploads   *UploadHandler
	Signaling *SignalingHandler
}

// SetupRouter builds the gin engine with every route of the relay
func SetupRouter(cfg *config.Config, srv Server) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger())

	// Global CORS middleware (runs before routing)
	router.Use(OriginFilter(cfg.AllowedOrigins))

	router.MaxMultipartMemory = 32 << 20

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Room metadata
	router.POST("/create-room", srv.Rooms.CreateRoom)
	router.GET("/room-info", srv.Rooms.GetRoomInfo)
	router.POST("/validate-room", srv.Rooms.ValidateRoom)

	// Recordings
	router.POST("/upload", srv.Uploads.Upload)
	router.Static(RecordingsPath, cfg.RecordingsDir)

	// Operator view
	router.GET("/api/rooms", srv.Rooms.ListRooms)

	// WebSocket signaling endpoint
	router.GET("/ws", srv.Signaling.HandleSignaling)

	router.NoRoute(StaticFiles(cfg.StaticDir))

	log.Info().Str("module", "handlers").Str("static", cfg.StaticDir).Str("recordings", cfg.RecordingsDir).Msg("router setup")
	return router
}

// StaticFiles serves files from dir for GET and HEAD requests without
// directory listings
func StaticFiles(dir string) gin.HandlerFunc {
	files := http.FileServer(gin.Dir(dir, false))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}
