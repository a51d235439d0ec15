package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter assembles the REST, websocket, and admin surfaces.
func NewRouter(sessions *SessionHandler, admin *AdminHandler, ws *WSHandler, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/ws", ws.ServeWS)

	api := r.Group("/api")
	{
		api.POST("/sessions", sessions.CreateSession)
		api.GET("/sessions/:id", sessions.GetSession)
		api.GET("/sessions/by-code/:code", sessions.GetSessionByCode)
		api.POST("/sessions/:id/join", sessions.Join)
		api.POST("/sessions/:id/start", sessions.Start)
		api.POST("/sessions/:id/next", sessions.Next)
		api.POST("/sessions/:id/stop", sessions.Stop)
		api.POST("/sessions/:id/answer", sessions.SubmitAnswer)
		api.POST("/sessions/:id/leave", sessions.Leave)
		api.POST("/sessions/:id/start-timer", sessions.StartTimer)

		questions := api.Group("/admin/questions")
		{
			questions.GET("", admin.List)
			questions.POST("", admin.Create)
			questions.POST("/import", admin.Import)
			questions.PUT("/:id", admin.Update)
			questions.DELETE("/:id", admin.Delete)
		}
	}

	return r
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
