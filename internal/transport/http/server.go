package http

import (
	stdhttp "net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ospanenko/chesswire-server/internal/config"
)

// NewServer builds the HTTP surface: heartbeat, the websocket endpoint, and
// optionally the built frontend.
func NewServer(router *Router, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware(logger))
	engine.Use(RateLimitMiddleware(cfg.HTTPRateRPS, cfg.HTTPRateBurst))

	engine.GET("/heartbeat", heartbeatHandler)
	engine.GET("/ws", gin.WrapH(NewWSHandler(router, logger)))

	// A reverse proxy serves assets in production; static_dir is for
	// development and self-contained deployments.
	if cfg.StaticDir != "" {
		engine.Static("/assets", filepath.Join(cfg.StaticDir, "assets"))
		index := filepath.Join(cfg.StaticDir, "index.html")
		engine.NoRoute(func(c *gin.Context) {
			if c.Request.Method != stdhttp.MethodGet {
				c.Status(stdhttp.StatusNotFound)
				return
			}
			c.File(index)
		})
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func heartbeatHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"status": "healthy"})
}
