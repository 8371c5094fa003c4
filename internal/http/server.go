package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"escrow-giveaway-bot/internal/common/config"
	"escrow-giveaway-bot/internal/common/middleware"
	"escrow-giveaway-bot/internal/ledger"
)

// Server is the keepalive HTTP surface. It exists so hosting platforms
// see a live port and health probes have something to hit; the bot itself
// runs over long polling.
type Server struct {
	srv   *http.Server
	store *ledger.Store
	log   zerolog.Logger
}

func NewServer(cfg *config.Config, store *ledger.Store, log zerolog.Logger) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		store: store,
		log:   log,
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Escrow Giveaway Bot is running.")
	})
	router.GET("/health", s.handleHealth)
	router.GET("/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})
	router.GET("/ready", s.handleHealth)

	return s
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Healthy(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("keepalive server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// SelfPing periodically fetches url until ctx is cancelled. Some free
// hosts idle processes out unless something keeps requesting them.
func SelfPing(ctx context.Context, url string, interval time.Duration, log zerolog.Logger) {
	if url == "" {
		log.Info().Msg("self-ping disabled, set PING_URL to enable")
		return
	}
	log.Info().Str("url", url).Dur("interval", interval).Msg("self-ping enabled")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	client := &http.Client{Timeout: 10 * time.Second}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				log.Warn().Err(err).Msg("self-ping request build failed")
				continue
			}
			resp, err := client.Do(req)
			if err != nil {
				log.Warn().Err(err).Msg("self-ping failed")
				continue
			}
			resp.Body.Close()
			log.Debug().Int("status", resp.StatusCode).Msg("self-ping")
		}
	}
}
