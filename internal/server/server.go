package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mzolotukhin/daybook/internal/config"
	"github.com/mzolotukhin/daybook/internal/logger"
	"github.com/mzolotukhin/daybook/internal/playlist"
	"github.com/mzolotukhin/daybook/internal/store"
	"github.com/mzolotukhin/daybook/internal/summarizer"
	"github.com/mzolotukhin/daybook/internal/transcriber"
)

// Server exposes the pipeline's read and control API.
type Server struct {
	cfg         *config.Config
	store       store.Store
	summarizer  summarizer.Summarizer
	playlist    *playlist.Builder
	transcriber transcriber.Transcriber
	logger      logger.Logger
	http        *http.Server
}

func New(cfg *config.Config, st store.Store, sum summarizer.Summarizer, pb *playlist.Builder, tr transcriber.Transcriber, log logger.Logger) *Server {
	s := &Server{
		cfg:         cfg,
		store:       st,
		summarizer:  sum,
		playlist:    pb,
		transcriber: tr,
		logger:      log.With("component", "server"),
	}
	s.http = &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: s.Router(),
	}
	return s
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.Health)
	r.GET("/stats", s.GetStats)

	days := r.Group("/days")
	{
		days.GET("", s.ListDays)
		days.GET("/:date", s.GetDay)
		days.GET("/:date/playlist", s.GetPlaylist)
		days.GET("/:date/export", s.ExportDay)
		days.PUT("/:date/summaries/medium", s.PutMediumSummary)
		days.POST("/:date/summaries/short", s.GenerateShortSummary)
	}

	fragments := r.Group("/fragments")
	{
		fragments.GET("/:id", s.GetFragment)
		fragments.POST("/:id/retry", s.RetryFragment)
		fragments.POST("/:id/regenerate", s.RegenerateFragment)
	}

	r.GET("/audio/:id", s.ServeAudio)

	return r
}

// Start blocks serving HTTP until shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.cfg.Server.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
