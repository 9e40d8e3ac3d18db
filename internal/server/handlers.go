package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mzolotukhin/daybook/internal/store"
	"github.com/mzolotukhin/daybook/internal/summarizer"
	"github.com/mzolotukhin/daybook/internal/transcriber"
)

type mediumSummaryRequest struct {
	Text string `json:"text" binding:"required"`
}

type dayResponse struct {
	*store.Day
	Fragments []*store.Fragment `json:"fragments"`
}

func (s *Server) Health(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok"})
}

func (s *Server) GetStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.logger.Error("stats failed", "err", err)
		RespondError(c, http.StatusInternalServerError, "stats_failed", err)
		return
	}
	RespondOK(c, stats)
}

func (s *Server) ListDays(c *gin.Context) {
	days, err := s.store.Days(c.Request.Context())
	if err != nil {
		s.logger.Error("list days failed", "err", err)
		RespondError(c, http.StatusInternalServerError, "load_days_failed", err)
		return
	}
	RespondOK(c, gin.H{"days": days})
}

func (s *Server) GetDay(c *gin.Context) {
	date, ok := s.dateParam(c)
	if !ok {
		return
	}

	day, err := s.store.Day(c.Request.Context(), date)
	if err != nil {
		s.respondStoreError(c, "load_day_failed", err)
		return
	}
	fragments, err := s.store.FragmentsByDay(c.Request.Context(), date)
	if err != nil {
		s.respondStoreError(c, "load_fragments_failed", err)
		return
	}
	RespondOK(c, dayResponse{Day: day, Fragments: fragments})
}

func (s *Server) GetPlaylist(c *gin.Context) {
	date, ok := s.dateParam(c)
	if !ok {
		return
	}

	pl, err := s.playlist.Build(c.Request.Context(), date)
	if err != nil {
		s.respondStoreError(c, "build_playlist_failed", err)
		return
	}
	RespondOK(c, pl)
}

func (s *Server) ExportDay(c *gin.Context) {
	date, ok := s.dateParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	day, err := s.store.Day(ctx, date)
	if err != nil {
		s.respondStoreError(c, "load_day_failed", err)
		return
	}
	fragments, err := s.store.FragmentsByDay(ctx, date, store.StateTranscribed)
	if err != nil {
		s.respondStoreError(c, "load_fragments_failed", err)
		return
	}

	path := filepath.Join(os.TempDir(), "daybook-"+date+".docx")
	if err := summarizer.ExportDocx(day, fragments, path); err != nil {
		s.logger.Error("docx export failed", "day", date, "err", err)
		RespondError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	defer os.Remove(path)

	c.FileAttachment(path, date+".docx")
}

func (s *Server) PutMediumSummary(c *gin.Context) {
	date, ok := s.dateParam(c)
	if !ok {
		return
	}

	var req mediumSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	if err := s.summarizer.SaveMedium(c.Request.Context(), date, req.Text); err != nil {
		if errors.Is(err, summarizer.ErrEmptySummary) {
			RespondError(c, http.StatusBadRequest, "empty_summary", err)
			return
		}
		s.respondStoreError(c, "save_summary_failed", err)
		return
	}

	day, err := s.store.Day(c.Request.Context(), date)
	if err != nil {
		s.respondStoreError(c, "load_day_failed", err)
		return
	}
	RespondOK(c, day)
}

func (s *Server) GenerateShortSummary(c *gin.Context) {
	date, ok := s.dateParam(c)
	if !ok {
		return
	}

	text, err := s.summarizer.GenerateShort(c.Request.Context(), date)
	if err != nil {
		var genErr *summarizer.GenerationError
		switch {
		case errors.Is(err, summarizer.ErrNoMediumSummary):
			RespondError(c, http.StatusPreconditionFailed, "no_medium_summary", err)
		case errors.As(err, &genErr):
			RespondError(c, http.StatusBadGateway, "generation_failed", err)
		default:
			s.respondStoreError(c, "generate_summary_failed", err)
		}
		return
	}
	RespondOK(c, gin.H{"date": date, "short_summary": text})
}

func (s *Server) GetFragment(c *gin.Context) {
	id, ok := s.idParam(c)
	if !ok {
		return
	}

	fr, err := s.store.Fragment(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, "load_fragment_failed", err)
		return
	}
	RespondOK(c, fr)
}

func (s *Server) RetryFragment(c *gin.Context) {
	id, ok := s.idParam(c)
	if !ok {
		return
	}

	if err := s.transcriber.Retry(c.Request.Context(), id); err != nil {
		if errors.Is(err, transcriber.ErrNotRetryable) {
			RespondError(c, http.StatusConflict, "not_retryable", err)
			return
		}
		s.respondStoreError(c, "retry_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": id, "state": store.StateTranscribing})
}

func (s *Server) RegenerateFragment(c *gin.Context) {
	id, ok := s.idParam(c)
	if !ok {
		return
	}

	if err := s.transcriber.Regenerate(c.Request.Context(), id); err != nil {
		if errors.Is(err, transcriber.ErrNotRegenerable) {
			RespondError(c, http.StatusConflict, "not_regenerable", err)
			return
		}
		s.respondStoreError(c, "regenerate_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": id, "state": store.StateTranscribing})
}

func (s *Server) ServeAudio(c *gin.Context) {
	id, ok := s.idParam(c)
	if !ok {
		return
	}

	fr, err := s.store.Fragment(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, "load_fragment_failed", err)
		return
	}
	if _, err := os.Stat(fr.FilePath); err != nil {
		RespondError(c, http.StatusNotFound, "audio_missing", err)
		return
	}

	c.Header("Content-Type", "audio/wav")
	c.File(fr.FilePath)
}

func (s *Server) dateParam(c *gin.Context) (string, bool) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_date", err)
		return "", false
	}
	return date, true
}

func (s *Server) idParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) respondStoreError(c *gin.Context, code string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	s.logger.Error("request failed", "code", code, "err", err)
	RespondError(c, http.StatusInternalServerError, code, err)
}
