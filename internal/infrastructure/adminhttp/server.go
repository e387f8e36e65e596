package adminhttp

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"dealscout/internal/domain"
	"dealscout/internal/infrastructure/rss"
	"dealscout/internal/infrastructure/telegramsrc"
	"dealscout/internal/ports"
	"dealscout/internal/source"
	"dealscout/internal/usecase"
)

// Server is the administrative boundary: stats, manual trigger, and runtime
// source registration. Mutating endpoints require the shared secret; with
// no secret configured they are disabled rather than open.
type Server struct {
	pipeline *usecase.Pipeline
	registry *source.Registry
	catalog  ports.CatalogRepository
	secret   string
	logger   *slog.Logger
}

// NewServer wires the admin surface.
func NewServer(pipeline *usecase.Pipeline, registry *source.Registry, catalog ports.CatalogRepository, secret string, logger *slog.Logger) *Server {
	return &Server{
		pipeline: pipeline,
		registry: registry,
		catalog:  catalog,
		secret:   secret,
		logger:   logger,
	}
}

// Routes builds the gin handler.
func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.health)
	router.GET("/stats", s.stats)
	router.POST("/trigger", s.trigger)
	router.POST("/add-channel", s.addChannel)
	router.POST("/add-rss", s.addRSS)
	router.GET("/review", s.review)

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) stats(c *gin.Context) {
	counts := s.registry.CountByType()
	c.JSON(http.StatusOK, gin.H{
		"queueSize":      s.pipeline.QueueSize(),
		"processedCount": s.pipeline.ProcessedCount(),
		"sources": gin.H{
			"telegram": counts[domain.SourceTelegram],
			"rss":      counts[domain.SourceRSS],
			"actor":    counts[domain.SourceActor],
		},
		"autoPublishThreshold": s.pipeline.TriageThresholds().AutoPublish,
	})
}

func (s *Server) trigger(c *gin.Context) {
	if !s.authorized(c) {
		return
	}

	summary, err := s.pipeline.RunCycle(c.Request.Context())
	if errors.Is(err, usecase.ErrCycleRunning) {
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "stats": summaryJSON(summary)})
}

func (s *Server) addChannel(c *gin.Context) {
	if !s.authorized(c) {
		return
	}

	channel := c.Query("channel")
	if channel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "channel is required"})
		return
	}

	added := s.registry.Register(telegramsrc.New(channel, nil))
	if added && s.logger != nil {
		s.logger.Info("telegram channel registered", "channel", channel)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "added": added})
}

func (s *Server) addRSS(c *gin.Context) {
	if !s.authorized(c) {
		return
	}

	feedURL := c.Query("url")
	if feedURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "url is required"})
		return
	}
	name := c.Query("name")
	if name == "" {
		name = feedURL
	}

	added := s.registry.Register(rss.New(name, feedURL, nil))
	if added && s.logger != nil {
		s.logger.Info("rss feed registered", "url", feedURL)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "added": added})
}

func (s *Server) review(c *gin.Context) {
	if !s.authorized(c) {
		return
	}
	if s.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "review sink not configured"})
		return
	}

	items, err := s.catalog.PendingReviews(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

// authorized validates ?secret= in constant time; a missing configured
// secret disables the endpoint entirely.
func (s *Server) authorized(c *gin.Context) bool {
	provided := c.Query("secret")
	if s.secret == "" ||
		subtle.ConstantTimeCompare([]byte(provided), []byte(s.secret)) != 1 {
		c.JSON(http.StatusForbidden, gin.H{"ok": false})
		return false
	}
	return true
}

func summaryJSON(summary domain.CycleSummary) gin.H {
	return gin.H{
		"startedAt":  summary.StartedAt,
		"durationMs": summary.Duration.Milliseconds(),
		"fetched": gin.H{
			"telegram": summary.Fetched[domain.SourceTelegram],
			"rss":      summary.Fetched[domain.SourceRSS],
			"actor":    summary.Fetched[domain.SourceActor],
		},
		"filtered":   summary.Filtered,
		"duplicates": summary.Duplicates,
		"enqueued":   summary.Enqueued,
		"classified": summary.Classified,
		"published":  summary.Published,
		"queued":     summary.Queued,
		"rejected":   summary.Rejected,
		"errors":     summary.Errors,
	}
}
