// Package server exposes feeds and the generate pipeline over HTTP.
package server

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hoodini/yuv-ai-trends/internal/feed"
	"github.com/hoodini/yuv-ai-trends/internal/model"
	"github.com/hoodini/yuv-ai-trends/internal/pipeline"
	"github.com/hoodini/yuv-ai-trends/internal/store"
)

const adminHeader = "X-Admin-Token"

type Server struct {
	pipeline   *pipeline.Pipeline
	store      *store.Store
	feeds      *feed.Builder
	adminToken string
	log        *slog.Logger
}

type Option func(*Server)

// WithAdminToken protects administrative routes. Empty leaves them open.
func WithAdminToken(token string) Option { return func(s *Server) { s.adminToken = token } }

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func New(p *pipeline.Pipeline, feeds *feed.Builder, opts ...Option) *Server {
	s := &Server{pipeline: p, store: p.Store(), feeds: feeds, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Engine builds a gin engine with logging, recovery and all routes.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.log), gin.Recovery())
	s.RegisterRoutes(r)
	return r
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/rss/:digest", s.rss)

	api := r.Group("/api")
	{
		api.POST("/generate", s.generate)
		api.GET("/feed/:digest", s.feedJSON)
		api.GET("/rss/new", s.newItems)
		api.GET("/rss/stats", s.stats)
		api.POST("/rss/clear", s.requireAdmin, s.clear)
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http: request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}

func (s *Server) requireAdmin(c *gin.Context) {
	if s.adminToken == "" {
		c.Next()
		return
	}
	got := c.GetHeader(adminHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.adminToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin token"})
		return
	}
	c.Next()
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "items": s.store.Len()})
}

type generateRequest struct {
	TimeRange string `json:"time_range"`
	Limit     int    `json:"limit"`
	DisableAI bool   `json:"disable_ai"`
}

func (s *Server) generate(c *gin.Context) {
	req := generateRequest{TimeRange: string(model.DigestDaily), Limit: pipeline.DefaultLimit}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	digest, err := model.ParseDigestType(req.TimeRange)
	if err != nil {
		badRequest(c, err)
		return
	}
	rep, err := s.pipeline.Run(c.Request.Context(), digest, pipeline.Options{Limit: req.Limit, DisableAI: req.DisableAI})
	if err != nil {
		s.log.Error("http: generate failed", "digest", digest, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// feedItems refreshes digest when needed and returns what the store holds.
// A failed refresh still serves the stored items.
func (s *Server) feedItems(c *gin.Context) (model.DigestType, []model.StoredItem, bool) {
	digest, err := model.ParseDigestType(c.Param("digest"))
	if err != nil {
		badRequest(c, err)
		return "", nil, false
	}
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	if _, err := s.pipeline.EnsureFresh(c.Request.Context(), digest, force); err != nil {
		s.log.Warn("http: refresh failed, serving stored items", "digest", digest, "err", err)
	}
	limit := feed.MaxItems
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < limit {
			limit = n
		}
	}
	items := s.store.Get(store.Query{DigestType: digest, Limit: limit})
	return digest, items, true
}

func (s *Server) rss(c *gin.Context) {
	digest, items, ok := s.feedItems(c)
	if !ok {
		return
	}
	body, err := s.feeds.RSS(items, digest)
	if err != nil {
		s.log.Error("http: render rss failed", "digest", digest, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	setCache(c, digest)
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", body)
}

func (s *Server) feedJSON(c *gin.Context) {
	digest, items, ok := s.feedItems(c)
	if !ok {
		return
	}
	setCache(c, digest)
	c.JSON(http.StatusOK, s.feeds.JSON(items, digest))
}

func (s *Server) newItems(c *gin.Context) {
	raw := c.Query("since")
	if raw == "" {
		badRequest(c, errors.New("since is required"))
		return
	}
	since, err := model.ParseTimestamp(raw)
	if err != nil {
		badRequest(c, errors.New("since must be an RFC3339 timestamp"))
		return
	}
	var digest model.DigestType
	if v := c.Query("digest"); v != "" {
		if digest, err = model.ParseDigestType(v); err != nil {
			badRequest(c, err)
			return
		}
	}
	items := s.store.NewSince(since, digest)
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
		"since": since.UTC(),
	})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Stats())
}

func (s *Server) clear(c *gin.Context) {
	n := s.store.Clear(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "removed": n})
}

func setCache(c *gin.Context, d model.DigestType) {
	c.Header("Cache-Control", "public, max-age="+strconv.Itoa(feed.CacheMaxAge(d)))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
