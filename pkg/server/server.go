// Package server exposes the chat core over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nextchat-ai/nextchat/pkg/cache"
	"github.com/nextchat-ai/nextchat/pkg/catalog"
	"github.com/nextchat-ai/nextchat/pkg/config"
	"github.com/nextchat-ai/nextchat/pkg/conversation"
	"github.com/nextchat-ai/nextchat/pkg/logging"
	"github.com/nextchat-ai/nextchat/pkg/provider"
	"github.com/nextchat-ai/nextchat/pkg/settings"
)

// ImageGenerator produces an image URL for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}

// Server is the nextchat HTTP API.
type Server struct {
	cfg      *config.Config
	conv     *conversation.Store
	settings *settings.Settings
	cache    *cache.Cache
	images   ImageGenerator
	logger   *zap.Logger
	engine   *gin.Engine
}

// New creates a Server wired with all dependencies.
func New(cfg *config.Config, conv *conversation.Store, st *settings.Settings, c *cache.Cache, images ImageGenerator, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		conv:     conv,
		settings: st,
		cache:    c,
		images:   images,
		logger:   logging.OrNop(logger),
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger(), cors.New(corsConfig(cfg.CORS.AllowedOrigins)))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/v1")
	{
		v1.GET("/models", s.handleModels)

		v1.GET("/sessions", s.handleListSessions)
		v1.POST("/sessions", s.handleCreateSession)
		v1.GET("/sessions/:id", s.handleGetSession)
		v1.DELETE("/sessions/:id", s.handleDeleteSession)
		v1.POST("/sessions/:id/messages", s.handleSendMessage)

		v1.GET("/settings", s.handleGetSettings)
		v1.PUT("/settings", s.handlePutSettings)

		v1.POST("/images", s.handleImage)

		v1.GET("/cache/stats", s.handleCacheStats)
		v1.DELETE("/cache", s.handleCacheClear)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("nextchat listening", zap.String("addr", s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

type sessionSummary struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	MessageCount int       `json:"message_count"`
	LastUpdate   time.Time `json:"last_update"`
	Current      bool      `json:"current"`
}

func (s *Server) handleModels(c *gin.Context) {
	type entry struct {
		catalog.Model
		Supported bool `json:"supported"`
	}
	all := catalog.All()
	out := make([]entry, 0, len(all))
	for _, m := range all {
		out = append(out, entry{Model: m, Supported: m.Supported()})
	}
	c.JSON(http.StatusOK, gin.H{"models": out, "selected": s.settings.SelectedModel()})
}

func (s *Server) handleListSessions(c *gin.Context) {
	cur, _ := s.conv.Current()
	sessions := s.conv.Sessions()
	out := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionSummary{
			ID:           sess.ID,
			Topic:        sess.Topic,
			MessageCount: len(sess.Messages),
			LastUpdate:   sess.LastUpdate,
			Current:      sess.ID == cur.ID,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	c.JSON(http.StatusCreated, s.conv.CreateSession(c.Request.Context()))
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, err := s.conv.Session(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.conv.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSendMessage(c *gin.Context) {
	var req struct {
		Content    string `json:"content"`
		Model      string `json:"model"`
		Attachment string `json:"attachment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	model := req.Model
	if model == "" {
		model = s.settings.SelectedModel()
	}

	var opts []conversation.SendOption
	if req.Attachment != "" {
		opts = append(opts, conversation.WithAttachment(req.Attachment))
	}

	msg, err := s.conv.Send(c.Request.Context(), c.Param("id"), req.Content, model, opts...)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (s *Server) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api_key_set":    s.settings.APIKey() != "",
		"secret_key_set": s.settings.SecretKey() != "",
		"selected_model": s.settings.SelectedModel(),
	})
}

func (s *Server) handlePutSettings(c *gin.Context) {
	var req struct {
		APIKey        *string `json:"api_key"`
		SecretKey     *string `json:"secret_key"`
		SelectedModel *string `json:"selected_model"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	var errs []error
	if req.APIKey != nil {
		errs = append(errs, s.settings.SetAPIKey(ctx, *req.APIKey))
	}
	if req.SecretKey != nil {
		errs = append(errs, s.settings.SetSecretKey(ctx, *req.SecretKey))
	}
	if req.SelectedModel != nil {
		errs = append(errs, s.settings.SetSelectedModel(ctx, *req.SelectedModel))
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("failed to save settings", zap.Error(err))
		writeJSONError(c, http.StatusInternalServerError, "failed to save settings")
		return
	}
	s.handleGetSettings(c)
}

func (s *Server) handleImage(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" {
		writeJSONError(c, http.StatusBadRequest, "prompt is required")
		return
	}
	url, err := s.images.Generate(c.Request.Context(), s.settings.APIKey(), req.Prompt)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (s *Server) handleCacheStats(c *gin.Context) {
	stats, err := s.cache.Stats(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCacheClear(c *gin.Context) {
	expiredOnly := c.Query("expired") == "true"
	n, err := s.cache.Clear(c.Request.Context(), expiredOnly)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	var imgErr *provider.ImageError
	switch {
	case errors.Is(err, conversation.ErrSessionNotFound):
		writeJSONError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, conversation.ErrTurnInProgress):
		writeJSONError(c, http.StatusConflict, err.Error())
	case errors.Is(err, conversation.ErrEmptyMessage), errors.Is(err, provider.ErrAPIKeyRequired):
		writeJSONError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &imgErr):
		writeJSONError(c, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		writeJSONError(c, http.StatusInternalServerError, "internal error")
	}
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func writeJSONError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": apiError{Message: message, Type: "nextchat_error", Code: code}})
}

var _ ImageGenerator = (*provider.ImageClient)(nil)
