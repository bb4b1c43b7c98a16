// Package api exposes the coaching pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xaenox/mind-coach/internal/diagnostic"
	"github.com/xaenox/mind-coach/internal/entitlement"
	"github.com/xaenox/mind-coach/internal/models"
)

const requestIDKey = "request_id"

// Coach runs one coaching turn.
type Coach interface {
	Handle(ctx context.Context, msg models.CoachingMessage) (models.CoachingResponse, error)
}

type Config struct {
	JWTSecret   string
	JWTIssuer   string
	RateLimit   RateLimitConfig
	CORSOrigins []string
}

type Server struct {
	coach       Coach
	entitlement entitlement.Checker
	gatherer    prometheus.Gatherer
	cfg         Config
	logger      *zap.Logger
	now         func() time.Time
}

func NewServer(coach Coach, checker entitlement.Checker, gatherer prometheus.Gatherer, cfg Config, logger *zap.Logger) *Server {
	return &Server{
		coach:       coach,
		entitlement: checker,
		gatherer:    gatherer,
		cfg:         cfg,
		logger:      logger.With(zap.String("component", "api")),
		now:         time.Now,
	}
}

func (s *Server) Routes() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestID())
	if len(s.cfg.CORSOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:  s.cfg.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposeHeaders: []string{"X-Request-ID"},
		}))
	}

	engine.GET("/healthz", s.handleHealthz)
	if s.gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	coaching := engine.Group("/coaching", s.rateLimit(), s.authenticate())
	coaching.POST("/message", s.handleMessage)
	coaching.GET("/questions/:topic", s.handleQuestions)
	return engine
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMessage(c *gin.Context) {
	var msg models.CoachingMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		s.abort(c, http.StatusBadRequest, string(models.KindValidation), "invalid json")
		return
	}
	if err := msg.Validate(); err != nil {
		s.fail(c, err)
		return
	}
	if !authorizedFor(c, msg.UserID) {
		s.abort(c, http.StatusForbidden, string(models.KindForbidden), "token does not match userId")
		return
	}

	if msg.SessionType().RequiresEntitlement() {
		active, err := s.entitlement.Active(c.Request.Context(), msg.UserID)
		if err != nil {
			s.fail(c, err)
			return
		}
		if !active {
			s.abort(c, http.StatusForbidden, string(models.KindForbidden), "an active subscription is required")
			return
		}
	}

	resp, err := s.coach.Handle(c.Request.Context(), msg)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Envelope{
		Success:  true,
		Data:     &resp,
		Metadata: s.metadata(c),
	})
}

func (s *Server) handleQuestions(c *gin.Context) {
	topic := diagnostic.Topic(c.Param("topic"))
	questions, ok := diagnostic.QuestionSequence(topic)
	if !ok {
		s.abort(c, http.StatusNotFound, string(models.KindNotFound), "unknown topic")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     gin.H{"topic": topic, "questions": questions},
		"metadata": s.metadata(c),
	})
}

func (s *Server) metadata(c *gin.Context) models.EnvelopeMetadata {
	return models.EnvelopeMetadata{RequestID: c.GetString(requestIDKey), Timestamp: s.now().UTC()}
}

// fail maps err onto a status code and writes the error envelope.
func (s *Server) fail(c *gin.Context, err error) {
	var modelErr *models.Error
	switch {
	case errors.As(err, &modelErr):
		status := http.StatusBadRequest
		switch modelErr.Kind {
		case models.KindNotFound:
			status = http.StatusNotFound
		case models.KindForbidden:
			status = http.StatusForbidden
		}
		s.abort(c, status, string(modelErr.Kind), modelErr.Message)
	default:
		s.logger.Error("Failed to handle request",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		s.abort(c, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func (s *Server) abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.Envelope{
		Success:  false,
		Error:    &models.APIError{Message: message, Code: code},
		Metadata: s.metadata(c),
	})
}
