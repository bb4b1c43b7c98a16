// Package coach runs the request pipeline shared by every transport:
// validation, safety screen, profile fetch, routing and persistence.
package coach

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/mind-coach/internal/metrics"
	"github.com/xaenox/mind-coach/internal/models"
	"github.com/xaenox/mind-coach/internal/router"
	"github.com/xaenox/mind-coach/internal/safety"
	"github.com/xaenox/mind-coach/internal/storage"
)

const defaultHistoryTimeout = 5 * time.Second

// HistoryEntry is the record written for every handled turn.
type HistoryEntry struct {
	ResponseID  string             `json:"responseId"`
	SessionID   string             `json:"sessionId,omitempty"`
	SessionType models.SessionType `json:"sessionType"`
	Message     string             `json:"message"`
	Response    string             `json:"response"`
	Type        string             `json:"type"`
	RiskLevel   models.Severity    `json:"riskLevel"`
	Timestamp   time.Time          `json:"timestamp"`
}

type Config struct {
	// HistoryTTL expires history entries. Zero keeps them forever.
	HistoryTTL     time.Duration
	HistoryTimeout time.Duration
}

type Service struct {
	screen   *safety.Screen
	profiles *storage.Profiles
	router   *router.Router
	store    storage.Store
	cfg      Config
	metrics  *metrics.Metrics
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
	wg    sync.WaitGroup
}

func NewService(screen *safety.Screen, profiles *storage.Profiles, r *router.Router, store storage.Store, cfg Config, m *metrics.Metrics, logger *zap.Logger) *Service {
	if cfg.HistoryTimeout <= 0 {
		cfg.HistoryTimeout = defaultHistoryTimeout
	}
	return &Service{
		screen:   screen,
		profiles: profiles,
		router:   r,
		store:    store,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.With(zap.String("component", "coach")),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Handle processes one coaching turn. Validation and not-found problems come
// back as *models.Error; anything else is an internal failure.
func (s *Service) Handle(ctx context.Context, msg models.CoachingMessage) (models.CoachingResponse, error) {
	start := s.now()
	sessionType := msg.SessionType()

	resp, err := s.handle(ctx, msg, start)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case resp.Type == models.ResponseCrisis:
		outcome = "blocked"
	}
	s.metrics.ObserveRequest(string(sessionType), outcome, s.now().Sub(start))
	return resp, err
}

func (s *Service) handle(ctx context.Context, msg models.CoachingMessage, start time.Time) (models.CoachingResponse, error) {
	if err := msg.Validate(); err != nil {
		return models.CoachingResponse{}, err
	}
	if err := s.router.Validate(msg); err != nil {
		return models.CoachingResponse{}, err
	}

	verdict := s.screen.Assess(ctx, msg)
	if !verdict.ShouldProceed {
		s.logger.Warn("Turn blocked by safety screen",
			zap.String("user_id", msg.UserID),
			zap.String("severity", string(verdict.Severity)),
			zap.String("action", string(verdict.RecommendedAction)))

		resp := models.CoachingResponse{
			ID:         s.newID(),
			Type:       models.ResponseCrisis,
			Content:    verdict.Response,
			Strategy:   "crisis_protocol",
			Confidence: verdict.Confidence,
			Metadata: models.ResponseMetadata{
				ChainUsed:      "safety",
				ProcessingTime: s.now().Sub(start).Milliseconds(),
				RiskLevel:      verdict.Severity,
			},
			Payload: verdict.CrisisIndicators,
		}
		s.logHistory(msg, resp)
		return resp, nil
	}

	profile, err := s.profiles.Get(ctx, msg.UserID)
	if err != nil {
		s.logger.Error("Failed to load profile", zap.String("user_id", msg.UserID), zap.Error(err))
		return models.CoachingResponse{}, err
	}

	out, err := s.router.Dispatch(ctx, msg, profile)
	if err != nil {
		var modelErr *models.Error
		if !errors.As(err, &modelErr) {
			s.logger.Error("Failed to dispatch message",
				zap.String("user_id", msg.UserID),
				zap.String("session_type", string(msg.SessionType())),
				zap.Error(err))
		}
		return models.CoachingResponse{}, err
	}

	if out.Update != nil {
		if _, err := s.profiles.Update(ctx, msg.UserID, *out.Update); err != nil {
			s.logger.Error("Failed to update profile", zap.String("user_id", msg.UserID), zap.Error(err))
			return models.CoachingResponse{}, err
		}
	}

	resp := models.CoachingResponse{
		ID:         s.newID(),
		Type:       out.Type,
		Content:    out.Content,
		Strategy:   out.Strategy,
		Confidence: out.Confidence,
		Metadata: models.ResponseMetadata{
			ChainUsed:      out.Chain,
			ProcessingTime: s.now().Sub(start).Milliseconds(),
			RiskLevel:      verdict.Severity,
		},
		Payload: out.Payload,
	}
	s.logHistory(msg, resp)
	return resp, nil
}

// CurrentTask returns the user's stored next task.
func (s *Service) CurrentTask(ctx context.Context, userID string) (models.Microtask, error) {
	return s.router.CurrentTask(ctx, userID)
}

// Wait blocks until pending history writes have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// logHistory writes the turn in the background. Failures are logged and dropped.
func (s *Service) logHistory(msg models.CoachingMessage, resp models.CoachingResponse) {
	at := s.now().UTC()
	entry := HistoryEntry{
		ResponseID:  resp.ID,
		SessionID:   msg.SessionID,
		SessionType: msg.SessionType(),
		Message:     msg.Message,
		Response:    resp.Content,
		Type:        resp.Type,
		RiskLevel:   resp.Metadata.RiskLevel,
		Timestamp:   at,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.HistoryTimeout)
		defer cancel()

		var opts []storage.PutOption
		if s.cfg.HistoryTTL > 0 {
			opts = append(opts, storage.WithTTL(s.cfg.HistoryTTL))
		}
		if err := storage.PutJSON(ctx, s.store, storage.HistoryKey(msg.UserID, at), entry, opts...); err != nil {
			s.logger.Warn("Failed to log conversation history", zap.String("user_id", msg.UserID), zap.Error(err))
		}
	}()
}
