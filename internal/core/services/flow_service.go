package services

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/srgjo27/booking_flow/internal/core/domain"
	"github.com/srgjo27/booking_flow/internal/core/ports"
	"github.com/srgjo27/booking_flow/internal/platform/metrics"
)

const maxProfileIDLength = 128

type FlowConfig struct {
	ClientSchedulingLink string
	TalentSchedulingLink string
	FrameBaseURL         string
	ProviderOrigins      []string
	DashboardPath        string
	CountdownTicks       int
	CountdownInterval    time.Duration
	SessionTTL           time.Duration
	CleanupInterval      time.Duration
}

type FlowServiceDeps struct {
	Loader     *WidgetLoader
	Corrector  *OriginCorrector
	Reconciler *RedirectReconciler
	Persister  Persister
	Profiles   ports.ProfileStore
	Logger     *zap.Logger
	Metrics    *metrics.FlowMetrics
}

type LoadRequest struct {
	Flow      domain.FlowType
	VisitorID string
	URL       *url.URL
}

// LoadResult carries either a corrective redirect or the mounted page view.
type LoadResult struct {
	RedirectTo string       `json:"redirectTo,omitempty"`
	View       *SessionView `json:"session,omitempty"`
}

// FlowService mounts booking pages and keeps their sessions until unmount.
type FlowService struct {
	cfg        FlowConfig
	loader     *WidgetLoader
	corrector  *OriginCorrector
	reconciler *RedirectReconciler
	persister  Persister
	profiles   ports.ProfileStore
	scheduler  *RedirectScheduler
	logger     *zap.Logger
	metrics    *metrics.FlowMetrics

	mu       sync.RWMutex
	sessions map[string]*FlowSession
}

func NewFlowService(cfg FlowConfig, deps FlowServiceDeps) *FlowService {
	if deps.Loader == nil || deps.Persister == nil {
		panic("services: widget loader and persister required")
	}
	if deps.Reconciler == nil {
		deps.Reconciler = NewRedirectReconciler()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	return &FlowService{
		cfg:        cfg,
		loader:     deps.Loader,
		corrector:  deps.Corrector,
		reconciler: deps.Reconciler,
		persister:  deps.Persister,
		profiles:   deps.Profiles,
		scheduler:  NewRedirectScheduler(cfg.CountdownTicks, cfg.CountdownInterval),
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		sessions:   make(map[string]*FlowSession),
	}
}

// Load handles a booking page load. A provider redirect that landed on the
// wrong host is bounced before anything is mounted; otherwise a session is
// mounted and any redirect confirmation in the URL is applied to it.
func (s *FlowService) Load(ctx context.Context, req LoadRequest) (*LoadResult, error) {
	if req.URL == nil {
		return nil, fmt.Errorf("load %s page: missing url", req.Flow)
	}

	if s.corrector != nil {
		if corrected, ok := s.corrector.Correct(req.URL); ok {
			s.metrics.ObserveOriginCorrection()
			s.logger.Info("correcting booking redirect origin",
				zap.String("from_host", req.URL.Host),
				zap.String("to", corrected),
			)
			return &LoadResult{RedirectTo: corrected}, nil
		}
	}

	session, err := s.mount(ctx, req)
	if err != nil {
		return nil, err
	}

	view := session.View()
	if rec, ok := s.reconciler.Reconcile(req.URL.Query()); ok {
		view, err = session.Dispatch(domain.RedirectConfirmed{Booking: rec})
		if err != nil {
			return nil, err
		}
	}
	return &LoadResult{View: &view}, nil
}

func (s *FlowService) mount(ctx context.Context, req LoadRequest) (*FlowSession, error) {
	var link string
	switch req.Flow {
	case domain.FlowClient:
		link = s.cfg.ClientSchedulingLink
	case domain.FlowTalent:
		link = s.cfg.TalentSchedulingLink
	default:
		return nil, domain.ErrUnknownFlow
	}

	flow := domain.FlowContext{Type: req.Flow, VisitorID: req.VisitorID}
	if req.Flow == domain.FlowTalent && s.profiles != nil && req.VisitorID != "" {
		profileID, err := s.profiles.GetProfile(ctx, req.VisitorID)
		if err != nil {
			s.logger.Warn("failed to read talent profile", zap.String("visitor_id", req.VisitorID), zap.Error(err))
		}
		flow.ProfileID = profileID
	}

	pageURL := url.URL{Scheme: req.URL.Scheme, Host: req.URL.Host, Path: req.URL.Path}
	frameURL, err := BuildFrameURL(s.cfg.FrameBaseURL, link, pageURL.String(), flow.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("build frame url: %w", err)
	}

	id := uuid.NewString()
	session := newFlowSession(id, flow, sessionDeps{
		modal:     NewModalHost(s.loader, frameURL),
		listener:  NewMessageListener(s.cfg.ProviderOrigins, s.logger, s.metrics),
		persister: s.persister,
		scheduler: s.scheduler,
		interval:  s.cfg.CountdownInterval,
		profiles:  s.profiles,
		dashboard: s.cfg.DashboardPath,
		logger:    s.logger,
		metrics:   s.metrics,
	})

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()
	s.metrics.SessionMounted()

	s.logger.Debug("flow session mounted", zap.String("session_id", id), zap.String("flow", string(req.Flow)))
	return session, nil
}

func (s *FlowService) Session(id string) (*FlowSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *FlowService) Unmount(id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Unmount()
	return nil
}

// SaveTalentProfile stores the profile id produced by the step before booking.
func (s *FlowService) SaveTalentProfile(ctx context.Context, visitorID, profileID string) error {
	if profileID == "" || len(profileID) > maxProfileIDLength || visitorID == "" {
		return domain.ErrInvalidProfile
	}
	if s.profiles == nil {
		return fmt.Errorf("save talent profile: no profile store configured")
	}
	if err := s.profiles.SaveProfile(ctx, visitorID, profileID); err != nil {
		return fmt.Errorf("save talent profile: %w", err)
	}
	return nil
}

// Shutdown unmounts every session.
func (s *FlowService) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*FlowSession)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Unmount()
	}
}

func (s *FlowService) RunBackgroundCleanup(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	s.logger.Info("session cleanup worker started", zap.Duration("interval", s.cfg.CleanupInterval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session cleanup worker stopped")
			return
		case <-ticker.C:
			s.unmountIdleSessions(time.Now())
		}
	}
}

func (s *FlowService) unmountIdleSessions(now time.Time) int {
	if s.cfg.SessionTTL <= 0 {
		return 0
	}

	var stale []string
	s.mu.RLock()
	for id, session := range s.sessions {
		if now.Sub(session.idleSince()) > s.cfg.SessionTTL {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range stale {
		if err := s.Unmount(id); err == nil {
			s.logger.Info("unmounted idle flow session", zap.String("session_id", id))
		}
	}
	return len(stale)
}
