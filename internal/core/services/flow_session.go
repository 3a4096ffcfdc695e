package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/srgjo27/booking_flow/internal/core/domain"
	"github.com/srgjo27/booking_flow/internal/core/ports"
	"github.com/srgjo27/booking_flow/internal/platform/metrics"
)

// Persister saves a confirmed booking and reports what happened.
type Persister interface {
	Persist(ctx context.Context, booking domain.BookingRecord, flow domain.FlowType) domain.PersistenceOutcome
}

type envelope struct {
	ev  domain.Event
	ack chan SessionView
}

// FlowSession is one mounted booking page. A single goroutine owns the
// confirmation machine; every input reaches it as an event.
type FlowSession struct {
	id        string
	flow      domain.FlowContext
	createdAt time.Time

	machine   *ConfirmationMachine
	modal     *ModalHost
	listener  *MessageListener
	persister Persister
	scheduler *RedirectScheduler
	interval  time.Duration
	profiles  ports.ProfileStore
	logger    *zap.Logger
	metrics   *metrics.FlowMetrics

	events        chan envelope
	ctx           context.Context
	cancel        context.CancelFunc
	done          chan struct{}
	stopCountdown func()

	mu       sync.RWMutex
	view     SessionView
	lastSeen time.Time
}

type sessionDeps struct {
	modal     *ModalHost
	listener  *MessageListener
	persister Persister
	scheduler *RedirectScheduler
	interval  time.Duration
	profiles  ports.ProfileStore
	dashboard string
	logger    *zap.Logger
	metrics   *metrics.FlowMetrics
}

func newFlowSession(id string, flow domain.FlowContext, deps sessionDeps) *FlowSession {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	s := &FlowSession{
		id:        id,
		flow:      flow,
		createdAt: now,
		lastSeen:  now,
		machine:   NewConfirmationMachine(flow, deps.scheduler.Ticks(), deps.dashboard),
		modal:     deps.modal,
		listener:  deps.listener,
		persister: deps.persister,
		scheduler: deps.scheduler,
		interval:  deps.interval,
		profiles:  deps.profiles,
		logger:    deps.logger.With(zap.String("session_id", id), zap.String("flow", string(flow.Type))),
		metrics:   deps.metrics,
		events:    make(chan envelope, 16),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.publish()

	s.listener.Subscribe(func(rec domain.BookingRecord) {
		if _, err := s.Dispatch(domain.MessageConfirmed{Booking: rec}); err != nil {
			s.logger.Debug("message confirmation after unmount", zap.String("booking_id", rec.BookingID))
		}
	})

	go s.run()
	return s
}

func (s *FlowSession) ID() string {
	return s.id
}

func (s *FlowSession) Flow() domain.FlowContext {
	return s.flow
}

// Dispatch hands ev to the session loop and waits until it has been applied.
func (s *FlowSession) Dispatch(ev domain.Event) (SessionView, error) {
	ack := make(chan SessionView, 1)
	select {
	case s.events <- envelope{ev: ev, ack: ack}:
	case <-s.done:
		return SessionView{}, domain.ErrSessionClosed
	}

	select {
	case v := <-ack:
		return v, nil
	case <-s.done:
		return SessionView{}, domain.ErrSessionClosed
	}
}

func (s *FlowSession) OpenModal(ctx context.Context) (SessionView, error) {
	s.touch()
	if s.closed() {
		return SessionView{}, domain.ErrSessionClosed
	}
	s.modal.Open(ctx)
	return s.Dispatch(domain.ModalToggled{Open: true})
}

func (s *FlowSession) CloseModal() (SessionView, error) {
	s.touch()
	if s.closed() {
		return SessionView{}, domain.ErrSessionClosed
	}
	s.modal.Close()
	return s.Dispatch(domain.ModalToggled{Open: false})
}

// ReceiveMessage runs a frame message through the listener. Foreign or
// unrelated messages leave the session untouched.
func (s *FlowSession) ReceiveMessage(origin string, data []byte) (SessionView, error) {
	s.touch()
	if s.closed() {
		return SessionView{}, domain.ErrSessionClosed
	}
	s.listener.Receive(origin, data)
	return s.View(), nil
}

// Complete is the user's retry after a failed save.
func (s *FlowSession) Complete() (SessionView, error) {
	s.touch()
	return s.Dispatch(domain.CompleteRequested{})
}

func (s *FlowSession) View() SessionView {
	s.mu.RLock()
	v := s.view
	s.mu.RUnlock()
	v.Modal = s.modal.View()
	return v
}

// Unmount stops the loop, the listener and any pending countdown. It is safe
// to call more than once.
func (s *FlowSession) Unmount() {
	s.cancel()
	<-s.done
}

func (s *FlowSession) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

func (s *FlowSession) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *FlowSession) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *FlowSession) run() {
	defer close(s.done)
	defer s.teardown()

	for {
		select {
		case <-s.ctx.Done():
			return
		case env := <-s.events:
			if s.ctx.Err() != nil {
				return
			}
			s.handle(env.ev)
			env.ack <- s.View()
		}
	}
}

func (s *FlowSession) teardown() {
	s.listener.Unsubscribe()
	if s.stopCountdown != nil {
		s.stopCountdown()
	}
	s.metrics.SessionUnmounted()
	s.logger.Debug("flow session unmounted")
}

func (s *FlowSession) handle(ev domain.Event) {
	result, channel := s.classify(ev)

	effects := s.machine.Apply(ev)

	if channel != "" {
		s.metrics.ObserveConfirmation(string(s.flow.Type), string(channel), result)
	}
	for _, eff := range effects {
		s.execute(eff)
	}
	s.publish()
}

// classify labels confirmation events before they are applied.
func (s *FlowSession) classify(ev domain.Event) (string, domain.Channel) {
	var (
		rec domain.BookingRecord
		ch  domain.Channel
	)
	switch e := ev.(type) {
	case domain.MessageConfirmed:
		rec, ch = e.Booking, domain.ChannelMessage
	case domain.RedirectConfirmed:
		rec, ch = e.Booking, domain.ChannelRedirect
	default:
		return "", ""
	}

	switch {
	case s.machine.Accepted(rec.BookingID):
		return "duplicate", ch
	case s.machine.State().HasConfirmation():
		return "ignored", ch
	default:
		return "accepted", ch
	}
}

func (s *FlowSession) execute(eff domain.Effect) {
	switch e := eff.(type) {
	case domain.PersistBooking:
		booking := e.Booking
		s.logger.Info("persisting booking", zap.String("booking_id", booking.BookingID))
		go func() {
			outcome := s.persister.Persist(s.ctx, booking, s.flow.Type)
			if _, err := s.Dispatch(domain.PersistFinished{BookingID: booking.BookingID, Outcome: outcome}); err != nil {
				s.logger.Debug("persistence finished after unmount", zap.String("booking_id", booking.BookingID))
			}
		}()
	case domain.StartCountdown:
		if s.stopCountdown != nil {
			s.stopCountdown()
		}
		s.stopCountdown = s.scheduler.Start(s.ctx, func(remaining int) {
			_, _ = s.Dispatch(domain.CountdownTicked{Remaining: remaining})
		})
	case domain.NavigateTo:
		s.logger.Info("navigating after confirmation", zap.String("url", e.URL))
	case domain.ClearProfile:
		if s.profiles == nil || s.flow.VisitorID == "" {
			return
		}
		ctx, cancel := context.WithTimeout(s.ctx, 2*time.Second)
		defer cancel()
		if err := s.profiles.ClearProfile(ctx, s.flow.VisitorID); err != nil {
			s.logger.Warn("failed to clear talent profile", zap.String("profile_id", e.ProfileID), zap.Error(err))
		}
	}
}

func (s *FlowSession) publish() {
	v := buildSessionView(s.id, s.flow.Type, s.machine.Snapshot(), s.interval)
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}
