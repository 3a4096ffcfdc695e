package services_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/booking_flow/internal/core/domain"
	"github.com/srgjo27/booking_flow/internal/core/ports/mocks"
	"github.com/srgjo27/booking_flow/internal/core/services"
)

const scenarioQuery = "bookingConfirmed=true&uid=abc123&startTime=2026-03-01T10:00:00Z&endTime=2026-03-01T10:30:00Z"

type flowFixture struct {
	svc      *services.FlowService
	backend  *mocks.MeetingBackend
	ledger   *mocks.ConfirmationLedger
	profiles *mocks.ProfileStore
}

func newFlowFixture(t *testing.T, production bool, interval time.Duration) *flowFixture {
	t.Helper()

	backend := mocks.NewMeetingBackend(t)
	ledger := mocks.NewConfirmationLedger(t)
	profiles := mocks.NewProfileStore(t)

	corrector, err := services.NewOriginCorrector(production, "localhost:3000", "https://www.example.com")
	require.NoError(t, err)

	svc := services.NewFlowService(services.FlowConfig{
		ClientSchedulingLink: "team/client-intro",
		TalentSchedulingLink: "team/talent-interview",
		FrameBaseURL:         "https://cal.com",
		ProviderOrigins:      providerOrigins,
		DashboardPath:        "/client/dashboard",
		CountdownTicks:       2,
		CountdownInterval:    interval,
		SessionTTL:           time.Minute,
	}, services.FlowServiceDeps{
		Loader:    newTestLoader(&stubFetcher{}),
		Corrector: corrector,
		Persister: services.NewPersistenceGate(backend, ledger, nil, nil),
		Profiles:  profiles,
	})
	t.Cleanup(svc.Shutdown)

	return &flowFixture{svc: svc, backend: backend, ledger: ledger, profiles: profiles}
}

func pageURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func viewOf(t *testing.T, svc *services.FlowService, id string) services.SessionView {
	t.Helper()
	session, err := svc.Session(id)
	require.NoError(t, err)
	return session.View()
}

func isBooking(id string) any {
	return mock.MatchedBy(func(req domain.MeetingBookingRequest) bool { return req.BookingID == id })
}

func TestLoad_ClientRedirectPersistsAndNavigates(t *testing.T) {
	fx := newFlowFixture(t, true, 150*time.Millisecond)

	fx.ledger.On("IsPersisted", mock.Anything, "abc123").Return(false, nil)
	fx.backend.On("SaveCalcomBooking", mock.Anything, isBooking("abc123")).Return(nil)
	fx.ledger.On("RecordPersisted", mock.Anything, mock.Anything, domain.FlowClient).Return(nil)

	res, err := fx.svc.Load(context.Background(), services.LoadRequest{
		Flow:      domain.FlowClient,
		VisitorID: "visitor-1",
		URL:       pageURL(t, "https://www.example.com/book/client?"+scenarioQuery),
	})
	require.NoError(t, err)
	require.Empty(t, res.RedirectTo)
	require.NotNil(t, res.View)
	require.NotNil(t, res.View.Booking)
	assert.Equal(t, "abc123", res.View.Booking.BookingID)
	id := res.View.ID

	require.Eventually(t, func() bool {
		v := viewOf(t, fx.svc, id)
		return v.State == domain.StateAutoRedirecting && v.Countdown != nil && v.Countdown.Remaining == 2
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return viewOf(t, fx.svc, id).Navigation != nil
	}, 2*time.Second, 10*time.Millisecond)

	v := viewOf(t, fx.svc, id)
	assert.Equal(t, "/client/dashboard", v.Navigation.URL)
	assert.True(t, v.Navigation.Replace)
	assert.Equal(t, 0, v.Countdown.Remaining)
	assert.Equal(t, 100, v.Countdown.Percent)
	fx.backend.AssertNumberOfCalls(t, "SaveCalcomBooking", 1)
}

func TestLoad_BothChannelsSameBookingPersistOnce(t *testing.T) {
	fx := newFlowFixture(t, true, time.Hour)

	fx.ledger.On("IsPersisted", mock.Anything, "abc123").Return(false, nil)
	fx.backend.On("SaveCalcomBooking", mock.Anything, isBooking("abc123")).Return(nil)
	fx.ledger.On("RecordPersisted", mock.Anything, mock.Anything, domain.FlowClient).Return(nil)

	res, err := fx.svc.Load(context.Background(), services.LoadRequest{
		Flow: domain.FlowClient,
		URL:  pageURL(t, "https://www.example.com/book/client?"+scenarioQuery),
	})
	require.NoError(t, err)

	session, err := fx.svc.Session(res.View.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return session.View().State == domain.StateAutoRedirecting
	}, time.Second, 5*time.Millisecond)
	before := session.View()

	after, err := session.ReceiveMessage("https://app.cal.com", []byte(bookingSuccessfulPayload))
	require.NoError(t, err)

	assert.Equal(t, before.State, after.State)
	assert.Equal(t, before.Booking, after.Booking)
	assert.Equal(t, before.Countdown, after.Countdown)
	fx.backend.AssertNumberOfCalls(t, "SaveCalcomBooking", 1)
}

func TestLoad_PersistFailureShowsRetry(t *testing.T) {
	fx := newFlowFixture(t, true, time.Hour)

	fx.ledger.On("IsPersisted", mock.Anything, "abc123").Return(false, nil)
	fx.backend.On("SaveCalcomBooking", mock.Anything, isBooking("abc123")).Return(errors.New("backend returned 500")).Once()

	res, err := fx.svc.Load(context.Background(), services.LoadRequest{
		Flow: domain.FlowClient,
		URL:  pageURL(t, "https://www.example.com/book/client?"+scenarioQuery),
	})
	require.NoError(t, err)
	session, err := fx.svc.Session(res.View.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return session.View().State == domain.StatePersistFailed
	}, time.Second, 5*time.Millisecond)

	v := session.View()
	require.NotNil(t, v.Banner)
	assert.True(t, v.Banner.RetryEnabled)
	assert.Nil(t, v.Navigation)
	assert.Nil(t, v.Countdown)

	fx.backend.On("SaveCalcomBooking", mock.Anything, isBooking("abc123")).Return(nil).Once()
	fx.ledger.On("RecordPersisted", mock.Anything, mock.Anything, domain.FlowClient).Return(nil)

	v, err = session.Complete()
	require.NoError(t, err)
	assert.Nil(t, v.Banner)

	require.Eventually(t, func() bool {
		return session.View().State == domain.StateAutoRedirecting
	}, time.Second, 5*time.Millisecond)
	fx.backend.AssertNumberOfCalls(t, "SaveCalcomBooking", 2)
}

func TestLoad_ForeignMessageIgnored(t *testing.T) {
	fx := newFlowFixture(t, true, time.Hour)

	res, err := fx.svc.Load(context.Background(), services.LoadRequest{
		Flow: domain.FlowClient,
		URL:  pageURL(t, "https://www.example.com/book/client"),
	})
	require.NoError(t, err)
	session, err := fx.svc.Session(res.View.ID)
	require.NoError(t, err)

	v, err := session.ReceiveMessage("https://evil.example", []byte(bookingSuccessfulPayload))
	require.NoError(t, err)

	assert.Equal(t, domain.StateIdle, v.State)
	assert.Nil(t, v.Booking)
}

func TestLoad_ClientMessageDoesNotPersist(t *testing.T) {
	fx := newFlowFixture(t, true, time.Hour)

	res, err := fx.svc.Load(context.Background(), services.LoadRequest{
		Flow: domain.FlowClient,
		URL:  pageURL(t, "https://www.example.com/book/client"),
	})
	require.NoError(t, err)
	session, err := fx.svc.Session(res.View.ID)
	require.NoError(t, err)

	_, err = session.OpenModal(context.Background())
	require.NoError(t, err)

	v, err := session.ReceiveMessage("https://app.cal.com", []byte(bookingSuccessfulPayload))
	require.NoError(t, err)

	assert.Equal(t, domain.StateConfirmed, v.State)
	require.NotNil(t, v.Booking)
	assert.Equal(t, "Ada Lovelace", v.Booking.AttendeeName)
	assert.False(t, v.Persistence.Attempted)
}

func TestLoad_TalentMessageFinishesInPlace(t *testing.T) {
	fx := newFlowFixture(t, true, 10*time.Millisecond)

	fx.profiles.On("GetProfile", mock.Anything, "visitor-1").Return("profile-9", nil)
	fx.profiles.On("ClearProfile", mock.Anything, "visitor-1").Return(nil).Once()

	res, err := fx.svc.Load(context.Background(), services.LoadRequest{
		Flow:      domain.FlowTalent,
		VisitorID: "visitor-1",
		URL:       pageURL(t, "https://www.example.com/book/talent"),
	})
	require.NoError(t, err)
	assert.Contains(t, res.View.Modal.FrameURL, "profile-9")

	session, err := fx.svc.Session(res.View.ID)
	require.NoError(t, err)

	v, err := session.ReceiveMessage("https://cal.com", []byte(bookingSuccessfulPayload))
	require.NoError(t, err)
	assert.Equal(t, domain.StateDone, v.State)

	time.Sleep(50 * time.Millisecond)
	v = session.View()
	assert.Equal(t, domain.StateDone, v.State)
	assert.Nil(t, v.Navigation)
	assert.Nil(t, v.Countdown)
}

func TestLoad_WrongHostIsCorrectedBeforeMount(t *testing.T) {
	fx := newFlowFixture(t, true, time.Hour)

	res, err := fx.svc.Load(context.Background(), services.LoadRequest{
		Flow: domain.FlowClient,
		URL:  pageURL(t, "http://localhost:3000/book/client?"+scenarioQuery),
	})
	require.NoError(t, err)

	assert.Equal(t, "https://www.example.com/book/client?"+scenarioQuery, res.RedirectTo)
	assert.Nil(t, res.View)
}

func TestLoad_DevelopmentBuildStaysOnHost(t *testing.T) {
	fx := newFlowFixture(t, false, time.Hour)
	fx.ledger.On("IsPersisted", mock.Anything, "abc123").Return(true, nil)

	res, err := fx.svc.Load(context.Background(), services.LoadRequest{
		Flow: domain.FlowClient,
		URL:  pageURL(t, "http://localhost:3000/book/client?"+scenarioQuery),
	})
	require.NoError(t, err)

	assert.Empty(t, res.RedirectTo)
	require.NotNil(t, res.View)

	session, err := fx.svc.Session(res.View.ID)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return session.View().State == domain.StateAutoRedirecting
	}, time.Second, 5*time.Millisecond)
	fx.backend.AssertNotCalled(t, "SaveCalcomBooking", mock.Anything, mock.Anything)
}

func TestLoad_UnknownFlow(t *testing.T) {
	fx := newFlowFixture(t, true, time.Hour)

	_, err := fx.svc.Load(context.Background(), services.LoadRequest{
		Flow: domain.FlowType("partner"),
		URL:  pageURL(t, "https://www.example.com/book/partner"),
	})
	assert.ErrorIs(t, err, domain.ErrUnknownFlow)
}

func TestUnmount_CancelsPendingNavigation(t *testing.T) {
	fx := newFlowFixture(t, true, 100*time.Millisecond)

	fx.ledger.On("IsPersisted", mock.Anything, "abc123").Return(false, nil)
	fx.backend.On("SaveCalcomBooking", mock.Anything, isBooking("abc123")).Return(nil)
	fx.ledger.On("RecordPersisted", mock.Anything, mock.Anything, domain.FlowClient).Return(nil)

	res, err := fx.svc.Load(context.Background(), services.LoadRequest{
		Flow: domain.FlowClient,
		URL:  pageURL(t, "https://www.example.com/book/client?"+scenarioQuery),
	})
	require.NoError(t, err)
	session, err := fx.svc.Session(res.View.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return session.View().State == domain.StateAutoRedirecting
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, fx.svc.Unmount(res.View.ID))
	time.Sleep(300 * time.Millisecond)

	assert.Nil(t, session.View().Navigation)
	_, err = fx.svc.Session(res.View.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = session.Complete()
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.ErrorIs(t, fx.svc.Unmount(res.View.ID), domain.ErrSessionNotFound)
}

func TestSaveTalentProfile(t *testing.T) {
	fx := newFlowFixture(t, true, time.Hour)
	fx.profiles.On("SaveProfile", mock.Anything, "visitor-1", "profile-9").Return(nil)

	require.NoError(t, fx.svc.SaveTalentProfile(context.Background(), "visitor-1", "profile-9"))
	assert.ErrorIs(t, fx.svc.SaveTalentProfile(context.Background(), "visitor-1", ""), domain.ErrInvalidProfile)
}
