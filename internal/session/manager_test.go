package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"credguard/internal/issuance"
	issuancemocks "credguard/internal/issuance/mocks"
	"credguard/internal/models"
	"credguard/internal/platform/logger"
	"credguard/internal/verification"
	verificationmocks "credguard/internal/verification/mocks"
	dErrors "credguard/pkg/domain-errors"
	"credguard/pkg/testutil"
)

type ManagerSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	verification *verificationmocks.MockClient
	issuance     *issuancemocks.MockClient
	now          time.Time
	manager      *Manager
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.verification = verificationmocks.NewMockClient(s.ctrl)
	s.issuance = issuancemocks.NewMockClient(s.ctrl)
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.manager = NewManager(Orchestrators{
		VerificationClient: s.verification,
		IssuanceClient:     s.issuance,
		IssuanceOptions: []issuance.Option{issuance.WithPollConfig(issuance.PollConfig{
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
			MaxAttempts:     1000,
		})},
	}, WithClock(func() time.Time { return s.now }))
}

func (s *ManagerSuite) TearDownTest() {
	s.manager.CloseAll()
	s.ctrl.Finish()
}

func (s *ManagerSuite) issueInput() issuance.IssueInput {
	return issuance.IssueInput{
		File:         testutil.PDF("passport.pdf", 64),
		DocumentType: models.DocumentTypePassport,
		WalletDID:    testutil.TestWallets.Holder,
	}
}

func (s *ManagerSuite) TestOpenGivesIsolatedIdleWorkflows() {
	a := s.manager.Open()
	b := s.manager.Open()

	s.NotEqual(a.ID, b.ID)
	s.NotSame(a.Verification, b.Verification)
	s.NotSame(a.Issuance, b.Issuance)
	s.Equal(verification.StateIdle, a.Verification.Snapshot().State)
	s.Equal(issuance.StateIdle, a.Issuance.Snapshot().State)
	s.Equal(2, s.manager.Len())

	got, err := s.manager.Get(a.ID)
	s.Require().NoError(err)
	s.Same(a, got)
}

func (s *ManagerSuite) TestUnknownSession() {
	_, err := s.manager.Get("missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.True(dErrors.HasCode(s.manager.Reset("missing"), dErrors.CodeNotFound))
	s.True(dErrors.HasCode(s.manager.Close("missing"), dErrors.CodeNotFound))
}

func (s *ManagerSuite) TestResetDiscardsResults() {
	sess := s.manager.Open()
	s.verification.EXPECT().VerifyCredential(gomock.Any(), gomock.Any()).
		Return(&models.VerificationVerdict{Valid: true}, nil)

	_, err := sess.Verification.SubmitCredential(context.Background(), testutil.NewCredentialBuilder().Build())
	s.Require().NoError(err)
	s.NotNil(sess.Verification.Snapshot().Data.Verdict)

	s.Require().NoError(s.manager.Reset(sess.ID))
	s.Equal(verification.StateIdle, sess.Verification.Snapshot().State)
	s.Nil(sess.Verification.Snapshot().Data.Verdict)
	s.Equal(1, s.manager.Len())
}

func (s *ManagerSuite) TestCloseStopsPolling() {
	sess := s.manager.Open()
	s.issuance.EXPECT().IssueFromDocumentAsync(gomock.Any(), gomock.Any()).Return("job-1", nil)
	s.issuance.EXPECT().CredentialStatus(gomock.Any(), "job-1").
		Return(&models.CredentialStatus{ExchangeID: "job-1", Status: "offer_sent"}, nil).AnyTimes()

	job, err := sess.Issuance.SubmitAsync(context.Background(), s.issueInput())
	s.Require().NoError(err)

	s.Require().NoError(s.manager.Close(sess.ID))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = job.Wait(ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeCancelled))
	s.Equal(issuance.StateIdle, sess.Issuance.Snapshot().State)
	s.Equal(0, s.manager.Len())
}

func (s *ManagerSuite) TestCloseIdle() {
	stale := s.manager.Open()
	s.now = s.now.Add(time.Hour)
	fresh := s.manager.Open()

	closed, err := NewJanitor(s.manager, 30*time.Minute, WithJanitorClock(func() time.Time { return s.now })).RunOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(1, closed)

	_, err = s.manager.Get(stale.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.manager.Get(fresh.ID)
	s.NoError(err)
}

func (s *ManagerSuite) TestJanitorSweepsUntilCancelled() {
	stale := s.manager.Open()
	s.now = s.now.Add(time.Hour)
	fresh := s.manager.Open()
	sweepAt := s.now

	ctx, cancel := context.WithCancel(context.Background())
	janitor := NewJanitor(s.manager, 30*time.Minute,
		WithInterval(time.Millisecond),
		WithJanitorLogger(logger.Discard()),
		WithJanitorClock(func() time.Time { return sweepAt }),
	)
	done := make(chan error, 1)
	go func() { done <- janitor.Start(ctx) }()

	s.Eventually(func() bool { return s.manager.Len() == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		s.FailNow("janitor did not stop after cancellation")
	}

	_, err := s.manager.Get(stale.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.manager.Get(fresh.ID)
	s.NoError(err)
}

func (s *ManagerSuite) TestGetRefreshesLastSeen() {
	sess := s.manager.Open()
	s.now = s.now.Add(45 * time.Minute)
	_, err := s.manager.Get(sess.ID)
	s.Require().NoError(err)
	s.Equal(s.now, sess.LastSeen())

	closed, err := s.manager.CloseIdle(context.Background(), s.now.Add(-30*time.Minute))
	s.Require().NoError(err)
	s.Zero(closed)
}

func (s *ManagerSuite) TestLookupsRacingClose() {
	sess := s.manager.Open()
	successes, errs := testutil.RunConcurrentCollect(20, func(i int) error {
		if i == 0 {
			return s.manager.Close(sess.ID)
		}
		_, err := s.manager.Get(sess.ID)
		return err
	})

	s.Equal(int32(20), successes+int32(len(errs)))
	s.GreaterOrEqual(successes, int32(1), "close always succeeds")
	for _, err := range errs {
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "unexpected error: %v", err)
	}
	_, err := s.manager.Get(sess.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

type idleStoreFunc func(ctx context.Context, cutoff time.Time) (int, error)

func (f idleStoreFunc) CloseIdle(ctx context.Context, cutoff time.Time) (int, error) {
	return f(ctx, cutoff)
}

func TestJanitorKeepsSweepingAfterFailure(t *testing.T) {
	var calls atomic.Int32
	store := idleStoreFunc(func(context.Context, time.Time) (int, error) {
		if calls.Add(1) == 1 {
			return 0, errors.New("store unavailable")
		}
		return 0, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewJanitor(store, time.Minute, WithInterval(time.Millisecond)).Start(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func (s *ManagerSuite) TestConcurrentOpenAndClose() {
	result := testutil.RunConcurrent(50, func(int) error {
		return s.manager.Close(s.manager.Open().ID)
	})
	s.Equal(int32(50), result.Successes)
	s.Zero(s.manager.Len())
}
