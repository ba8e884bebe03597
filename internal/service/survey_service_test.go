package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadfunnel/internal/cache"
	"leadfunnel/internal/flow"
	"leadfunnel/internal/model"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	err      error
	payloads []model.Submission
}

func (f *fakeSubmitter) Submit(ctx context.Context, sub *model.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, *sub)
	if f.err != nil {
		return f.err
	}
	sub.ID = "stored-1"
	return nil
}

type testEnv struct {
	svc       *SurveyService
	sessions  cache.SessionCache
	stats     cache.StatsCache
	submitter *fakeSubmitter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	engine, err := flow.NewFunnelEngine()
	require.NoError(t, err)

	env := &testEnv{
		sessions:  cache.NewSessionCache(client, time.Hour),
		stats:     cache.NewStatsCache(client),
		submitter: &fakeSubmitter{},
	}
	env.svc = NewSurveyService(engine, env.sessions, env.stats, env.submitter)
	return env
}

func answer(in model.AnswerInput) *model.SubmitAnswerRequest {
	return &model.SubmitAnswerRequest{AnswerInput: in}
}

func walkToContact(t *testing.T, svc *SurveyService, id string) {
	t.Helper()
	ctx := context.Background()
	for _, in := range []model.AnswerInput{
		{Choice: "No, I don't use a budgeting app"},
		{Choice: "Other (please specify)", Elaboration: "Envelope system"},
		{Choices: []string{"Too complicated"}},
		{Choices: []string{"Pay off debt", "Save for a home"}},
		{Scale: 4},
		{Choice: "Bill reminders"},
		{Choice: "Free only"},
		{},
	} {
		_, err := svc.Answer(ctx, id, answer(in))
		require.NoError(t, err)
	}
}

func TestStartAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	snap, err := env.svc.Start(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.SessionID)
	assert.Equal(t, model.FlowInProgress, snap.State)
	require.NotNil(t, snap.Question)
	assert.Equal(t, flow.QUsesBudgetingApp, snap.Question.ID)

	got, err := env.svc.Get(ctx, snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, snap.Position, got.Position)

	_, err = env.svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAnswerPersistsBetweenCalls(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	snap, err := env.svc.Start(ctx)
	require.NoError(t, err)

	next, err := env.svc.Answer(ctx, snap.SessionID, answer(model.AnswerInput{Choice: "Yes, I use Mint"}))
	require.NoError(t, err)
	assert.Equal(t, flow.QCurrentTools, next.Position)
	assert.True(t, next.CanGoBack)

	stored, err := env.sessions.Get(ctx, snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Yes, I use Mint", stored.Answers[flow.QUsesBudgetingApp].Text)

	back, err := env.svc.Back(ctx, snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, flow.QUsesBudgetingApp, back.Position)
	require.NotNil(t, back.CurrentAnswer)
}

func TestAnswerValidationReturnsSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	snap, err := env.svc.Start(ctx)
	require.NoError(t, err)
	_, err = env.svc.Answer(ctx, snap.SessionID, answer(model.AnswerInput{Choice: "Yes, I use Mint"}))
	require.NoError(t, err)
	_, err = env.svc.Answer(ctx, snap.SessionID, answer(model.AnswerInput{Choices: []string{"Mint"}}))
	require.NoError(t, err)

	res, err := env.svc.Answer(ctx, snap.SessionID, answer(model.AnswerInput{Choice: "Other (please specify)"}))
	var ve *flow.ValidationError
	require.True(t, errors.As(err, &ve))
	require.NotNil(t, res)
	assert.Equal(t, flow.QSwitchReason, res.Position)
	assert.Equal(t, "Other (please specify)", res.AwaitingElaboration)
}

func TestStaleQuestionRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	snap, err := env.svc.Start(ctx)
	require.NoError(t, err)

	req := answer(model.AnswerInput{Scale: 5})
	req.QuestionID = flow.QFinancialConfident
	_, err = env.svc.Answer(ctx, snap.SessionID, req)
	assert.ErrorIs(t, err, ErrStaleQuestion)
}

func TestSessionBusy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	snap, err := env.svc.Start(ctx)
	require.NoError(t, err)

	release, err := env.sessions.Lock(ctx, snap.SessionID)
	require.NoError(t, err)
	defer release()

	_, err = env.svc.Answer(ctx, snap.SessionID, answer(model.AnswerInput{Choice: "No"}))
	assert.ErrorIs(t, err, ErrSessionBusy)
}

func TestContactValidationKeepsState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	snap, err := env.svc.Start(ctx)
	require.NoError(t, err)
	walkToContact(t, env.svc, snap.SessionID)

	res, err := env.svc.SubmitContact(ctx, snap.SessionID, &model.SubmitContactRequest{Name: "", Email: "a@b.com"})
	var ve *flow.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "name", ve.Field)
	assert.Equal(t, model.FlowContactCapture, res.State)
	assert.Empty(t, env.submitter.payloads)
}

func TestSubmitFailureThenRetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	snap, err := env.svc.Start(ctx)
	require.NoError(t, err)
	walkToContact(t, env.svc, snap.SessionID)

	env.submitter.err = errors.New("network error")
	res, err := env.svc.SubmitContact(ctx, snap.SessionID, &model.SubmitContactRequest{Name: "Ada", Email: "ada@example.com"})
	var se *flow.SubmissionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, model.FlowFailed, res.State)
	assert.Equal(t, "network error", res.FailureReason)

	stored, err := env.sessions.Get(ctx, snap.SessionID)
	require.NoError(t, err)
	require.NotNil(t, stored.Contact)
	assert.Equal(t, "ada@example.com", stored.Contact.Email)

	env.submitter.err = nil
	res, err = env.svc.Retry(ctx, snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.FlowComplete, res.State)
	assert.Equal(t, "stored-1", res.SubmissionID)

	require.Len(t, env.submitter.payloads, 2)
	assert.Equal(t, env.submitter.payloads[0].Answers, env.submitter.payloads[1].Answers)
	assert.Equal(t, env.submitter.payloads[0].Contact, env.submitter.payloads[1].Contact)
	assert.Equal(t, "Other (please specify): Envelope system",
		env.submitter.payloads[1].Answers[flow.QTrackingMethod].Text)

	_, err = env.svc.Get(ctx, snap.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "completed sessions are discarded")

	funnel, err := env.stats.GetFunnel(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), funnel[cache.MilestoneStarted])
	assert.Equal(t, int64(1), funnel[cache.MilestoneContact])
	assert.Equal(t, int64(1), funnel[cache.MilestoneFailed])
	assert.Equal(t, int64(1), funnel[cache.MilestoneCompleted])

	top, err := env.stats.GetTop(ctx, flow.QTrackingMethod, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Other (please specify)", top[0].Option)
}

func TestCloseDiscardsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	snap, err := env.svc.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, env.svc.Close(ctx, snap.SessionID))
	_, err = env.svc.Get(ctx, snap.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, env.svc.Close(ctx, snap.SessionID), ErrSessionNotFound)
	assert.ErrorIs(t, env.svc.Close(ctx, "never-started"), ErrSessionNotFound)
}

func TestMilestonesCountedOncePerSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	snap, err := env.svc.Start(ctx)
	require.NoError(t, err)
	walkToContact(t, env.svc, snap.SessionID)

	// back into the questions and forward to contact capture again
	back, err := env.svc.Back(ctx, snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, flow.QAnythingElse, back.Position)
	assert.Equal(t, 1.0, back.Progress.Fraction)
	_, err = env.svc.Answer(ctx, snap.SessionID, answer(model.AnswerInput{}))
	require.NoError(t, err)

	env.submitter.err = errors.New("network error")
	_, err = env.svc.SubmitContact(ctx, snap.SessionID, &model.SubmitContactRequest{Name: "Ada", Email: "ada@example.com"})
	require.Error(t, err)
	_, err = env.svc.Retry(ctx, snap.SessionID)
	require.Error(t, err)

	env.submitter.err = nil
	res, err := env.svc.Retry(ctx, snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.FlowComplete, res.State)

	funnel, err := env.stats.GetFunnel(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), funnel[cache.MilestoneStarted])
	assert.Equal(t, int64(1), funnel[cache.MilestoneContact])
	assert.Equal(t, int64(2), funnel[cache.MilestoneFailed])
	assert.Equal(t, int64(1), funnel[cache.MilestoneCompleted])
}

func TestRecoverOnLoad(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	snap, err := env.svc.Start(ctx)
	require.NoError(t, err)

	stored, err := env.sessions.Get(ctx, snap.SessionID)
	require.NoError(t, err)
	stored.Position = "retired_question"
	require.NoError(t, env.sessions.Set(ctx, stored))

	got, err := env.svc.Get(ctx, snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, flow.QUsesBudgetingApp, got.Position)
}

func TestCatalogView(t *testing.T) {
	env := newTestEnv(t)
	view := env.svc.Catalog()
	assert.Equal(t, flow.QUsesBudgetingApp, view.Entry)
	assert.Len(t, view.Questions, 10)
	assert.NotEmpty(t, view.Edges)
}

func TestOptionLabel(t *testing.T) {
	assert.Equal(t, "Other (please specify)", optionLabel("Other (please specify): Envelope system"))
	assert.Equal(t, "Bill reminders", optionLabel("Bill reminders"))
	assert.Equal(t, "Note: important", optionLabel("Note: important"))
}
