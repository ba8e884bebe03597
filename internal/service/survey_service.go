package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"leadfunnel/internal/cache"
	"leadfunnel/internal/flow"
	"leadfunnel/internal/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session is busy")
	ErrStaleQuestion   = errors.New("answer is for a different question")
)

// CatalogView is the public description of the survey graph
type CatalogView struct {
	Entry     string           `json:"entry"`
	Questions []model.Question `json:"questions"`
	Edges     []flow.Edge      `json:"edges"`
}

// SurveyService runs survey sessions stored in Redis
type SurveyService struct {
	engine    *flow.Engine
	sessions  cache.SessionCache
	stats     cache.StatsCache
	submitter flow.Submitter
}

// NewSurveyService creates a new survey service
func NewSurveyService(engine *flow.Engine, sessions cache.SessionCache, stats cache.StatsCache, submitter flow.Submitter) *SurveyService {
	return &SurveyService{
		engine:    engine,
		sessions:  sessions,
		stats:     stats,
		submitter: submitter,
	}
}

// Catalog returns the question set and transition graph
func (s *SurveyService) Catalog() *CatalogView {
	return &CatalogView{
		Entry:     s.engine.Catalog().Entry(),
		Questions: s.engine.Catalog().Questions(),
		Edges:     s.engine.Table().Edges(),
	}
}

// Start opens a new session at the entry question
func (s *SurveyService) Start(ctx context.Context) (*model.FlowSnapshot, error) {
	session := s.engine.NewSession(uuid.New().String())
	reached := firstTime(session, cache.MilestoneStarted)
	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if reached {
		s.milestone(ctx, cache.MilestoneStarted)
	}

	snap := s.engine.Controller(session).Snapshot()
	return &snap, nil
}

// Get returns the current snapshot of a session
func (s *SurveyService) Get(ctx context.Context, id string) (*model.FlowSnapshot, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	c := s.engine.Controller(session)
	if c.Recover() {
		if err := s.sessions.Set(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}
	snap := c.Snapshot()
	return &snap, nil
}

// Answer submits an answer for the current question
func (s *SurveyService) Answer(ctx context.Context, id string, req *model.SubmitAnswerRequest) (*model.FlowSnapshot, error) {
	return s.mutate(ctx, id, func(c *flow.Controller) error {
		if req.QuestionID != "" && req.QuestionID != c.Session().Position {
			return ErrStaleQuestion
		}
		return c.Submit(req.AnswerInput)
	})
}

// Back returns to the previous question
func (s *SurveyService) Back(ctx context.Context, id string) (*model.FlowSnapshot, error) {
	return s.mutate(ctx, id, func(c *flow.Controller) error {
		return c.Back()
	})
}

// SubmitContact captures contact details and hands the session to the submitter
func (s *SurveyService) SubmitContact(ctx context.Context, id string, req *model.SubmitContactRequest) (*model.FlowSnapshot, error) {
	return s.mutate(ctx, id, func(c *flow.Controller) error {
		if err := c.SubmitContact(req.Name, req.Email); err != nil {
			return err
		}
		return c.Finalize(ctx, s.submitter)
	})
}

// Retry re-sends a failed submission with the captured contact
func (s *SurveyService) Retry(ctx context.Context, id string) (*model.FlowSnapshot, error) {
	return s.mutate(ctx, id, func(c *flow.Controller) error {
		if err := c.Retry(); err != nil {
			return err
		}
		return c.Finalize(ctx, s.submitter)
	})
}

// Close discards a session and everything it collected
func (s *SurveyService) Close(ctx context.Context, id string) error {
	release, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer release()
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, id)
}

// mutate runs fn on the session under its lock and persists the result.
// The snapshot is returned even when fn fails so clients can render errors in place.
func (s *SurveyService) mutate(ctx context.Context, id string, fn func(c *flow.Controller) error) (*model.FlowSnapshot, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	c := s.engine.Controller(session)
	c.Recover()

	fnErr := fn(c)
	after := c.State()
	counted := s.countMilestones(c, fnErr)

	if after == model.FlowComplete {
		// Completed sessions are not resumable; the submitter owns the data now.
		if err := s.sessions.Delete(ctx, id); err != nil {
			log.Printf("[Flow] failed to discard completed session %s: %v", id, err)
		}
	} else if err := s.sessions.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	for _, m := range counted {
		s.milestone(ctx, m)
	}
	if after == model.FlowComplete {
		s.tally(ctx, c.Store().Map())
	}

	snap := c.Snapshot()
	return &snap, fnErr
}

func (s *SurveyService) lock(ctx context.Context, id string) (func(), error) {
	release, err := s.sessions.Lock(ctx, id)
	if errors.Is(err, cache.ErrLocked) {
		return nil, ErrSessionBusy
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	return release, nil
}

func (s *SurveyService) load(ctx context.Context, id string) (*model.FlowSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// countMilestones returns the funnel counters to bump after a step. Contact and
// completion count once per session; every failed submission attempt counts.
// The once-flags are stored on the session, so this must run before it is saved.
func (s *SurveyService) countMilestones(c *flow.Controller, fnErr error) []string {
	var out []string
	session := c.Session()

	var serr *flow.SubmissionError
	if errors.As(fnErr, &serr) {
		out = append(out, cache.MilestoneFailed)
	}
	if session.State != model.FlowInProgress && firstTime(session, cache.MilestoneContact) {
		out = append(out, cache.MilestoneContact)
	}
	if session.State == model.FlowComplete && firstTime(session, cache.MilestoneCompleted) {
		out = append(out, cache.MilestoneCompleted)
	}
	return out
}

func firstTime(session *model.FlowSession, milestone string) bool {
	if session.Milestones[milestone] {
		return false
	}
	if session.Milestones == nil {
		session.Milestones = make(map[string]bool)
	}
	session.Milestones[milestone] = true
	return true
}

func (s *SurveyService) milestone(ctx context.Context, m string) {
	if s.stats == nil {
		return
	}
	if err := s.stats.IncrMilestone(ctx, m); err != nil {
		log.Printf("[Flow] failed to record milestone %s: %v", m, err)
	}
}

// tally counts chosen options per question; elaboration text is folded into its option
func (s *SurveyService) tally(ctx context.Context, answers map[string]model.Answer) {
	if s.stats == nil {
		return
	}
	for id, a := range answers {
		q, err := s.engine.Catalog().GetQuestion(id)
		if err != nil {
			continue
		}
		var options []string
		switch q.Kind {
		case model.KindSingleChoice:
			options = []string{optionLabel(a.Text)}
		case model.KindMultiChoice:
			for _, c := range a.Choices {
				options = append(options, optionLabel(c))
			}
		case model.KindScale:
			options = []string{strconv.Itoa(a.Scale)}
		}
		if err := s.stats.IncrOptions(ctx, id, options...); err != nil {
			log.Printf("[Flow] failed to tally %s: %v", id, err)
		}
	}
}

func optionLabel(value string) string {
	if i := strings.Index(value, ": "); i > 0 && flow.RequiresSpecification(value[:i]) {
		return value[:i]
	}
	return value
}
