package service

import (
	"context"
	"fmt"

	"leadfunnel/internal/cache"
	"leadfunnel/internal/flow"
	"leadfunnel/internal/model"
	"leadfunnel/internal/repository"
)

const maxPageSize = 100

// SubmissionPage is one page of stored submissions
type SubmissionPage struct {
	Items []*model.Submission `json:"items"`
	Total int64               `json:"total"`
}

// FunnelStats summarises conversion and answer distribution
type FunnelStats struct {
	Funnel    map[string]int64               `json:"funnel"`
	Questions map[string][]cache.OptionCount `json:"questions"`
}

// SubmissionService serves the back-office views of captured leads
type SubmissionService struct {
	repo    repository.SubmissionRepo
	stats   cache.StatsCache
	catalog *flow.Catalog
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(repo repository.SubmissionRepo, stats cache.StatsCache, catalog *flow.Catalog) *SubmissionService {
	return &SubmissionService{
		repo:    repo,
		stats:   stats,
		catalog: catalog,
	}
}

// List returns a page of submissions, newest first
func (s *SubmissionService) List(ctx context.Context, limit, offset int64) (*SubmissionPage, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}
	return &SubmissionPage{Items: items, Total: total}, nil
}

// Get returns one submission, or nil if it does not exist
func (s *SubmissionService) Get(ctx context.Context, id string) (*model.Submission, error) {
	return s.repo.GetByID(ctx, id)
}

// Stats returns funnel counters and the top answers per question
func (s *SubmissionService) Stats(ctx context.Context) (*FunnelStats, error) {
	funnel, err := s.stats.GetFunnel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read funnel: %w", err)
	}

	out := &FunnelStats{
		Funnel:    funnel,
		Questions: make(map[string][]cache.OptionCount),
	}
	for _, q := range s.catalog.Questions() {
		if q.Kind == model.KindFreeText {
			continue
		}
		top, err := s.stats.GetTop(ctx, q.ID, 10)
		if err != nil {
			return nil, fmt.Errorf("failed to read tallies for %s: %w", q.ID, err)
		}
		out.Questions[q.ID] = top
	}
	return out, nil
}
