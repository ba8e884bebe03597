package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"leadfunnel/internal/model"
	"leadfunnel/internal/repository"
)

// Notifier receives a submission after it has been stored
type Notifier interface {
	Notify(ctx context.Context, sub *model.Submission) error
}

// RecordSubmitter is the submission collaborator: it persists the submission and
// then fans out notifications without blocking the respondent.
type RecordSubmitter struct {
	repo        repository.SubmissionRepo
	broadcaster Broadcaster
	notifier    Notifier
	notifyWait  time.Duration
}

// NewRecordSubmitter creates a new record submitter
func NewRecordSubmitter(repo repository.SubmissionRepo) *RecordSubmitter {
	return &RecordSubmitter{
		repo:       repo,
		notifyWait: 30 * time.Second,
	}
}

// SetBroadcaster sets the broadcaster for admin dashboard events
func (s *RecordSubmitter) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetNotifier sets the follow-up notifier (remote function)
func (s *RecordSubmitter) SetNotifier(n Notifier) {
	s.notifier = n
}

// Submit implements flow.Submitter
func (s *RecordSubmitter) Submit(ctx context.Context, sub *model.Submission) error {
	id, err := s.repo.Create(ctx, sub)
	if err != nil {
		return fmt.Errorf("failed to store submission: %w", err)
	}
	log.Printf("[Submit] stored submission %s for session %s", id, sub.SessionID)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAdmins("submission_received", map[string]interface{}{
			"submissionId": id,
			"sessionId":    sub.SessionID,
			"name":         sub.Contact.Name,
			"email":        sub.Contact.Email,
			"answered":     len(sub.Answers),
		})
	}

	if s.notifier != nil {
		go func(n Notifier, payload model.Submission) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[Submit] recovered from panic in notifier: %v", r)
				}
			}()
			notifyCtx, cancel := context.WithTimeout(context.Background(), s.notifyWait)
			defer cancel()
			if err := n.Notify(notifyCtx, &payload); err != nil {
				log.Printf("[Submit] notification for %s failed: %v", payload.ID, err)
			}
		}(s.notifier, *sub)
	}

	return nil
}
