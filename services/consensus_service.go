package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"conference-management-api/models"
)

// TieBreak names the consensus tie policy. A tied vote currently rejects;
// strict majority is required for acceptance. Keep this in one place so the
// policy can be revisited without hunting through the vote tally.
type TieBreak int

const TieBreakRejectOnTie TieBreak = iota

// ConsensusService computes the accept/reject outcome once every assigned
// reviewer has submitted a review.
type ConsensusService struct {
	abstracts    AbstractStore
	reviews      ReviewStore
	configSvc    *ReviewerConfigService
	notification *NotificationService

	tieBreak TieBreak
}

func NewConsensusService(abstracts AbstractStore, reviews ReviewStore, configSvc *ReviewerConfigService, notification *NotificationService) *ConsensusService {
	return &ConsensusService{
		abstracts:    abstracts,
		reviews:      reviews,
		configSvc:    configSvc,
		notification: notification,
		tieBreak:     TieBreakRejectOnTie,
	}
}

// Evaluate re-reads the authoritative review count and, when quorum is
// reached, commits the majority decision. It returns the decided status, or
// an empty string while the abstract is still pending. Calling it again after
// a decision is a no-op: the guarded status update refuses a second
// transition, so the notification never fires twice.
func (s *ConsensusService) Evaluate(ctx context.Context, abstractID int) (string, error) {
	abstract, err := s.abstracts.ByID(ctx, abstractID)
	if err != nil {
		return "", err
	}
	if abstract.IsTerminal() {
		return abstract.Status, nil
	}

	assigned, err := s.abstracts.ReviewerIDs(ctx, abstractID)
	if err != nil {
		return "", err
	}
	if len(assigned) == 0 {
		return "", nil
	}

	// Authoritative count, not one carried over from the caller. Two
	// reviewers may submit concurrently.
	count, err := s.reviews.CountByAbstract(ctx, abstractID)
	if err != nil {
		return "", err
	}
	if count != len(assigned) {
		return "", nil
	}

	reviews, err := s.reviews.ByAbstract(ctx, abstractID)
	if err != nil {
		return "", err
	}

	accepts := 0
	for _, review := range reviews {
		if review.Recommendation == models.RecommendationAccept {
			accepts++
		}
	}
	rejects := len(reviews) - accepts

	// TieBreakRejectOnTie: strict majority required for acceptance.
	status := models.AbstractStatusRejected
	if accepts > rejects {
		status = models.AbstractStatusAccepted
	}

	averageScore, err := s.averageScore(ctx, reviews)
	if err != nil {
		return "", err
	}

	decided, err := s.abstracts.Decide(ctx, abstractID, status, time.Now(), averageScore)
	if err != nil {
		return "", fmt.Errorf("failed to record decision for abstract %d: %w", abstractID, err)
	}
	if !decided {
		// A concurrent evaluation got there first; report the stored outcome.
		current, err := s.abstracts.ByID(ctx, abstractID)
		if err != nil {
			return "", err
		}
		return current.Status, nil
	}

	abstract.Status = status
	// The decision is committed; a cancelled request must not abort the
	// notification halfway through.
	if err := s.notification.NotifyDecision(persistentContext(ctx), abstract); err != nil {
		// Transport failures must not make a committed decision look undecided.
		log.Printf("decision notification for abstract %s: %v", abstract.AbstractCode, err)
	}
	return status, nil
}

// averageScore is only computed when scoring criteria are enabled.
func (s *ConsensusService) averageScore(ctx context.Context, reviews []models.Review) (*float64, error) {
	cfg, err := s.configSvc.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(cfg.ScoringCriteria) == 0 || len(reviews) == 0 {
		return nil, nil
	}

	var total float64
	for _, review := range reviews {
		total += review.TotalScore()
	}
	avg := total / float64(len(reviews))
	return &avg, nil
}
