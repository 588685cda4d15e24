package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"conference-management-api/models"

	"gorm.io/datatypes"
)

// ReviewInput is one reviewer's submitted verdict.
type ReviewInput struct {
	Recommendation string             `json:"recommendation"`
	Comments       string             `json:"comments"`
	Scores         map[string]float64 `json:"scores"`
}

// ReviewService validates and records reviewer verdicts and triggers
// consensus evaluation in the same operation.
type ReviewService struct {
	abstracts AbstractStore
	reviews   ReviewStore
	configSvc *ReviewerConfigService
	consensus *ConsensusService
}

func NewReviewService(abstracts AbstractStore, reviews ReviewStore, configSvc *ReviewerConfigService, consensus *ConsensusService) *ReviewService {
	return &ReviewService{
		abstracts: abstracts,
		reviews:   reviews,
		configSvc: configSvc,
		consensus: consensus,
	}
}

// SubmitReview checks preconditions in order (assignment membership, no
// duplicate, input validity), persists the review, promotes a freshly
// submitted abstract to under-review, and evaluates consensus. A rejected
// submission leaves all prior state untouched.
func (s *ReviewService) SubmitReview(ctx context.Context, abstractID, reviewerID int, input ReviewInput) (*models.Review, error) {
	abstract, err := s.abstracts.ByID(ctx, abstractID)
	if err != nil {
		return nil, err
	}
	if abstract.IsTerminal() {
		return nil, fmt.Errorf("%w: abstract %s is already %s", ErrConflict, abstract.AbstractCode, abstract.Status)
	}

	assigned, err := s.abstracts.ReviewerIDs(ctx, abstractID)
	if err != nil {
		return nil, err
	}
	if !containsInt(assigned, reviewerID) {
		return nil, fmt.Errorf("%w: reviewer %d, abstract %s", ErrNotAssigned, reviewerID, abstract.AbstractCode)
	}

	cfg, err := s.configSvc.Get(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.reviews.Find(ctx, abstractID, reviewerID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !cfg.AllowReviewEdit {
		return nil, fmt.Errorf("%w: reviewer %d, abstract %s", ErrDuplicateReview, reviewerID, abstract.AbstractCode)
	}

	if err := validateReviewInput(cfg, input); err != nil {
		return nil, err
	}

	var comments *string
	if trimmed := strings.TrimSpace(input.Comments); trimmed != "" {
		comments = &trimmed
	}

	if existing != nil {
		// allow_review_edit is on: replace the verdict in place.
		existing.Recommendation = input.Recommendation
		existing.Comments = comments
		existing.Scores = datatypes.NewJSONType(input.Scores)
		existing.ReviewedAt = time.Now()
		if err := s.reviews.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update review: %w", err)
		}
		if _, err := s.consensus.Evaluate(ctx, abstractID); err != nil {
			return nil, err
		}
		return existing, nil
	}

	review := &models.Review{
		AbstractID:     abstractID,
		AbstractCode:   abstract.AbstractCode,
		ReviewerID:     reviewerID,
		Track:          abstract.Track,
		Category:       abstract.Category,
		Subcategory:    abstract.Subcategory,
		Scores:         datatypes.NewJSONType(input.Scores),
		Comments:       comments,
		Recommendation: input.Recommendation,
		ReviewedAt:     time.Now(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		// The unique (abstract_id, reviewer_id) index is the second line of
		// defense against a concurrent duplicate slipping past the check.
		return nil, err
	}

	if abstract.Status == models.AbstractStatusSubmitted {
		if err := s.abstracts.SetStatus(ctx, abstractID, models.AbstractStatusUnderReview); err != nil {
			return nil, err
		}
	}

	if _, err := s.consensus.Evaluate(ctx, abstractID); err != nil {
		return nil, err
	}
	return review, nil
}

func validateReviewInput(cfg *models.ReviewerConfig, input ReviewInput) error {
	switch input.Recommendation {
	case models.RecommendationAccept, models.RecommendationReject:
	default:
		return fmt.Errorf("%w: recommendation must be %q or %q",
			ErrValidation, models.RecommendationAccept, models.RecommendationReject)
	}

	if cfg.RequireRejectionComment &&
		input.Recommendation == models.RecommendationReject &&
		strings.TrimSpace(input.Comments) == "" {
		return fmt.Errorf("%w: a comment is required when rejecting", ErrValidation)
	}

	for key, score := range input.Scores {
		criterion, ok := cfg.CriterionByKey(key)
		if !ok {
			return fmt.Errorf("%w: unknown scoring criterion %q", ErrValidation, key)
		}
		if score < 0 || score > criterion.MaxScore {
			return fmt.Errorf("%w: score for %q must be between 0 and %g", ErrValidation, key, criterion.MaxScore)
		}
	}
	return nil
}

func containsInt(values []int, target int) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
