package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"conference-management-api/models"

	"gorm.io/datatypes"
)

// SubmitAbstractInput is the intake payload for a new abstract.
type SubmitAbstractInput struct {
	RegistrationID int      `json:"registration_id"`
	UserID         int      `json:"-"`
	Track          string   `json:"track"`
	Category       string   `json:"category"`
	Subcategory    string   `json:"subcategory"`
	Title          string   `json:"title"`
	Authors        []string `json:"authors"`
	Keywords       []string `json:"keywords"`
	WordCount      int      `json:"word_count"`
	FilePath       string   `json:"file_path"`
}

// AbstractService owns the abstract status state machine: submission with
// assignment, the administrative reviewer-set primitives, and the bulk
// assignment pass over unassigned abstracts.
type AbstractService struct {
	abstracts AbstractStore
	resolver  *RuleResolver
	selector  *SelectorService
	directory UserDirectory
}

func NewAbstractService(abstracts AbstractStore, resolver *RuleResolver, selector *SelectorService, directory UserDirectory) *AbstractService {
	return &AbstractService{
		abstracts: abstracts,
		resolver:  resolver,
		selector:  selector,
		directory: directory,
	}
}

// Submit creates the abstract and applies reviewer assignment in the same
// operation. When at least one reviewer was assigned the abstract moves to
// under-review; an empty candidate pool leaves it in submitted rather than
// failing the submission.
func (s *AbstractService) Submit(ctx context.Context, input SubmitAbstractInput) (*models.Abstract, error) {
	track := strings.TrimSpace(input.Track)
	if track == "" {
		return nil, fmt.Errorf("%w: track is required", ErrValidation)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if input.RegistrationID <= 0 {
		return nil, fmt.Errorf("%w: registration id is required", ErrValidation)
	}

	abstract := &models.Abstract{
		RegistrationID: input.RegistrationID,
		UserID:         input.UserID,
		Track:          track,
		Category:       optionalString(input.Category),
		Subcategory:    optionalString(input.Subcategory),
		Title:          title,
		Authors:        datatypes.NewJSONSlice(input.Authors),
		Keywords:       datatypes.NewJSONSlice(input.Keywords),
		WordCount:      input.WordCount,
		FilePath:       optionalString(input.FilePath),
		Status:         models.AbstractStatusSubmitted,
		SubmittedAt:    time.Now(),
	}
	if err := s.abstracts.Create(ctx, abstract); err != nil {
		return nil, fmt.Errorf("failed to create abstract: %w", err)
	}

	selected, err := s.selectForAbstract(ctx, abstract)
	if err != nil {
		return nil, err
	}
	if len(selected) > 0 {
		if _, err := s.abstracts.AddReviewers(ctx, abstract.AbstractID, selected); err != nil {
			return nil, fmt.Errorf("failed to assign reviewers: %w", err)
		}
		if err := s.abstracts.SetStatus(ctx, abstract.AbstractID, models.AbstractStatusUnderReview); err != nil {
			return nil, err
		}
	}

	return s.abstracts.ByID(ctx, abstract.AbstractID)
}

// AddReviewers is the administrative "add reviewer(s)" primitive. It never
// triggers consensus evaluation; only a new review submission does.
func (s *AbstractService) AddReviewers(ctx context.Context, abstractID int, reviewerIDs []int) (int, error) {
	if len(reviewerIDs) == 0 {
		return 0, fmt.Errorf("%w: reviewer ids are required", ErrValidation)
	}
	if _, err := s.abstracts.ByID(ctx, abstractID); err != nil {
		return 0, err
	}
	added, err := s.abstracts.AddReviewers(ctx, abstractID, reviewerIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to add reviewers: %w", err)
	}
	return added, nil
}

// RemoveReviewers is the administrative "remove reviewer(s)" primitive.
func (s *AbstractService) RemoveReviewers(ctx context.Context, abstractID int, reviewerIDs []int) (int, error) {
	if len(reviewerIDs) == 0 {
		return 0, fmt.Errorf("%w: reviewer ids are required", ErrValidation)
	}
	if _, err := s.abstracts.ByID(ctx, abstractID); err != nil {
		return 0, err
	}
	removed, err := s.abstracts.RemoveReviewers(ctx, abstractID, reviewerIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to remove reviewers: %w", err)
	}
	return removed, nil
}

// SetApprovedFor records the presentation category on an accepted abstract.
// The consensus engine never infers this from reviewer input.
func (s *AbstractService) SetApprovedFor(ctx context.Context, abstractID int, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return fmt.Errorf("%w: approved-for category is required", ErrValidation)
	}
	abstract, err := s.abstracts.ByID(ctx, abstractID)
	if err != nil {
		return err
	}
	if abstract.Status != models.AbstractStatusAccepted {
		return fmt.Errorf("%w: abstract %s is %s, not accepted", ErrConflict, abstract.AbstractCode, abstract.Status)
	}
	return s.abstracts.SetApprovedFor(ctx, abstractID, category)
}

// AssignUnassigned walks all abstracts without reviewers and spreads them
// over the active reviewer pool with the naive index-modulo rotation. Returns
// the number of abstracts that received reviewers.
func (s *AbstractService) AssignUnassigned(ctx context.Context, perAbstract int) (int, error) {
	if perAbstract <= 0 {
		perAbstract = DefaultReviewerCount
	}

	pool, err := s.directory.ActiveReviewerIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load reviewer pool: %w", err)
	}
	if len(pool) == 0 {
		return 0, nil
	}
	if perAbstract > len(pool) {
		perAbstract = len(pool)
	}

	unassigned, err := s.abstracts.Unassigned(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list unassigned abstracts: %w", err)
	}

	assigned := 0
	for i, abstract := range unassigned {
		selected := NaiveRoundRobin(pool, i, perAbstract)
		added, err := s.abstracts.AddReviewers(ctx, abstract.AbstractID, selected)
		if err != nil {
			return assigned, fmt.Errorf("failed to assign abstract %s: %w", abstract.AbstractCode, err)
		}
		if added > 0 {
			if err := s.abstracts.SetStatus(ctx, abstract.AbstractID, models.AbstractStatusUnderReview); err != nil {
				return assigned, err
			}
			assigned++
		}
	}
	return assigned, nil
}

func (s *AbstractService) selectForAbstract(ctx context.Context, abstract *models.Abstract) ([]int, error) {
	rule, err := s.resolver.FindRule(ctx, abstract.Track, abstract.Category, abstract.Subcategory)
	if err != nil {
		return nil, err
	}

	var pool []int
	desired := DefaultReviewerCount
	if rule != nil {
		pool = rule.PoolReviewerIDs()
		if rule.ReviewerCount > 0 {
			desired = rule.ReviewerCount
		}
	} else {
		pool, err = s.directory.ActiveReviewerIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load default reviewer pool: %w", err)
		}
	}

	return s.selector.Select(ctx, rule, pool, abstract.Track, desired)
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
