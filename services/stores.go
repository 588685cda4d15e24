package services

import (
	"context"
	"time"

	"conference-management-api/models"
)

// Store interfaces isolate the review core from the persistence layer. The
// GORM implementations live in gorm_stores.go; tests substitute in-memory
// versions.

// AbstractStore persists abstracts and their assigned-reviewer set.
type AbstractStore interface {
	Create(ctx context.Context, abstract *models.Abstract) error
	ByID(ctx context.Context, abstractID int) (*models.Abstract, error)
	List(ctx context.Context, filter AbstractFilter) ([]models.Abstract, error)
	// AddReviewers inserts assignment rows, silently skipping reviewers that
	// are already assigned, and reports how many rows were added.
	AddReviewers(ctx context.Context, abstractID int, reviewerIDs []int) (int, error)
	RemoveReviewers(ctx context.Context, abstractID int, reviewerIDs []int) (int, error)
	ReviewerIDs(ctx context.Context, abstractID int) ([]int, error)
	// SetStatus updates the workflow status unconditionally (used for the
	// submitted -> under-review promotion).
	SetStatus(ctx context.Context, abstractID int, status string) error
	// Decide moves a non-terminal abstract into a terminal status in a single
	// guarded update. It reports false when the abstract was already decided,
	// which makes repeated consensus evaluation idempotent.
	Decide(ctx context.Context, abstractID int, status string, decisionAt time.Time, averageScore *float64) (bool, error)
	SetApprovedFor(ctx context.Context, abstractID int, category string) error
	// OpenAssignmentCounts returns, per reviewer, the number of non-terminal
	// abstracts currently assigned to them.
	OpenAssignmentCounts(ctx context.Context, reviewerIDs []int) (map[int]int, error)
	// Unassigned lists abstracts that still have an empty reviewer set.
	Unassigned(ctx context.Context) ([]models.Abstract, error)
}

// AbstractFilter narrows List results.
type AbstractFilter struct {
	Track          string
	Status         string
	RegistrationID int
}

// ReviewStore persists reviewer verdicts.
type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	Find(ctx context.Context, abstractID, reviewerID int) (*models.Review, error)
	ByAbstract(ctx context.Context, abstractID int) ([]models.Review, error)
	CountByAbstract(ctx context.Context, abstractID int) (int, error)
}

// RuleStore reads the admin-configured assignment rules.
type RuleStore interface {
	Active(ctx context.Context) ([]models.AssignmentRule, error)
}

// UserDirectory resolves reviewer and author identities.
type UserDirectory interface {
	// ActiveReviewerIDs is the default candidate pool when no rule matches,
	// ordered by user id for stable selection.
	ActiveReviewerIDs(ctx context.Context) ([]int, error)
	Contact(ctx context.Context, userID int) (name, email string, err error)
}

// ConfigStore loads and saves the raw reviewer configuration row. Defaulting
// happens in ReviewerConfigService, not here.
type ConfigStore interface {
	Load(ctx context.Context) (*models.ReviewerConfig, error)
	Save(ctx context.Context, cfg *models.ReviewerConfig) error
}

// PendingEmailStore is the durable pending-notification queue.
type PendingEmailStore interface {
	Append(ctx context.Context, entry *models.PendingEmail) error
	Snapshot(ctx context.Context) ([]models.PendingEmail, error)
	// DeleteIDs removes exactly the given rows, leaving entries queued during
	// a flush untouched.
	DeleteIDs(ctx context.Context, ids []int) error
}

// CursorStore is the per-track round-robin cursor with an atomic advance.
type CursorStore interface {
	// Advance moves the track cursor forward by the given amount and returns
	// the window start (the cursor value before the advance).
	Advance(ctx context.Context, track string, by int) (int, error)
}
