package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"conference-management-api/models"

	"gorm.io/datatypes"
)

var configTTL = 5 * time.Minute

// DefaultReviewerConfig returns the configuration used when no row exists
// yet. Individual empty fields of a stored row fall back to these values too.
func DefaultReviewerConfig() *models.ReviewerConfig {
	return &models.ReviewerConfig{
		ConfigID:              1,
		ReviewLayout:          "single-column",
		ApprovalCategories:    datatypes.NewJSONSlice([]string{"oral-presentation", "poster-presentation"}),
		ScoringCriteria:       datatypes.NewJSONSlice([]models.ScoringCriterion{}),
		EmailNotificationMode: models.NotificationModeImmediate,
		AcceptanceEmailSubject: "Abstract {abstractId} accepted",
		AcceptanceEmailBody: "Dear {name},\n\nYour abstract \"{title}\" ({abstractId}) has been accepted" +
			" for {approvedFor}.\n\nPlease visit {dashboardUrl} for the next steps.",
		RejectionEmailSubject: "Abstract {abstractId} decision",
		RejectionEmailBody: "Dear {name},\n\nWe regret to inform you that your abstract \"{title}\"" +
			" ({abstractId}) was not accepted.\n\nPlease visit {dashboardUrl} for details.",
	}
}

// ReviewerConfigService serves the singleton review configuration with
// merge-on-read defaulting and a short-lived cache.
type ReviewerConfigService struct {
	store ConfigStore

	mu        sync.RWMutex
	cached    *models.ReviewerConfig
	fetchedAt time.Time
}

func NewReviewerConfigService(store ConfigStore) *ReviewerConfigService {
	return &ReviewerConfigService{store: store}
}

// Get returns the merged configuration, loading it at most once per TTL.
func (s *ReviewerConfigService) Get(ctx context.Context) (*models.ReviewerConfig, error) {
	s.mu.RLock()
	cached, fetchedAt := s.cached, s.fetchedAt
	s.mu.RUnlock()

	if cached != nil && time.Since(fetchedAt) < configTTL {
		return cached, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && time.Since(s.fetchedAt) < configTTL {
		return s.cached, nil
	}

	stored, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviewer config: %w", err)
	}

	merged := mergeWithDefaults(stored)
	s.cached = merged
	s.fetchedAt = time.Now()
	return merged, nil
}

// Update persists the configuration and invalidates the cache.
func (s *ReviewerConfigService) Update(ctx context.Context, cfg *models.ReviewerConfig) (*models.ReviewerConfig, error) {
	if cfg.EmailNotificationMode != "" &&
		cfg.EmailNotificationMode != models.NotificationModeImmediate &&
		cfg.EmailNotificationMode != models.NotificationModeManual {
		return nil, fmt.Errorf("%w: email notification mode must be %q or %q",
			ErrValidation, models.NotificationModeImmediate, models.NotificationModeManual)
	}
	for _, criterion := range cfg.ScoringCriteria {
		if criterion.Key == "" || criterion.MaxScore <= 0 {
			return nil, fmt.Errorf("%w: scoring criteria need a key and a positive max score", ErrValidation)
		}
	}

	cfg.ConfigID = 1
	cfg.UpdateAt = time.Now()
	if err := s.store.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save reviewer config: %w", err)
	}

	s.Invalidate()
	return mergeWithDefaults(cfg), nil
}

// Invalidate drops the cached configuration.
func (s *ReviewerConfigService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}

func mergeWithDefaults(stored *models.ReviewerConfig) *models.ReviewerConfig {
	defaults := DefaultReviewerConfig()
	if stored == nil {
		return defaults
	}

	merged := *stored
	merged.ConfigID = 1
	if merged.ReviewLayout == "" {
		merged.ReviewLayout = defaults.ReviewLayout
	}
	if len(merged.ApprovalCategories) == 0 {
		merged.ApprovalCategories = defaults.ApprovalCategories
	}
	if merged.EmailNotificationMode == "" {
		merged.EmailNotificationMode = defaults.EmailNotificationMode
	}
	if merged.AcceptanceEmailSubject == "" {
		merged.AcceptanceEmailSubject = defaults.AcceptanceEmailSubject
	}
	if merged.AcceptanceEmailBody == "" {
		merged.AcceptanceEmailBody = defaults.AcceptanceEmailBody
	}
	if merged.RejectionEmailSubject == "" {
		merged.RejectionEmailSubject = defaults.RejectionEmailSubject
	}
	if merged.RejectionEmailBody == "" {
		merged.RejectionEmailBody = defaults.RejectionEmailBody
	}
	return &merged
}
