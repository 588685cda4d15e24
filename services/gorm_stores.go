package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"conference-management-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORM-backed store implementations. Constructors take the *gorm.DB so tests
// and callers control the connection.

var nonTerminalStatuses = []string{
	models.AbstractStatusSubmitted,
	models.AbstractStatusUnderReview,
}

// GormAbstractStore persists abstracts in MySQL.
type GormAbstractStore struct {
	db *gorm.DB
}

func NewGormAbstractStore(db *gorm.DB) *GormAbstractStore {
	return &GormAbstractStore{db: db}
}

func (s *GormAbstractStore) Create(ctx context.Context, abstract *models.Abstract) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		abstract.CreateAt = now
		abstract.UpdateAt = now
		if err := tx.Create(abstract).Error; err != nil {
			return err
		}
		// The human-readable code folds the registration and the row id, so
		// it is unique without a separate sequence.
		abstract.AbstractCode = fmt.Sprintf("REG%d-ABS-%d", abstract.RegistrationID, abstract.AbstractID)
		return tx.Model(&models.Abstract{}).
			Where("abstract_id = ?", abstract.AbstractID).
			Update("abstract_code", abstract.AbstractCode).Error
	})
}

func (s *GormAbstractStore) ByID(ctx context.Context, abstractID int) (*models.Abstract, error) {
	var abstract models.Abstract
	err := s.db.WithContext(ctx).
		Preload("Reviewers").
		Where("abstract_id = ? AND delete_at IS NULL", abstractID).
		First(&abstract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: abstract %d", ErrNotFound, abstractID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load abstract %d: %w", abstractID, err)
	}
	return &abstract, nil
}

func (s *GormAbstractStore) List(ctx context.Context, filter AbstractFilter) ([]models.Abstract, error) {
	query := s.db.WithContext(ctx).
		Preload("Reviewers").
		Where("delete_at IS NULL")
	if filter.Track != "" {
		query = query.Where("track = ?", filter.Track)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RegistrationID > 0 {
		query = query.Where("registration_id = ?", filter.RegistrationID)
	}

	var abstracts []models.Abstract
	if err := query.Order("submitted_at DESC").Find(&abstracts).Error; err != nil {
		return nil, fmt.Errorf("failed to list abstracts: %w", err)
	}
	return abstracts, nil
}

func (s *GormAbstractStore) AddReviewers(ctx context.Context, abstractID int, reviewerIDs []int) (int, error) {
	rows := make([]models.AbstractReviewer, 0, len(reviewerIDs))
	now := time.Now()
	for _, reviewerID := range reviewerIDs {
		rows = append(rows, models.AbstractReviewer{
			AbstractID: abstractID,
			ReviewerID: reviewerID,
			AssignedAt: now,
		})
	}

	// ON DUPLICATE KEY ... DO NOTHING keeps the reviewer set duplicate-free
	// under concurrent assignment.
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func (s *GormAbstractStore) RemoveReviewers(ctx context.Context, abstractID int, reviewerIDs []int) (int, error) {
	result := s.db.WithContext(ctx).
		Where("abstract_id = ? AND reviewer_id IN ?", abstractID, reviewerIDs).
		Delete(&models.AbstractReviewer{})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func (s *GormAbstractStore) ReviewerIDs(ctx context.Context, abstractID int) ([]int, error) {
	var ids []int
	err := s.db.WithContext(ctx).
		Model(&models.AbstractReviewer{}).
		Where("abstract_id = ?", abstractID).
		Order("id ASC").
		Pluck("reviewer_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load assigned reviewers: %w", err)
	}
	return ids, nil
}

func (s *GormAbstractStore) SetStatus(ctx context.Context, abstractID int, status string) error {
	return s.db.WithContext(ctx).
		Model(&models.Abstract{}).
		Where("abstract_id = ?", abstractID).
		Updates(map[string]interface{}{"status": status, "update_at": time.Now()}).Error
}

func (s *GormAbstractStore) Decide(ctx context.Context, abstractID int, status string, decisionAt time.Time, averageScore *float64) (bool, error) {
	// Guarded transition: only a non-terminal abstract can be decided, so a
	// concurrent second evaluation affects zero rows.
	result := s.db.WithContext(ctx).
		Model(&models.Abstract{}).
		Where("abstract_id = ? AND status IN ?", abstractID, nonTerminalStatuses).
		Updates(map[string]interface{}{
			"status":        status,
			"decision_at":   decisionAt,
			"average_score": averageScore,
			"update_at":     time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *GormAbstractStore) SetApprovedFor(ctx context.Context, abstractID int, category string) error {
	return s.db.WithContext(ctx).
		Model(&models.Abstract{}).
		Where("abstract_id = ?", abstractID).
		Updates(map[string]interface{}{"approved_for": category, "update_at": time.Now()}).Error
}

func (s *GormAbstractStore) OpenAssignmentCounts(ctx context.Context, reviewerIDs []int) (map[int]int, error) {
	type loadRow struct {
		ReviewerID int `gorm:"column:reviewer_id"`
		OpenCount  int `gorm:"column:open_count"`
	}

	var rows []loadRow
	err := s.db.WithContext(ctx).
		Model(&models.AbstractReviewer{}).
		Select("abstract_reviewers.reviewer_id, COUNT(*) AS open_count").
		Joins("JOIN abstracts ON abstracts.abstract_id = abstract_reviewers.abstract_id").
		Where("abstract_reviewers.reviewer_id IN ?", reviewerIDs).
		Where("abstracts.status IN ? AND abstracts.delete_at IS NULL", nonTerminalStatuses).
		Group("abstract_reviewers.reviewer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	loads := make(map[int]int, len(rows))
	for _, row := range rows {
		loads[row.ReviewerID] = row.OpenCount
	}
	return loads, nil
}

func (s *GormAbstractStore) Unassigned(ctx context.Context) ([]models.Abstract, error) {
	var abstracts []models.Abstract
	err := s.db.WithContext(ctx).
		Joins("LEFT JOIN abstract_reviewers ON abstract_reviewers.abstract_id = abstracts.abstract_id").
		Where("abstract_reviewers.id IS NULL").
		Where("abstracts.status = ? AND abstracts.delete_at IS NULL", models.AbstractStatusSubmitted).
		Order("abstracts.abstract_id ASC").
		Find(&abstracts).Error
	if err != nil {
		return nil, err
	}
	return abstracts, nil
}

// GormReviewStore persists reviews.
type GormReviewStore struct {
	db *gorm.DB
}

func NewGormReviewStore(db *gorm.DB) *GormReviewStore {
	return &GormReviewStore{db: db}
}

func (s *GormReviewStore) Create(ctx context.Context, review *models.Review) error {
	err := s.db.WithContext(ctx).Create(review).Error
	if err != nil && isDuplicateKeyError(err) {
		return fmt.Errorf("%w: reviewer %d, abstract %s", ErrDuplicateReview, review.ReviewerID, review.AbstractCode)
	}
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (s *GormReviewStore) Update(ctx context.Context, review *models.Review) error {
	return s.db.WithContext(ctx).Save(review).Error
}

func (s *GormReviewStore) Find(ctx context.Context, abstractID, reviewerID int) (*models.Review, error) {
	var review models.Review
	err := s.db.WithContext(ctx).
		Where("abstract_id = ? AND reviewer_id = ?", abstractID, reviewerID).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up review: %w", err)
	}
	return &review, nil
}

func (s *GormReviewStore) ByAbstract(ctx context.Context, abstractID int) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.WithContext(ctx).
		Where("abstract_id = ?", abstractID).
		Order("reviewed_at ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	return reviews, nil
}

func (s *GormReviewStore) CountByAbstract(ctx context.Context, abstractID int) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("abstract_id = ?", abstractID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return int(count), nil
}

// GormRuleStore reads assignment rules.
type GormRuleStore struct {
	db *gorm.DB
}

func NewGormRuleStore(db *gorm.DB) *GormRuleStore {
	return &GormRuleStore{db: db}
}

func (s *GormRuleStore) Active(ctx context.Context) ([]models.AssignmentRule, error) {
	var rules []models.AssignmentRule
	err := s.db.WithContext(ctx).
		Preload("Pool", func(db *gorm.DB) *gorm.DB {
			return db.Order("pool_order ASC")
		}).
		Where("is_active = ? AND delete_at IS NULL", true).
		Order("rule_id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// GormUserDirectory resolves reviewers and author contacts from the users
// table.
type GormUserDirectory struct {
	db *gorm.DB
}

func NewGormUserDirectory(db *gorm.DB) *GormUserDirectory {
	return &GormUserDirectory{db: db}
}

func (s *GormUserDirectory) ActiveReviewerIDs(ctx context.Context) ([]int, error) {
	var ids []int
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role_id = ? AND is_active = ? AND delete_at IS NULL", models.RoleReviewer, true).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *GormUserDirectory) Contact(ctx context.Context, userID int) (string, string, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND delete_at IS NULL", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	if err != nil {
		return "", "", err
	}
	return user.FullName(), user.Email, nil
}

// GormConfigStore loads and saves the reviewer config singleton row.
type GormConfigStore struct {
	db *gorm.DB
}

func NewGormConfigStore(db *gorm.DB) *GormConfigStore {
	return &GormConfigStore{db: db}
}

func (s *GormConfigStore) Load(ctx context.Context) (*models.ReviewerConfig, error) {
	var cfg models.ReviewerConfig
	err := s.db.WithContext(ctx).Where("config_id = ?", 1).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *GormConfigStore) Save(ctx context.Context, cfg *models.ReviewerConfig) error {
	return s.db.WithContext(ctx).Save(cfg).Error
}

// GormPendingEmailStore is the durable pending-email queue.
type GormPendingEmailStore struct {
	db *gorm.DB
}

func NewGormPendingEmailStore(db *gorm.DB) *GormPendingEmailStore {
	return &GormPendingEmailStore{db: db}
}

func (s *GormPendingEmailStore) Append(ctx context.Context, entry *models.PendingEmail) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormPendingEmailStore) Snapshot(ctx context.Context) ([]models.PendingEmail, error) {
	var entries []models.PendingEmail
	err := s.db.WithContext(ctx).Order("pending_email_id ASC").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *GormPendingEmailStore) DeleteIDs(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("pending_email_id IN ?", ids).
		Delete(&models.PendingEmail{}).Error
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// MySQL error 1062 without gorm error translation enabled.
	return strings.Contains(err.Error(), "Duplicate entry")
}
