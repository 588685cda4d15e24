package models

import (
	"time"

	"gorm.io/datatypes"
)

// Email notification modes.
const (
	NotificationModeImmediate = "immediate"
	NotificationModeManual    = "manual"
)

// ScoringCriterion is one enabled review criterion with its maximum score.
type ScoringCriterion struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	MaxScore float64 `json:"max_score"`
}

// ReviewerConfig is the singleton review configuration row. Empty fields are
// filled with defaults on read by the reviewer config service; callers always
// see a fully populated value.
type ReviewerConfig struct {
	ConfigID                 int                                      `gorm:"primaryKey;column:config_id" json:"config_id"`
	BlindReview              bool                                     `gorm:"column:blind_review" json:"blind_review"`
	ReviewLayout             string                                   `gorm:"column:review_layout" json:"review_layout"`
	ApprovalCategories       datatypes.JSONSlice[string]              `gorm:"column:approval_categories" json:"approval_categories"`
	ScoringCriteria          datatypes.JSONSlice[ScoringCriterion]    `gorm:"column:scoring_criteria" json:"scoring_criteria"`
	RequireRejectionComment  bool                                     `gorm:"column:require_rejection_comment" json:"require_rejection_comment"`
	AllowReviewEdit          bool                                     `gorm:"column:allow_review_edit" json:"allow_review_edit"`
	ShowTotalScore           bool                                     `gorm:"column:show_total_score" json:"show_total_score"`
	EmailNotificationMode    string                                   `gorm:"column:email_notification_mode" json:"email_notification_mode"`
	AcceptanceEmailSubject   string                                   `gorm:"column:acceptance_email_subject" json:"acceptance_email_subject"`
	AcceptanceEmailBody      string                                   `gorm:"column:acceptance_email_body" json:"acceptance_email_body"`
	RejectionEmailSubject    string                                   `gorm:"column:rejection_email_subject" json:"rejection_email_subject"`
	RejectionEmailBody       string                                   `gorm:"column:rejection_email_body" json:"rejection_email_body"`
	UpdateAt                 time.Time                                `gorm:"column:update_at" json:"update_at"`
}

// CriterionByKey looks up an enabled criterion.
func (c *ReviewerConfig) CriterionByKey(key string) (ScoringCriterion, bool) {
	for _, criterion := range c.ScoringCriteria {
		if criterion.Key == key {
			return criterion, true
		}
	}
	return ScoringCriterion{}, false
}

// TableName specifies the table name for ReviewerConfig.
func (ReviewerConfig) TableName() string {
	return "reviewer_configs"
}
