package models

import "time"

// Assignment policies. NaiveRoundRobin is only used by the bulk
// assign-unassigned pass and is deliberately kept apart from the configured
// round-robin policy: it has no persisted cursor and always draws from the
// full active-reviewer pool.
const (
	PolicyLoadBased  = "load-based"
	PolicyRoundRobin = "round-robin"
)

// AssignmentRule maps a track/category/subcategory combination to a reviewer
// pool and selection policy. Empty category/subcategory act as wildcards.
// Rules are admin-configured and read-only to the review core.
type AssignmentRule struct {
	RuleID        int        `gorm:"primaryKey;column:rule_id" json:"rule_id"`
	Track         string     `gorm:"column:track" json:"track"`
	Category      *string    `gorm:"column:category" json:"category,omitempty"`
	Subcategory   *string    `gorm:"column:subcategory" json:"subcategory,omitempty"`
	Policy        string     `gorm:"column:policy" json:"policy"`
	ReviewerCount int        `gorm:"column:reviewer_count" json:"reviewer_count"`
	IsActive      bool       `gorm:"column:is_active" json:"is_active"`
	CreateAt      time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt      time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt      *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Pool rows ordered by pool_order; the order is the tie-break for
	// load-based selection and the rotation order for round-robin.
	Pool []AssignmentRuleReviewer `gorm:"foreignKey:RuleID" json:"pool,omitempty"`
}

// AssignmentRuleReviewer is one candidate-pool membership row.
type AssignmentRuleReviewer struct {
	ID         int `gorm:"primaryKey;column:id" json:"id"`
	RuleID     int `gorm:"column:rule_id;uniqueIndex:uniq_rule_reviewer" json:"rule_id"`
	ReviewerID int `gorm:"column:reviewer_id;uniqueIndex:uniq_rule_reviewer" json:"reviewer_id"`
	PoolOrder  int `gorm:"column:pool_order" json:"pool_order"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

// PoolReviewerIDs returns the candidate pool in stable pool order.
func (r *AssignmentRule) PoolReviewerIDs() []int {
	ids := make([]int, 0, len(r.Pool))
	for _, m := range r.Pool {
		ids = append(ids, m.ReviewerID)
	}
	return ids
}

// TableName overrides
func (AssignmentRule) TableName() string {
	return "assignment_rules"
}

func (AssignmentRuleReviewer) TableName() string {
	return "assignment_rule_reviewers"
}
