package models

import (
	"time"

	"gorm.io/datatypes"
)

// Review recommendations.
const (
	RecommendationAccept = "accept"
	RecommendationReject = "reject"
)

// Review is one reviewer's verdict on one abstract. Track/category fields are
// denormalized from the abstract at creation time. The unique index on
// (abstract_id, reviewer_id) backs the one-review-per-reviewer rule against
// concurrent submissions.
type Review struct {
	ReviewID       int                                  `gorm:"primaryKey;column:review_id" json:"review_id"`
	AbstractID     int                                  `gorm:"column:abstract_id;uniqueIndex:uniq_review_reviewer" json:"abstract_id"`
	AbstractCode   string                               `gorm:"column:abstract_code" json:"abstract_code"`
	ReviewerID     int                                  `gorm:"column:reviewer_id;uniqueIndex:uniq_review_reviewer" json:"reviewer_id"`
	Track          string                               `gorm:"column:track" json:"track"`
	Category       *string                              `gorm:"column:category" json:"category,omitempty"`
	Subcategory    *string                              `gorm:"column:subcategory" json:"subcategory,omitempty"`
	Scores         datatypes.JSONType[map[string]float64] `gorm:"column:scores" json:"scores"`
	Comments       *string                              `gorm:"column:comments" json:"comments,omitempty"`
	Recommendation string                               `gorm:"column:recommendation" json:"recommendation"`
	ReviewedAt     time.Time                            `gorm:"column:reviewed_at" json:"reviewed_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

// TotalScore sums the per-criterion scores.
func (r *Review) TotalScore() float64 {
	var total float64
	for _, v := range r.Scores.Data() {
		total += v
	}
	return total
}

// TableName specifies the table name for Review.
func (Review) TableName() string {
	return "reviews"
}
