package models

import (
	"time"

	"gorm.io/datatypes"
)

// Abstract workflow statuses. Accepted/rejected are terminal for the review
// core; final-submitted is set by the later final-submission stage.
const (
	AbstractStatusSubmitted      = "submitted"
	AbstractStatusUnderReview    = "under-review"
	AbstractStatusAccepted       = "accepted"
	AbstractStatusRejected       = "rejected"
	AbstractStatusFinalSubmitted = "final-submitted"
)

// Abstract represents a single conference abstract submission.
type Abstract struct {
	AbstractID     int                         `gorm:"primaryKey;column:abstract_id" json:"abstract_id"`
	AbstractCode   string                      `gorm:"column:abstract_code;unique" json:"abstract_code"`
	RegistrationID int                         `gorm:"column:registration_id" json:"registration_id"`
	UserID         int                         `gorm:"column:user_id" json:"user_id"`
	Track          string                      `gorm:"column:track" json:"track"`
	Category       *string                     `gorm:"column:category" json:"category,omitempty"`
	Subcategory    *string                     `gorm:"column:subcategory" json:"subcategory,omitempty"`
	Title          string                      `gorm:"column:title" json:"title"`
	Authors        datatypes.JSONSlice[string] `gorm:"column:authors" json:"authors"`
	Keywords       datatypes.JSONSlice[string] `gorm:"column:keywords" json:"keywords"`
	WordCount      int                         `gorm:"column:word_count" json:"word_count"`
	FilePath       *string                     `gorm:"column:file_path" json:"file_path,omitempty"`
	Status         string                      `gorm:"column:status" json:"status"`
	ApprovedFor    *string                     `gorm:"column:approved_for" json:"approved_for,omitempty"`
	AverageScore   *float64                    `gorm:"column:average_score" json:"average_score,omitempty"`
	DecisionAt     *time.Time                  `gorm:"column:decision_at" json:"decision_at,omitempty"`
	SubmittedAt    time.Time                   `gorm:"column:submitted_at" json:"submitted_at"`
	CreateAt       time.Time                   `gorm:"column:create_at" json:"create_at"`
	UpdateAt       time.Time                   `gorm:"column:update_at" json:"update_at"`
	DeleteAt       *time.Time                  `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	User      *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Reviewers []AbstractReviewer `gorm:"foreignKey:AbstractID" json:"reviewers,omitempty"`
}

// AbstractReviewer is one row of the assigned-reviewer set. The composite
// unique index keeps the set free of duplicate assignments.
type AbstractReviewer struct {
	ID         int       `gorm:"primaryKey;column:id" json:"id"`
	AbstractID int       `gorm:"column:abstract_id;uniqueIndex:uniq_abstract_reviewer" json:"abstract_id"`
	ReviewerID int       `gorm:"column:reviewer_id;uniqueIndex:uniq_abstract_reviewer" json:"reviewer_id"`
	AssignedAt time.Time `gorm:"column:assigned_at" json:"assigned_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

// IsTerminal reports whether the review core may no longer transition the
// abstract.
func (a *Abstract) IsTerminal() bool {
	switch a.Status {
	case AbstractStatusAccepted, AbstractStatusRejected, AbstractStatusFinalSubmitted:
		return true
	}
	return false
}

// ReviewerIDs flattens the preloaded reviewer rows.
func (a *Abstract) ReviewerIDs() []int {
	ids := make([]int, 0, len(a.Reviewers))
	for _, r := range a.Reviewers {
		ids = append(ids, r.ReviewerID)
	}
	return ids
}

// TableName overrides
func (Abstract) TableName() string {
	return "abstracts"
}

func (AbstractReviewer) TableName() string {
	return "abstract_reviewers"
}
