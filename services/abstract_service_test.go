package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"conference-management-api/models"
)

func TestSubmitAssignsReviewersAndMovesToUnderReview(t *testing.T) {
	env := newTestEnv(t)
	env.directory.reviewerIDs = []int{11, 12, 13}
	ctx := context.Background()

	abstract, err := env.abstractSvc.Submit(ctx, SubmitAbstractInput{
		RegistrationID: 123,
		UserID:         1,
		Track:          "oral-presentation",
		Title:          "Deep-sea microbiome survey",
		Authors:        []string{"A. Researcher"},
	})
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}

	if abstract.AbstractCode == "" {
		t.Fatalf("expected a generated abstract code")
	}
	if abstract.Status != models.AbstractStatusUnderReview {
		t.Fatalf("expected under-review, got %s", abstract.Status)
	}
	if len(abstract.Reviewers) != DefaultReviewerCount {
		t.Fatalf("expected %d reviewers, got %d", DefaultReviewerCount, len(abstract.Reviewers))
	}
}

func TestSubmitUsesMatchingRulePool(t *testing.T) {
	env := newTestEnv(t)
	env.directory.reviewerIDs = []int{91, 92} // must not be used
	env.rules.rules = []models.AssignmentRule{{
		RuleID:        1,
		Track:         "oral-presentation",
		Policy:        models.PolicyRoundRobin,
		ReviewerCount: 2,
		IsActive:      true,
		Pool: []models.AssignmentRuleReviewer{
			{ReviewerID: 21, PoolOrder: 0},
			{ReviewerID: 22, PoolOrder: 1},
			{ReviewerID: 23, PoolOrder: 2},
		},
	}}
	ctx := context.Background()

	abstract, err := env.abstractSvc.Submit(ctx, SubmitAbstractInput{
		RegistrationID: 1,
		UserID:         1,
		Track:          "oral-presentation",
		Title:          "First",
	})
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if got := abstract.ReviewerIDs(); !reflect.DeepEqual(got, []int{21, 22}) {
		t.Fatalf("expected rule pool window [21 22], got %v", got)
	}

	abstract, err = env.abstractSvc.Submit(ctx, SubmitAbstractInput{
		RegistrationID: 2,
		UserID:         1,
		Track:          "oral-presentation",
		Title:          "Second",
	})
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if got := abstract.ReviewerIDs(); !reflect.DeepEqual(got, []int{23, 21}) {
		t.Fatalf("expected wrapped window [23 21], got %v", got)
	}
}

func TestSubmitWithEmptyPoolLeavesAbstractSubmitted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	abstract, err := env.abstractSvc.Submit(ctx, SubmitAbstractInput{
		RegistrationID: 5,
		UserID:         1,
		Track:          "poster",
		Title:          "Unassignable",
	})
	if err != nil {
		t.Fatalf("an empty pool must not fail the submission: %v", err)
	}
	if abstract.Status != models.AbstractStatusSubmitted {
		t.Fatalf("expected submitted, got %s", abstract.Status)
	}
	if len(abstract.Reviewers) != 0 {
		t.Fatalf("expected no reviewers, got %v", abstract.Reviewers)
	}
}

func TestSubmitValidatesRequiredFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.abstractSvc.Submit(ctx, SubmitAbstractInput{RegistrationID: 1, UserID: 1, Title: "No track"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing track, got %v", err)
	}

	_, err = env.abstractSvc.Submit(ctx, SubmitAbstractInput{RegistrationID: 1, UserID: 1, Track: "oral"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing title, got %v", err)
	}
}

func TestAddReviewersKeepsSetSemantics(t *testing.T) {
	env := newTestEnv(t)
	env.directory.reviewerIDs = []int{1, 2}
	ctx := context.Background()

	abstract, err := env.abstractSvc.Submit(ctx, SubmitAbstractInput{
		RegistrationID: 1, UserID: 1, Track: "oral", Title: "T",
	})
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}

	// 2 is already assigned; only 3 is new.
	added, err := env.abstractSvc.AddReviewers(ctx, abstract.AbstractID, []int{2, 3})
	if err != nil {
		t.Fatalf("add reviewers returned error: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 added, got %d", added)
	}

	ids, _ := env.abstracts.ReviewerIDs(ctx, abstract.AbstractID)
	seen := make(map[int]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate reviewer %d in assigned set %v", id, ids)
		}
		seen[id] = true
	}
}

func TestReviewerMutationsDoNotTriggerConsensus(t *testing.T) {
	env := newTestEnv(t)
	env.directory.reviewerIDs = []int{1, 2}
	env.directory.contacts[1] = [2]string{"Author", "author@example.org"}
	ctx := context.Background()

	abstract, err := env.abstractSvc.Submit(ctx, SubmitAbstractInput{
		RegistrationID: 1, UserID: 1, Track: "oral", Title: "T",
	})
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}

	// One review in, then shrink the assignment to that single reviewer. A
	// consensus pass would now find quorum; the primitive must not run one.
	if _, err := env.reviewSvc.SubmitReview(ctx, abstract.AbstractID, 1, ReviewInput{
		Recommendation: models.RecommendationAccept,
	}); err != nil {
		t.Fatalf("review returned error: %v", err)
	}

	if _, err := env.abstractSvc.RemoveReviewers(ctx, abstract.AbstractID, []int{2}); err != nil {
		t.Fatalf("remove reviewers returned error: %v", err)
	}

	current, _ := env.abstracts.ByID(ctx, abstract.AbstractID)
	if current.Status != models.AbstractStatusUnderReview {
		t.Fatalf("reviewer mutation must not decide the abstract, got %s", current.Status)
	}
}

func TestAssignUnassignedUsesNaiveRotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Submitted while the pool was empty.
	for i := 0; i < 3; i++ {
		if _, err := env.abstractSvc.Submit(ctx, SubmitAbstractInput{
			RegistrationID: i + 1, UserID: 1, Track: "oral", Title: "T",
		}); err != nil {
			t.Fatalf("submit returned error: %v", err)
		}
	}

	env.directory.reviewerIDs = []int{1, 2, 3}
	assigned, err := env.abstractSvc.AssignUnassigned(ctx, 1)
	if err != nil {
		t.Fatalf("assign unassigned returned error: %v", err)
	}
	if assigned != 3 {
		t.Fatalf("expected 3 abstracts assigned, got %d", assigned)
	}

	for i := 1; i <= 3; i++ {
		current, _ := env.abstracts.ByID(ctx, i)
		if current.Status != models.AbstractStatusUnderReview {
			t.Fatalf("abstract %d should be under review, got %s", i, current.Status)
		}
		want := []int{((i - 1) % 3) + 1}
		if got := current.ReviewerIDs(); !reflect.DeepEqual(got, want) {
			t.Fatalf("abstract %d: expected rotation %v, got %v", i, want, got)
		}
	}
}

func TestSetApprovedForRequiresAcceptedStatus(t *testing.T) {
	env := newTestEnv(t)
	env.directory.reviewerIDs = []int{1, 2}
	ctx := context.Background()

	abstract, err := env.abstractSvc.Submit(ctx, SubmitAbstractInput{
		RegistrationID: 1, UserID: 1, Track: "oral", Title: "T",
	})
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}

	err = env.abstractSvc.SetApprovedFor(ctx, abstract.AbstractID, "oral-presentation")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for non-accepted abstract, got %v", err)
	}
}
