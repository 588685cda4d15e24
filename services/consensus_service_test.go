package services

import (
	"context"
	"testing"

	"conference-management-api/models"

	"gorm.io/datatypes"
)

func TestConsensusWaitsForFullQuorum(t *testing.T) {
	env := newTestEnv(t)
	captureMail(t)
	abstract := submitForReview(t, env, []int{1, 2})
	ctx := context.Background()

	if _, err := env.reviewSvc.SubmitReview(ctx, abstract.AbstractID, 1, ReviewInput{
		Recommendation: models.RecommendationAccept,
	}); err != nil {
		t.Fatalf("review returned error: %v", err)
	}

	current, _ := env.abstracts.ByID(ctx, abstract.AbstractID)
	if current.Status != models.AbstractStatusUnderReview {
		t.Fatalf("one of two reviews must not decide, got %s", current.Status)
	}
	if current.DecisionAt != nil {
		t.Fatalf("decision timestamp set before quorum")
	}
}

func TestConsensusMajorityAccepts(t *testing.T) {
	env := newTestEnv(t)
	rec := captureMail(t)
	abstract := submitForReview(t, env, []int{1, 2, 3})
	ctx := context.Background()

	for reviewerID, verdict := range map[int]string{
		1: models.RecommendationAccept,
		2: models.RecommendationAccept,
		3: models.RecommendationReject,
	} {
		if _, err := env.reviewSvc.SubmitReview(ctx, abstract.AbstractID, reviewerID, ReviewInput{
			Recommendation: verdict,
		}); err != nil {
			t.Fatalf("review by %d returned error: %v", reviewerID, err)
		}
	}

	current, _ := env.abstracts.ByID(ctx, abstract.AbstractID)
	if current.Status != models.AbstractStatusAccepted {
		t.Fatalf("expected accepted on 2-1 vote, got %s", current.Status)
	}
	if current.DecisionAt == nil {
		t.Fatalf("expected decision timestamp")
	}
	if len(rec.sent) != 1 {
		t.Fatalf("expected exactly one acceptance email, got %d", len(rec.sent))
	}
}

func TestConsensusTieRejects(t *testing.T) {
	env := newTestEnv(t)
	captureMail(t)
	abstract := submitForReview(t, env, []int{1, 2})
	ctx := context.Background()

	if _, err := env.reviewSvc.SubmitReview(ctx, abstract.AbstractID, 1, ReviewInput{
		Recommendation: models.RecommendationAccept,
	}); err != nil {
		t.Fatalf("review returned error: %v", err)
	}
	if _, err := env.reviewSvc.SubmitReview(ctx, abstract.AbstractID, 2, ReviewInput{
		Recommendation: models.RecommendationReject,
	}); err != nil {
		t.Fatalf("review returned error: %v", err)
	}

	current, _ := env.abstracts.ByID(ctx, abstract.AbstractID)
	if current.Status != models.AbstractStatusRejected {
		t.Fatalf("a 1-1 tie must reject, got %s", current.Status)
	}
}

func TestConsensusEvaluationIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	rec := captureMail(t)
	abstract := submitForReview(t, env, []int{1})
	ctx := context.Background()

	if _, err := env.reviewSvc.SubmitReview(ctx, abstract.AbstractID, 1, ReviewInput{
		Recommendation: models.RecommendationAccept,
	}); err != nil {
		t.Fatalf("review returned error: %v", err)
	}

	first, _ := env.abstracts.ByID(ctx, abstract.AbstractID)

	for i := 0; i < 3; i++ {
		status, err := env.consensus.Evaluate(ctx, abstract.AbstractID)
		if err != nil {
			t.Fatalf("re-evaluation %d returned error: %v", i, err)
		}
		if status != models.AbstractStatusAccepted {
			t.Fatalf("re-evaluation %d changed status to %s", i, status)
		}
	}

	current, _ := env.abstracts.ByID(ctx, abstract.AbstractID)
	if !current.DecisionAt.Equal(*first.DecisionAt) {
		t.Fatalf("re-evaluation moved the decision timestamp")
	}
	if len(rec.sent) != 1 {
		t.Fatalf("notification fired %d times, want 1", len(rec.sent))
	}
}

func TestConsensusComputesAverageScoreWithCriteria(t *testing.T) {
	env := newTestEnv(t)
	captureMail(t)
	cfg := DefaultReviewerConfig()
	cfg.ScoringCriteria = datatypes.NewJSONSlice([]models.ScoringCriterion{
		{Key: "originality", Label: "Originality", MaxScore: 10},
		{Key: "clarity", Label: "Clarity", MaxScore: 10},
	})
	env.setConfig(t, cfg)
	abstract := submitForReview(t, env, []int{1, 2})
	ctx := context.Background()

	if _, err := env.reviewSvc.SubmitReview(ctx, abstract.AbstractID, 1, ReviewInput{
		Recommendation: models.RecommendationAccept,
		Scores:         map[string]float64{"originality": 8, "clarity": 6},
	}); err != nil {
		t.Fatalf("review returned error: %v", err)
	}
	if _, err := env.reviewSvc.SubmitReview(ctx, abstract.AbstractID, 2, ReviewInput{
		Recommendation: models.RecommendationAccept,
		Scores:         map[string]float64{"originality": 10, "clarity": 8},
	}); err != nil {
		t.Fatalf("review returned error: %v", err)
	}

	current, _ := env.abstracts.ByID(ctx, abstract.AbstractID)
	if current.AverageScore == nil {
		t.Fatalf("expected an average score")
	}
	// (8+6 + 10+8) / 2 reviews
	if *current.AverageScore != 16 {
		t.Fatalf("expected average 16, got %g", *current.AverageScore)
	}
}

func TestConsensusDoesNotSetApprovedFor(t *testing.T) {
	env := newTestEnv(t)
	captureMail(t)
	abstract := submitForReview(t, env, []int{1})
	ctx := context.Background()

	if _, err := env.reviewSvc.SubmitReview(ctx, abstract.AbstractID, 1, ReviewInput{
		Recommendation: models.RecommendationAccept,
	}); err != nil {
		t.Fatalf("review returned error: %v", err)
	}

	current, _ := env.abstracts.ByID(ctx, abstract.AbstractID)
	if current.ApprovedFor != nil {
		t.Fatalf("approved-for must stay an administrative step, got %q", *current.ApprovedFor)
	}
}
