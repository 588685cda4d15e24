package services

import (
	"context"
	"fmt"

	"conference-management-api/models"
)

// RuleResolver finds the assignment rule for an abstract's classification.
type RuleResolver struct {
	rules RuleStore
}

func NewRuleResolver(rules RuleStore) *RuleResolver {
	return &RuleResolver{rules: rules}
}

// FindRule matches most-specific-first: (track, category, subcategory), then
// (track, category), then track only. It returns nil when no rule matches;
// callers fall back to the pool of all active reviewers.
func (r *RuleResolver) FindRule(ctx context.Context, track string, category, subcategory *string) (*models.AssignmentRule, error) {
	rules, err := r.rules.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment rules: %w", err)
	}

	// pass 1: exact (track, category, subcategory)
	for i := range rules {
		rule := &rules[i]
		if rule.Track == track &&
			!isWildcard(rule.Category) && fieldEquals(rule.Category, category) &&
			!isWildcard(rule.Subcategory) && fieldEquals(rule.Subcategory, subcategory) {
			return rule, nil
		}
	}

	// pass 2: (track, category) with subcategory wildcard
	for i := range rules {
		rule := &rules[i]
		if rule.Track == track &&
			!isWildcard(rule.Category) && fieldEquals(rule.Category, category) &&
			isWildcard(rule.Subcategory) {
			return rule, nil
		}
	}

	// pass 3: track-only rule
	for i := range rules {
		rule := &rules[i]
		if rule.Track == track && isWildcard(rule.Category) && isWildcard(rule.Subcategory) {
			return rule, nil
		}
	}

	return nil, nil
}

func isWildcard(field *string) bool {
	return field == nil || *field == ""
}

func fieldEquals(ruleField, value *string) bool {
	return ruleField != nil && value != nil && *ruleField == *value
}
