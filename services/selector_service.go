package services

import (
	"context"
	"fmt"
	"sort"

	"conference-management-api/models"
)

// DefaultReviewerCount applies when no rule matched the abstract and to rules
// configured without an explicit count.
const DefaultReviewerCount = 2

// SelectorService picks reviewers from a candidate pool according to the
// rule's policy.
type SelectorService struct {
	abstracts AbstractStore
	cursors   CursorStore
}

func NewSelectorService(abstracts AbstractStore, cursors CursorStore) *SelectorService {
	return &SelectorService{abstracts: abstracts, cursors: cursors}
}

// Select applies the policy of the given rule to the pool. A nil rule means
// "no rule matched": the pool is the caller-provided default and the policy
// falls back to load-based. An empty pool yields an empty selection, never an
// error; the abstract is then simply left unassigned.
func (s *SelectorService) Select(ctx context.Context, rule *models.AssignmentRule, pool []int, track string, desired int) ([]int, error) {
	if len(pool) == 0 || desired <= 0 {
		return nil, nil
	}
	if desired > len(pool) {
		desired = len(pool)
	}

	policy := models.PolicyLoadBased
	if rule != nil && rule.Policy != "" {
		policy = rule.Policy
	}

	switch policy {
	case models.PolicyRoundRobin:
		start, err := s.cursors.Advance(ctx, track, desired)
		if err != nil {
			return nil, err
		}
		return RoundRobinWindow(pool, start, desired), nil
	case models.PolicyLoadBased:
		loads, err := s.abstracts.OpenAssignmentCounts(ctx, pool)
		if err != nil {
			return nil, fmt.Errorf("failed to compute reviewer loads: %w", err)
		}
		return LeastLoaded(pool, loads, desired), nil
	default:
		return nil, fmt.Errorf("%w: unknown assignment policy %q", ErrValidation, policy)
	}
}

// LeastLoaded picks the desired number of reviewers with the lowest open
// assignment count, ties broken by the pool's stable order.
func LeastLoaded(pool []int, loads map[int]int, desired int) []int {
	if desired > len(pool) {
		desired = len(pool)
	}

	type candidate struct {
		reviewerID int
		load       int
		poolIndex  int
	}
	candidates := make([]candidate, len(pool))
	for i, id := range pool {
		candidates[i] = candidate{reviewerID: id, load: loads[id], poolIndex: i}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].load != candidates[b].load {
			return candidates[a].load < candidates[b].load
		}
		return candidates[a].poolIndex < candidates[b].poolIndex
	})

	selected := make([]int, desired)
	for i := 0; i < desired; i++ {
		selected[i] = candidates[i].reviewerID
	}
	return selected
}

// RoundRobinWindow takes desired consecutive reviewers starting at
// start mod len(pool), wrapping around. desired never exceeds the pool size,
// so no reviewer repeats within one selection.
func RoundRobinWindow(pool []int, start, desired int) []int {
	if len(pool) == 0 {
		return nil
	}
	if desired > len(pool) {
		desired = len(pool)
	}
	selected := make([]int, desired)
	for i := 0; i < desired; i++ {
		selected[i] = pool[(start+i)%len(pool)]
	}
	return selected
}

// NaiveRoundRobin distributes reviewers for the bulk assign-unassigned pass:
// plain index-modulo rotation with no persisted cursor. Kept separate from
// the configured round-robin policy on purpose; the two behave differently
// and must stay independently adjustable.
func NaiveRoundRobin(pool []int, index, desired int) []int {
	if len(pool) == 0 {
		return nil
	}
	return RoundRobinWindow(pool, index*desired, desired)
}
