package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"conference-management-api/models"
)

// In-memory store implementations backing the service tests.

type memoryAbstractStore struct {
	mu        sync.Mutex
	nextID    int
	abstracts map[int]*models.Abstract
	reviewers map[int][]int
}

func newMemoryAbstractStore() *memoryAbstractStore {
	return &memoryAbstractStore{
		abstracts: make(map[int]*models.Abstract),
		reviewers: make(map[int][]int),
	}
}

func (s *memoryAbstractStore) Create(_ context.Context, abstract *models.Abstract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	abstract.AbstractID = s.nextID
	abstract.AbstractCode = fmt.Sprintf("REG%d-ABS-%d", abstract.RegistrationID, abstract.AbstractID)
	stored := *abstract
	s.abstracts[abstract.AbstractID] = &stored
	return nil
}

func (s *memoryAbstractStore) ByID(_ context.Context, abstractID int) (*models.Abstract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.abstracts[abstractID]
	if !ok {
		return nil, fmt.Errorf("%w: abstract %d", ErrNotFound, abstractID)
	}
	out := *stored
	out.Reviewers = nil
	for _, reviewerID := range s.reviewers[abstractID] {
		out.Reviewers = append(out.Reviewers, models.AbstractReviewer{
			AbstractID: abstractID,
			ReviewerID: reviewerID,
		})
	}
	return &out, nil
}

func (s *memoryAbstractStore) List(_ context.Context, filter AbstractFilter) ([]models.Abstract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Abstract
	for id := 1; id <= s.nextID; id++ {
		stored, ok := s.abstracts[id]
		if !ok {
			continue
		}
		if filter.Track != "" && stored.Track != filter.Track {
			continue
		}
		if filter.Status != "" && stored.Status != filter.Status {
			continue
		}
		if filter.RegistrationID > 0 && stored.RegistrationID != filter.RegistrationID {
			continue
		}
		out = append(out, *stored)
	}
	return out, nil
}

func (s *memoryAbstractStore) AddReviewers(_ context.Context, abstractID int, reviewerIDs []int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := make(map[int]bool)
	for _, id := range s.reviewers[abstractID] {
		existing[id] = true
	}
	added := 0
	for _, id := range reviewerIDs {
		if existing[id] {
			continue
		}
		existing[id] = true
		s.reviewers[abstractID] = append(s.reviewers[abstractID], id)
		added++
	}
	return added, nil
}

func (s *memoryAbstractStore) RemoveReviewers(_ context.Context, abstractID int, reviewerIDs []int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[int]bool)
	for _, id := range reviewerIDs {
		drop[id] = true
	}
	var kept []int
	removed := 0
	for _, id := range s.reviewers[abstractID] {
		if drop[id] {
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.reviewers[abstractID] = kept
	return removed, nil
}

func (s *memoryAbstractStore) ReviewerIDs(_ context.Context, abstractID int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.reviewers[abstractID]...), nil
}

func (s *memoryAbstractStore) SetStatus(_ context.Context, abstractID int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.abstracts[abstractID]
	if !ok {
		return fmt.Errorf("%w: abstract %d", ErrNotFound, abstractID)
	}
	stored.Status = status
	return nil
}

func (s *memoryAbstractStore) Decide(_ context.Context, abstractID int, status string, decisionAt time.Time, averageScore *float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.abstracts[abstractID]
	if !ok {
		return false, fmt.Errorf("%w: abstract %d", ErrNotFound, abstractID)
	}
	if stored.IsTerminal() {
		return false, nil
	}
	stored.Status = status
	stored.DecisionAt = &decisionAt
	stored.AverageScore = averageScore
	return true, nil
}

func (s *memoryAbstractStore) SetApprovedFor(_ context.Context, abstractID int, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.abstracts[abstractID]
	if !ok {
		return fmt.Errorf("%w: abstract %d", ErrNotFound, abstractID)
	}
	stored.ApprovedFor = &category
	return nil
}

func (s *memoryAbstractStore) OpenAssignmentCounts(_ context.Context, reviewerIDs []int) (map[int]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[int]bool)
	for _, id := range reviewerIDs {
		wanted[id] = true
	}
	loads := make(map[int]int)
	for abstractID, assigned := range s.reviewers {
		stored, ok := s.abstracts[abstractID]
		if !ok || stored.IsTerminal() {
			continue
		}
		for _, reviewerID := range assigned {
			if wanted[reviewerID] {
				loads[reviewerID]++
			}
		}
	}
	return loads, nil
}

func (s *memoryAbstractStore) Unassigned(_ context.Context) ([]models.Abstract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Abstract
	for id := 1; id <= s.nextID; id++ {
		stored, ok := s.abstracts[id]
		if !ok {
			continue
		}
		if stored.Status == models.AbstractStatusSubmitted && len(s.reviewers[id]) == 0 {
			out = append(out, *stored)
		}
	}
	return out, nil
}

type reviewKey struct {
	abstractID int
	reviewerID int
}

type memoryReviewStore struct {
	mu      sync.Mutex
	nextID  int
	order   []reviewKey
	reviews map[reviewKey]*models.Review
}

func newMemoryReviewStore() *memoryReviewStore {
	return &memoryReviewStore{reviews: make(map[reviewKey]*models.Review)}
}

func (s *memoryReviewStore) Create(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reviewKey{review.AbstractID, review.ReviewerID}
	if _, exists := s.reviews[key]; exists {
		// Mirrors the unique-index rejection of the real store.
		return fmt.Errorf("%w: reviewer %d, abstract %s", ErrDuplicateReview, review.ReviewerID, review.AbstractCode)
	}
	s.nextID++
	review.ReviewID = s.nextID
	stored := *review
	s.reviews[key] = &stored
	s.order = append(s.order, key)
	return nil
}

func (s *memoryReviewStore) Update(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reviewKey{review.AbstractID, review.ReviewerID}
	stored := *review
	s.reviews[key] = &stored
	return nil
}

func (s *memoryReviewStore) Find(_ context.Context, abstractID, reviewerID int) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.reviews[reviewKey{abstractID, reviewerID}]
	if !ok {
		return nil, nil
	}
	out := *stored
	return &out, nil
}

func (s *memoryReviewStore) ByAbstract(_ context.Context, abstractID int) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Review
	for _, key := range s.order {
		if key.abstractID != abstractID {
			continue
		}
		if stored, ok := s.reviews[key]; ok {
			out = append(out, *stored)
		}
	}
	return out, nil
}

func (s *memoryReviewStore) CountByAbstract(ctx context.Context, abstractID int) (int, error) {
	reviews, err := s.ByAbstract(ctx, abstractID)
	if err != nil {
		return 0, err
	}
	return len(reviews), nil
}

type memoryRuleStore struct {
	rules []models.AssignmentRule
}

func (s *memoryRuleStore) Active(context.Context) ([]models.AssignmentRule, error) {
	return s.rules, nil
}

type memoryDirectory struct {
	reviewerIDs []int
	contacts    map[int][2]string
}

func (s *memoryDirectory) ActiveReviewerIDs(context.Context) ([]int, error) {
	return append([]int(nil), s.reviewerIDs...), nil
}

func (s *memoryDirectory) Contact(_ context.Context, userID int) (string, string, error) {
	contact, ok := s.contacts[userID]
	if !ok {
		return "", "", fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return contact[0], contact[1], nil
}

type memoryConfigStore struct {
	mu  sync.Mutex
	cfg *models.ReviewerConfig
}

func (s *memoryConfigStore) Load(context.Context) (*models.ReviewerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		return nil, nil
	}
	out := *s.cfg
	return &out, nil
}

func (s *memoryConfigStore) Save(_ context.Context, cfg *models.ReviewerConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *cfg
	s.cfg = &stored
	return nil
}

type memoryPendingStore struct {
	mu      sync.Mutex
	nextID  int
	entries []models.PendingEmail
}

func (s *memoryPendingStore) Append(_ context.Context, entry *models.PendingEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry.PendingEmailID = s.nextID
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *memoryPendingStore) Snapshot(context.Context) ([]models.PendingEmail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PendingEmail(nil), s.entries...), nil
}

func (s *memoryPendingStore) DeleteIDs(_ context.Context, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[int]bool)
	for _, id := range ids {
		drop[id] = true
	}
	var kept []models.PendingEmail
	for _, entry := range s.entries {
		if !drop[entry.PendingEmailID] {
			kept = append(kept, entry)
		}
	}
	s.entries = kept
	return nil
}

// testEnv wires the full service graph over the in-memory stores.
type testEnv struct {
	abstracts   *memoryAbstractStore
	reviews     *memoryReviewStore
	rules       *memoryRuleStore
	directory   *memoryDirectory
	configStore *memoryConfigStore
	pending     *memoryPendingStore
	cursors     *MemoryCursorStore

	configSvc    *ReviewerConfigService
	notification *NotificationService
	consensus    *ConsensusService
	selector     *SelectorService
	abstractSvc  *AbstractService
	reviewSvc    *ReviewService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		abstracts:   newMemoryAbstractStore(),
		reviews:     newMemoryReviewStore(),
		rules:       &memoryRuleStore{},
		directory:   &memoryDirectory{contacts: make(map[int][2]string)},
		configStore: &memoryConfigStore{},
		pending:     &memoryPendingStore{},
		cursors:     NewMemoryCursorStore(),
	}
	env.configSvc = NewReviewerConfigService(env.configStore)
	env.notification = NewNotificationService(env.pending, env.configSvc, env.directory, "https://conf.example.org/dashboard")
	env.consensus = NewConsensusService(env.abstracts, env.reviews, env.configSvc, env.notification)
	env.selector = NewSelectorService(env.abstracts, env.cursors)
	env.abstractSvc = NewAbstractService(env.abstracts, NewRuleResolver(env.rules), env.selector, env.directory)
	env.reviewSvc = NewReviewService(env.abstracts, env.reviews, env.configSvc, env.consensus)
	return env
}

// setConfig stores the configuration and drops the service cache.
func (env *testEnv) setConfig(t *testing.T, cfg *models.ReviewerConfig) {
	t.Helper()
	if err := env.configStore.Save(context.Background(), cfg); err != nil {
		t.Fatalf("failed to store config: %v", err)
	}
	env.configSvc.Invalidate()
}

type sentMail struct {
	to      []string
	subject string
	body    string
}

type mailRecorder struct {
	mu       sync.Mutex
	sent     []sentMail
	failWith error
	onSend   func()
}

func (r *mailRecorder) send(to []string, subject, body string) error {
	r.mu.Lock()
	onSend := r.onSend
	failWith := r.failWith
	r.mu.Unlock()

	if onSend != nil {
		onSend()
	}
	if failWith != nil {
		return failWith
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

// captureMail swaps the SMTP send for the duration of a test.
func captureMail(t *testing.T) *mailRecorder {
	t.Helper()
	rec := &mailRecorder{}
	orig := sendMailFunc
	sendMailFunc = rec.send
	t.Cleanup(func() { sendMailFunc = orig })
	return rec
}
