package service

import (
	"context"
	"database/sql"
	"sync"
	"time"
	"trailquest/internal/common"
	"trailquest/internal/domain/model"
	"trailquest/internal/platform/logger"

	"go.uber.org/zap"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// fakeTxRunner satisfies database.TxRunner; the fakes ignore the *sql.Tx.
type fakeTxRunner struct{}

func (fakeTxRunner) RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

type fakeMemberRepo struct {
	mu      sync.Mutex
	members map[string]*model.Member
}

func newFakeMemberRepo(members ...*model.Member) *fakeMemberRepo {
	r := &fakeMemberRepo{members: make(map[string]*model.Member)}
	for _, m := range members {
		r.members[m.ID] = m
	}
	return r
}

func (r *fakeMemberRepo) Create(ctx context.Context, m *model.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[m.ID]; ok {
		return common.ErrConflict
	}
	cp := *m
	r.members[m.ID] = &cp
	return nil
}

func (r *fakeMemberRepo) FindByID(ctx context.Context, id string) (*model.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMemberRepo) FindByEmail(ctx context.Context, email string) (*model.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.Email == email {
			cp := *m
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeMemberRepo) FindByUsername(ctx context.Context, username string) (*model.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.Username == username {
			cp := *m
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeMemberRepo) ListByGroup(ctx context.Context, groupID string) ([]model.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Member
	for _, m := range r.members {
		if m.GroupID == groupID && m.Role == model.RoleMember {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMemberRepo) AwardPoints(ctx context.Context, tx *sql.Tx, memberID string, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberID]
	if !ok {
		return common.ErrNotFound
	}
	m.Points += amount
	return nil
}

type fakeChallengeRepo struct {
	mu         sync.Mutex
	challenges map[string]*model.Challenge
}

func newFakeChallengeRepo(challenges ...*model.Challenge) *fakeChallengeRepo {
	r := &fakeChallengeRepo{challenges: make(map[string]*model.Challenge)}
	for _, c := range challenges {
		r.challenges[c.ID] = c
	}
	return r
}

func (r *fakeChallengeRepo) Create(ctx context.Context, c *model.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges[c.ID] = c
	return nil
}

func (r *fakeChallengeRepo) Update(ctx context.Context, c *model.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.challenges[c.ID]; !ok {
		return common.ErrNotFound
	}
	r.challenges[c.ID] = c
	return nil
}

func (r *fakeChallengeRepo) FindByID(ctx context.Context, id string) (*model.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok {
		return nil, common.ErrChallengeNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeChallengeRepo) FindBySlug(ctx context.Context, slug string) (*model.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.challenges {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, common.ErrChallengeNotFound
}

func (r *fakeChallengeRepo) List(ctx context.Context, groupID *string, onlyActive bool, limit, offset int) ([]model.Challenge, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Challenge
	for _, c := range r.challenges {
		if onlyActive && !c.IsActive {
			continue
		}
		if groupID != nil && !c.IsScopedTo(*groupID) {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

type fakeGroupRepo struct {
	groups   map[string]*model.Group
	sections []model.Section
}

func newFakeGroupRepo(groups []*model.Group, sections []model.Section) *fakeGroupRepo {
	r := &fakeGroupRepo{groups: make(map[string]*model.Group), sections: sections}
	for _, g := range groups {
		r.groups[g.ID] = g
	}
	return r
}

func (r *fakeGroupRepo) FindByID(ctx context.Context, id string) (*model.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return g, nil
}

func (r *fakeGroupRepo) ListSectionsByGroup(ctx context.Context, groupID string) ([]model.Section, error) {
	var out []model.Section
	for _, s := range r.sections {
		if s.GroupID == groupID {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeSubmissionRepo mirrors the conditional-write semantics of the pg
// implementation: flips only apply when the stored status still matches the
// expected prior status. Member and challenge fakes stand in for the joins
// the pg queries do.
type fakeSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[string]*model.Submission
	members     *fakeMemberRepo
	challenges  *fakeChallengeRepo
}

func newFakeSubmissionRepo(members *fakeMemberRepo, challenges *fakeChallengeRepo) *fakeSubmissionRepo {
	return &fakeSubmissionRepo{
		submissions: make(map[string]*model.Submission),
		members:     members,
		challenges:  challenges,
	}
}

func (r *fakeSubmissionRepo) Create(ctx context.Context, tx *sql.Tx, s *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.submissions {
		if existing.ChallengeID == s.ChallengeID && existing.MemberID == s.MemberID && existing.Status != model.StatusExpired {
			return common.ErrConflict
		}
	}
	cp := *s
	cp.CreatedAt = time.Now()
	r.submissions[s.ID] = &cp
	return nil
}

func (r *fakeSubmissionRepo) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubmissionRepo) FindCurrentByChallengeAndMember(ctx context.Context, challengeID, memberID string) (*model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.submissions {
		if s.ChallengeID == challengeID && s.MemberID == memberID && s.Status != model.StatusExpired {
			cp := *s
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeSubmissionRepo) FindLatestByChallengeAndMember(ctx context.Context, challengeID, memberID string) (*model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.Submission
	for _, s := range r.submissions {
		if s.ChallengeID != challengeID || s.MemberID != memberID {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, common.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeSubmissionRepo) TransitionToPending(ctx context.Context, submissionID, comment string, proofImageURL *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[submissionID]
	if !ok || s.Status != model.StatusStarted {
		return false, nil
	}
	now := time.Now()
	s.Status = model.StatusPendingValidation
	s.SubmittedAt = &now
	s.MemberComment = &comment
	s.ProofImageURL = proofImageURL
	return true, nil
}

func (r *fakeSubmissionRepo) CompletePending(ctx context.Context, tx *sql.Tx, submissionID, reviewerID string, reviewerComment *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[submissionID]
	if !ok || s.Status != model.StatusPendingValidation {
		return false, nil
	}
	now := time.Now()
	s.Status = model.StatusCompleted
	s.ValidatedByID = &reviewerID
	s.ValidatedAt = &now
	s.ReviewerComment = reviewerComment
	return true, nil
}

func (r *fakeSubmissionRepo) RejectPending(ctx context.Context, submissionID, reviewerID string, reviewerComment *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[submissionID]
	if !ok || s.Status != model.StatusPendingValidation {
		return false, nil
	}
	now := time.Now()
	s.Status = model.StatusExpired
	s.ValidatedByID = &reviewerID
	s.ValidatedAt = &now
	s.ReviewerComment = reviewerComment
	return true, nil
}

func (r *fakeSubmissionRepo) ListByMember(ctx context.Context, memberID string) ([]model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Submission
	for _, s := range r.submissions {
		if s.MemberID == memberID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) ListPendingByGroup(ctx context.Context, groupID string, includeGlobal bool) ([]model.Submission, error) {
	r.mu.Lock()
	pending := make([]*model.Submission, 0)
	for _, s := range r.submissions {
		if s.Status == model.StatusPendingValidation {
			pending = append(pending, s)
		}
	}
	r.mu.Unlock()

	var out []model.Submission
	for _, s := range pending {
		m, err := r.members.FindByID(ctx, s.MemberID)
		if err != nil || m.GroupID != groupID {
			continue
		}
		c, err := r.challenges.FindByID(ctx, s.ChallengeID)
		if err != nil {
			continue
		}
		if c.GroupID == nil {
			if !includeGlobal {
				continue
			}
		} else if *c.GroupID != groupID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}
