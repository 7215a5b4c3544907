package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"trailquest/internal/common"
	"trailquest/internal/domain/model"
	"trailquest/internal/domain/repository"
	"trailquest/internal/platform/database"
	"trailquest/internal/platform/logger"

	"github.com/google/uuid"
)

// ProgressionService owns the submission state machine and the points ledger
// update. A submission moves Started -> PendingValidation -> Completed or
// Expired, never backwards; a validated completion awards the challenge's
// points exactly once.
type ProgressionService struct {
	submissionRepo repository.SubmissionRepository
	challengeRepo  repository.ChallengeRepository
	memberRepo     repository.MemberRepository
	ranking        *RankingService
	txRunner       database.TxRunner
	log            *logger.Logger
}

func NewProgressionService(
	subRepo repository.SubmissionRepository,
	challengeRepo repository.ChallengeRepository,
	memberRepo repository.MemberRepository,
	ranking *RankingService,
	txRunner database.TxRunner,
	log *logger.Logger,
) *ProgressionService {
	return &ProgressionService{
		submissionRepo: subRepo,
		challengeRepo:  challengeRepo,
		memberRepo:     memberRepo,
		ranking:        ranking,
		txRunner:       txRunner,
		log:            log,
	}
}

// blockingError maps the status of an existing active submission to the
// precondition error a new attempt must fail with.
func blockingError(status model.SubmissionStatus) error {
	switch status {
	case model.StatusStarted:
		return common.ErrAlreadyStarted
	case model.StatusPendingValidation:
		return common.ErrAlreadyPendingReview
	case model.StatusCompleted:
		return common.ErrAlreadyCompleted
	default:
		return common.ErrConflict
	}
}

// raceLoserError resolves the error for a create that lost the unique-index
// race: the concurrent winner may have landed in Started or PendingValidation,
// so the slot is re-read instead of assuming either.
func (s *ProgressionService) raceLoserError(ctx context.Context, challengeID, memberID string) error {
	current, err := s.submissionRepo.FindCurrentByChallengeAndMember(ctx, challengeID, memberID)
	if err != nil {
		return common.ErrConflict
	}
	return blockingError(current.Status)
}

// participant loads the member and checks they may attempt challenges.
func (s *ProgressionService) participant(ctx context.Context, memberID string) (*model.Member, error) {
	member, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotAMember
		}
		return nil, err
	}
	if !member.CanAttemptChallenges() {
		return nil, common.ErrNotAMember
	}
	return member, nil
}

// attemptableChallenge loads the challenge and checks the member's group may
// attempt it.
func (s *ProgressionService) attemptableChallenge(ctx context.Context, challengeID string, member *model.Member) (*model.Challenge, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if !challenge.IsActive || !challenge.IsScopedTo(member.GroupID) {
		return nil, common.Errorf("challenge %s is not open to this member: %w", challengeID, common.ErrForbidden)
	}
	return challenge, nil
}

// Start begins a challenge attempt for a member. An Expired prior attempt
// does not block; any other existing submission for the pair does.
func (s *ProgressionService) Start(ctx context.Context, challengeID, memberID string) (*model.Submission, error) {
	member, err := s.participant(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if _, err := s.attemptableChallenge(ctx, challengeID, member); err != nil {
		return nil, err
	}

	existing, err := s.submissionRepo.FindCurrentByChallengeAndMember(ctx, challengeID, memberID)
	if err == nil {
		return nil, blockingError(existing.Status)
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	sub := &model.Submission{
		ID:          uuid.NewString(),
		ChallengeID: challengeID,
		MemberID:    memberID,
		Status:      model.StatusStarted,
		StartedAt:   time.Now().UTC(),
	}
	if err := s.submissionRepo.Create(ctx, nil, sub); err != nil {
		// A concurrent create for the same pair loses the race on the unique
		// index. Report the state the winner actually left behind.
		if errors.Is(err, common.ErrConflict) {
			return nil, s.raceLoserError(ctx, challengeID, memberID)
		}
		return nil, err
	}

	s.log.Info("challenge started", "submission_id", sub.ID, "challenge_id", challengeID, "member_id", memberID)
	return sub, nil
}

// Submit attaches the member's justification and puts the attempt up for
// review. Without a prior Start it creates the submission directly in
// PendingValidation, with startedAt == submittedAt.
func (s *ProgressionService) Submit(ctx context.Context, challengeID, memberID, comment string, proofImageURL *string) (*model.Submission, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, common.ErrCommentRequired
	}

	member, err := s.participant(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if _, err := s.attemptableChallenge(ctx, challengeID, member); err != nil {
		return nil, err
	}

	existing, err := s.submissionRepo.FindCurrentByChallengeAndMember(ctx, challengeID, memberID)
	switch {
	case err == nil && existing.Status == model.StatusStarted:
		ok, err := s.submissionRepo.TransitionToPending(ctx, existing.ID, comment, proofImageURL)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Lost a race; report against whatever state won.
			current, err := s.submissionRepo.FindByID(ctx, existing.ID)
			if err != nil {
				return nil, err
			}
			return nil, blockingError(current.Status)
		}
		updated, err := s.submissionRepo.FindByID(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		s.log.Info("submission sent for review", "submission_id", updated.ID, "challenge_id", challengeID, "member_id", memberID)
		return updated, nil

	case err == nil:
		return nil, blockingError(existing.Status)

	case errors.Is(err, common.ErrNotFound):
		now := time.Now().UTC()
		sub := &model.Submission{
			ID:            uuid.NewString(),
			ChallengeID:   challengeID,
			MemberID:      memberID,
			Status:        model.StatusPendingValidation,
			StartedAt:     now,
			SubmittedAt:   &now,
			MemberComment: &comment,
			ProofImageURL: proofImageURL,
		}
		if err := s.submissionRepo.Create(ctx, nil, sub); err != nil {
			if errors.Is(err, common.ErrConflict) {
				return nil, s.raceLoserError(ctx, challengeID, memberID)
			}
			return nil, err
		}
		s.log.Info("submission created for review", "submission_id", sub.ID, "challenge_id", challengeID, "member_id", memberID)
		return sub, nil

	default:
		return nil, err
	}
}

// reviewer loads the reviewer and checks their role.
func (s *ProgressionService) reviewer(ctx context.Context, reviewerID string) (*model.Member, error) {
	reviewer, err := s.memberRepo.FindByID(ctx, reviewerID)
	if err != nil {
		return nil, err
	}
	if !reviewer.CanReview() {
		return nil, common.Errorf("member %s may not review submissions: %w", reviewerID, common.ErrForbidden)
	}
	return reviewer, nil
}

// Validate approves a pending submission and awards the challenge's points.
// The status flip is conditional on PendingValidation and commits in the same
// transaction as the points award, so a submission can never be paid twice:
// the second of two concurrent validations affects zero rows and fails with
// ErrNotPending.
func (s *ProgressionService) Validate(ctx context.Context, submissionID, reviewerID string, comment *string) error {
	if _, err := s.reviewer(ctx, reviewerID); err != nil {
		return err
	}

	sub, err := s.submissionRepo.FindByID(ctx, submissionID)
	if err != nil {
		return err
	}
	if sub.Status != model.StatusPendingValidation {
		return common.ErrNotPending
	}

	// Read the point value before mutating the submission so a concurrent
	// challenge edit cannot slip between the flip and the award.
	challenge, err := s.challengeRepo.FindByID(ctx, sub.ChallengeID)
	if err != nil {
		return err
	}

	err = s.txRunner.RunTx(ctx, func(tx *sql.Tx) error {
		flipped, err := s.submissionRepo.CompletePending(ctx, tx, submissionID, reviewerID, comment)
		if err != nil {
			return err
		}
		if !flipped {
			return common.ErrNotPending
		}
		return s.memberRepo.AwardPoints(ctx, tx, sub.MemberID, challenge.Points)
	})
	if err != nil {
		return err
	}

	s.log.Info("submission validated",
		"submission_id", submissionID, "reviewer_id", reviewerID,
		"member_id", sub.MemberID, "points", challenge.Points)

	if member, err := s.memberRepo.FindByID(ctx, sub.MemberID); err == nil {
		s.ranking.InvalidateGroup(ctx, member.GroupID)
	}
	return nil
}

// Reject refuses a pending submission. No ledger effect; the member may
// attempt the challenge again with a fresh submission.
func (s *ProgressionService) Reject(ctx context.Context, submissionID, reviewerID string, comment *string) error {
	if _, err := s.reviewer(ctx, reviewerID); err != nil {
		return err
	}

	sub, err := s.submissionRepo.FindByID(ctx, submissionID)
	if err != nil {
		return err
	}
	if sub.Status != model.StatusPendingValidation {
		return common.ErrNotPending
	}

	flipped, err := s.submissionRepo.RejectPending(ctx, submissionID, reviewerID, comment)
	if err != nil {
		return err
	}
	if !flipped {
		return common.ErrNotPending
	}

	s.log.Info("submission rejected", "submission_id", submissionID, "reviewer_id", reviewerID)
	return nil
}

// GetSubmission returns the member's latest attempt at a challenge, or nil
// if they never attempted it.
func (s *ProgressionService) GetSubmission(ctx context.Context, challengeID, memberID string) (*model.Submission, error) {
	sub, err := s.submissionRepo.FindLatestByChallengeAndMember(ctx, challengeID, memberID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

func (s *ProgressionService) ListForMember(ctx context.Context, memberID string) ([]model.Submission, error) {
	return s.submissionRepo.ListByMember(ctx, memberID)
}

// ListPendingForGroup returns the review queue for a group's animators.
// includeGlobal toggles whether attempts at globally scoped challenges appear.
func (s *ProgressionService) ListPendingForGroup(ctx context.Context, groupID string, includeGlobal bool) ([]model.Submission, error) {
	return s.submissionRepo.ListPendingByGroup(ctx, groupID, includeGlobal)
}
