package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"trailquest/internal/common"
	"trailquest/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

// SubmissionRepository persists challenge attempts. The schema carries a
// partial unique index on (challenge_id, member_id) WHERE status <> 'Expired',
// so two concurrent creates for the same pair cannot both land.
type SubmissionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	FindByID(ctx context.Context, id string) (*model.Submission, error)

	// FindCurrentByChallengeAndMember returns the submission occupying the
	// (challenge, member) slot: Started, PendingValidation or Completed.
	// Expired attempts do not block a retry and are not returned here.
	FindCurrentByChallengeAndMember(ctx context.Context, challengeID, memberID string) (*model.Submission, error)

	// FindLatestByChallengeAndMember returns the most recent attempt
	// regardless of status, for display.
	FindLatestByChallengeAndMember(ctx context.Context, challengeID, memberID string) (*model.Submission, error)

	// TransitionToPending flips Started -> PendingValidation. The write is
	// conditional on the prior status; false means the submission was no
	// longer in Started when the update ran.
	TransitionToPending(ctx context.Context, submissionID, comment string, proofImageURL *string) (bool, error)

	// CompletePending flips PendingValidation -> Completed, stamping the
	// reviewer. Conditional on the prior status so that two concurrent
	// validations of one submission cannot both succeed; the points award
	// rides the same transaction.
	CompletePending(ctx context.Context, tx *sql.Tx, submissionID, reviewerID string, reviewerComment *string) (bool, error)

	// RejectPending flips PendingValidation -> Expired. Same conditional
	// semantics as CompletePending, no ledger effect.
	RejectPending(ctx context.Context, submissionID, reviewerID string, reviewerComment *string) (bool, error)

	ListByMember(ctx context.Context, memberID string) ([]model.Submission, error)
	ListPendingByGroup(ctx context.Context, groupID string, includeGlobal bool) ([]model.Submission, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

const submissionColumns = `id, challenge_id, member_id, status, started_at, submitted_at,
	member_comment, proof_image_url, validated_by, validated_at, reviewer_comment,
	created_at, updated_at`

func scanSubmission(row interface{ Scan(...interface{}) error }) (*model.Submission, error) {
	s := &model.Submission{}
	err := row.Scan(
		&s.ID, &s.ChallengeID, &s.MemberID, &s.Status, &s.StartedAt, &s.SubmittedAt,
		&s.MemberComment, &s.ProofImageURL, &s.ValidatedByID, &s.ValidatedAt, &s.ReviewerComment,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *pgSubmissionRepository) Create(ctx context.Context, tx *sql.Tx, s *model.Submission) error {
	query := `INSERT INTO submissions
	            (id, challenge_id, member_id, status, started_at, submitted_at, member_comment, proof_image_url)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, s.ID, s.ChallengeID, s.MemberID, s.Status, s.StartedAt, s.SubmittedAt, s.MemberComment, s.ProofImageURL)
	} else {
		_, err = r.db.ExecContext(ctx, query, s.ID, s.ChallengeID, s.MemberID, s.Status, s.StartedAt, s.SubmittedAt, s.MemberComment, s.ProofImageURL)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Partial unique index on active pair
			return fmt.Errorf("an active submission already exists for this challenge: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgSubmissionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.FindByID: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) FindCurrentByChallengeAndMember(ctx context.Context, challengeID, memberID string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions
	          WHERE challenge_id = $1 AND member_id = $2 AND status <> $3`
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, challengeID, memberID, model.StatusExpired))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.FindCurrentByChallengeAndMember: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) FindLatestByChallengeAndMember(ctx context.Context, challengeID, memberID string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions
	          WHERE challenge_id = $1 AND member_id = $2
	          ORDER BY created_at DESC LIMIT 1`
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, challengeID, memberID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.FindLatestByChallengeAndMember: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) TransitionToPending(ctx context.Context, submissionID, comment string, proofImageURL *string) (bool, error) {
	query := `UPDATE submissions SET
	            status = $1, submitted_at = CURRENT_TIMESTAMP,
	            member_comment = $2, proof_image_url = $3, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, model.StatusPendingValidation, comment, proofImageURL, submissionID, model.StatusStarted)
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.TransitionToPending: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.TransitionToPending rows affected: %w", err)
	}
	return affected == 1, nil
}

func (r *pgSubmissionRepository) CompletePending(ctx context.Context, tx *sql.Tx, submissionID, reviewerID string, reviewerComment *string) (bool, error) {
	query := `UPDATE submissions SET
	            status = $1, validated_by = $2, validated_at = CURRENT_TIMESTAMP,
	            reviewer_comment = $3, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $4 AND status = $5`

	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, model.StatusCompleted, reviewerID, reviewerComment, submissionID, model.StatusPendingValidation)
	} else {
		res, err = r.db.ExecContext(ctx, query, model.StatusCompleted, reviewerID, reviewerComment, submissionID, model.StatusPendingValidation)
	}
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.CompletePending: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.CompletePending rows affected: %w", err)
	}
	return affected == 1, nil
}

func (r *pgSubmissionRepository) RejectPending(ctx context.Context, submissionID, reviewerID string, reviewerComment *string) (bool, error) {
	query := `UPDATE submissions SET
	            status = $1, validated_by = $2, validated_at = CURRENT_TIMESTAMP,
	            reviewer_comment = $3, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, model.StatusExpired, reviewerID, reviewerComment, submissionID, model.StatusPendingValidation)
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.RejectPending: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.RejectPending rows affected: %w", err)
	}
	return affected == 1, nil
}

func (r *pgSubmissionRepository) ListByMember(ctx context.Context, memberID string) ([]model.Submission, error) {
	query := `SELECT s.id, s.challenge_id, s.member_id, s.status, s.started_at, s.submitted_at,
	                 s.member_comment, s.proof_image_url, s.validated_by, s.validated_at, s.reviewer_comment,
	                 s.created_at, s.updated_at, c.title AS challenge_title
	          FROM submissions s
	          JOIN challenges c ON s.challenge_id = c.id
	          WHERE s.member_id = $1
	          ORDER BY s.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByMember: %w", err)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		s := model.Submission{}
		err := rows.Scan(
			&s.ID, &s.ChallengeID, &s.MemberID, &s.Status, &s.StartedAt, &s.SubmittedAt,
			&s.MemberComment, &s.ProofImageURL, &s.ValidatedByID, &s.ValidatedAt, &s.ReviewerComment,
			&s.CreatedAt, &s.UpdatedAt, &s.ChallengeTitle,
		)
		if err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListByMember scan: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *pgSubmissionRepository) ListPendingByGroup(ctx context.Context, groupID string, includeGlobal bool) ([]model.Submission, error) {
	query := `SELECT s.id, s.challenge_id, s.member_id, s.status, s.started_at, s.submitted_at,
	                 s.member_comment, s.proof_image_url, s.validated_by, s.validated_at, s.reviewer_comment,
	                 s.created_at, s.updated_at, c.title AS challenge_title, m.username AS member_username
	          FROM submissions s
	          JOIN members m ON s.member_id = m.id
	          JOIN challenges c ON s.challenge_id = c.id
	          WHERE s.status = $1 AND m.group_id = $2`
	if includeGlobal {
		query += ` AND (c.group_id = $2 OR c.group_id IS NULL)`
	} else {
		query += ` AND c.group_id = $2`
	}
	query += ` ORDER BY s.submitted_at ASC`

	rows, err := r.db.QueryContext(ctx, query, model.StatusPendingValidation, groupID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListPendingByGroup: %w", err)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		s := model.Submission{}
		err := rows.Scan(
			&s.ID, &s.ChallengeID, &s.MemberID, &s.Status, &s.StartedAt, &s.SubmittedAt,
			&s.MemberComment, &s.ProofImageURL, &s.ValidatedByID, &s.ValidatedAt, &s.ReviewerComment,
			&s.CreatedAt, &s.UpdatedAt, &s.ChallengeTitle, &s.MemberUsername,
		)
		if err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListPendingByGroup scan: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
