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

type MemberRepository interface {
	Create(ctx context.Context, member *model.Member) error
	FindByID(ctx context.Context, id string) (*model.Member, error)
	FindByEmail(ctx context.Context, email string) (*model.Member, error)
	FindByUsername(ctx context.Context, username string) (*model.Member, error)
	ListByGroup(ctx context.Context, groupID string) ([]model.Member, error)

	// AwardPoints is the only write path to a member's point balance. It is
	// always called inside the transaction that flips the submission status,
	// so the balance and the Completed status commit together.
	AwardPoints(ctx context.Context, tx *sql.Tx, memberID string, amount int) error
}

type pgMemberRepository struct {
	db *sql.DB
}

func NewPgMemberRepository(db *sql.DB) MemberRepository {
	return &pgMemberRepository{db: db}
}

const memberColumns = `id, username, email, hashed_password, role, group_id, section_id, points, created_at, updated_at`

func scanMember(row interface{ Scan(...interface{}) error }) (*model.Member, error) {
	m := &model.Member{}
	err := row.Scan(
		&m.ID, &m.Username, &m.Email, &m.HashedPassword, &m.Role,
		&m.GroupID, &m.SectionID, &m.Points, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *pgMemberRepository) Create(ctx context.Context, m *model.Member) error {
	query := `INSERT INTO members (id, username, email, hashed_password, role, group_id, section_id, points)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, 0)`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.Username, m.Email, m.HashedPassword, m.Role, m.GroupID, m.SectionID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("member with given username or email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgMemberRepository.Create: %w", err)
	}
	return nil
}

func (r *pgMemberRepository) FindByID(ctx context.Context, id string) (*model.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	m, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgMemberRepository.FindByID: %w", err)
	}
	return m, nil
}

func (r *pgMemberRepository) FindByEmail(ctx context.Context, email string) (*model.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE email = $1`
	m, err := scanMember(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgMemberRepository.FindByEmail: %w", err)
	}
	return m, nil
}

func (r *pgMemberRepository) FindByUsername(ctx context.Context, username string) (*model.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE username = $1`
	m, err := scanMember(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgMemberRepository.FindByUsername: %w", err)
	}
	return m, nil
}

func (r *pgMemberRepository) ListByGroup(ctx context.Context, groupID string) ([]model.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE group_id = $1 AND role = $2`
	rows, err := r.db.QueryContext(ctx, query, groupID, model.RoleMember)
	if err != nil {
		return nil, fmt.Errorf("pgMemberRepository.ListByGroup: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("pgMemberRepository.ListByGroup scan: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (r *pgMemberRepository) AwardPoints(ctx context.Context, tx *sql.Tx, memberID string, amount int) error {
	query := `UPDATE members SET points = points + $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, amount, memberID)
	} else {
		res, err = r.db.ExecContext(ctx, query, amount, memberID)
	}
	if err != nil {
		return fmt.Errorf("pgMemberRepository.AwardPoints: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgMemberRepository.AwardPoints rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
