package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"trailquest/internal/common"
	"trailquest/internal/domain/model"
)

type GroupRepository interface {
	FindByID(ctx context.Context, id string) (*model.Group, error)
	ListSectionsByGroup(ctx context.Context, groupID string) ([]model.Section, error)
}

type pgGroupRepository struct {
	db *sql.DB
}

func NewPgGroupRepository(db *sql.DB) GroupRepository {
	return &pgGroupRepository{db: db}
}

func (r *pgGroupRepository) FindByID(ctx context.Context, id string) (*model.Group, error) {
	query := `SELECT id, name, slug, created_at, updated_at FROM groups WHERE id = $1`
	g := &model.Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.Name, &g.Slug, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgGroupRepository.FindByID: %w", err)
	}
	return g, nil
}

func (r *pgGroupRepository) ListSectionsByGroup(ctx context.Context, groupID string) ([]model.Section, error) {
	query := `SELECT id, group_id, name, created_at, updated_at FROM sections WHERE group_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("pgGroupRepository.ListSectionsByGroup: %w", err)
	}
	defer rows.Close()

	var sections []model.Section
	for rows.Next() {
		var s model.Section
		if err := rows.Scan(&s.ID, &s.GroupID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgGroupRepository.ListSectionsByGroup scan: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}
