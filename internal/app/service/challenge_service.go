package service

import (
	"context"
	"errors"
	"trailquest/internal/common"
	"trailquest/internal/domain/model"
	"trailquest/internal/domain/repository"
	"trailquest/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ChallengeService is the challenge directory: admin CRUD plus the public
// catalog. The progression engine only ever reads from it.
type ChallengeService struct {
	challengeRepo repository.ChallengeRepository
	groupRepo     repository.GroupRepository
	log           *logger.Logger
}

func NewChallengeService(challengeRepo repository.ChallengeRepository, groupRepo repository.GroupRepository, log *logger.Logger) *ChallengeService {
	return &ChallengeService{challengeRepo: challengeRepo, groupRepo: groupRepo, log: log}
}

type CreateChallengeRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Points      int     `json:"points"`
	GroupID     *string `json:"group_id,omitempty"` // nil makes the challenge global
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, creatorID string, req CreateChallengeRequest) (*model.Challenge, error) {
	if req.Title == "" {
		return nil, common.Errorf("title is required: %w", common.ErrValidation)
	}
	if req.Points <= 0 {
		return nil, common.Errorf("points must be positive: %w", common.ErrValidation)
	}
	if req.GroupID != nil {
		if _, err := s.groupRepo.FindByID(ctx, *req.GroupID); err != nil {
			return nil, common.Errorf("scope group not found: %w", common.ErrBadRequest)
		}
	}

	challenge := &model.Challenge{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		Description: req.Description,
		Points:      req.Points,
		GroupID:     req.GroupID,
		IsActive:    true,
		CreatedByID: &creatorID,
	}
	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		return nil, err
	}

	s.log.Info("challenge created", "challenge_id", challenge.ID, "slug", challenge.Slug, "points", challenge.Points)
	return challenge, nil
}

type UpdateChallengeRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Points      *int    `json:"points,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (s *ChallengeService) UpdateChallenge(ctx context.Context, id string, req UpdateChallengeRequest) (*model.Challenge, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, common.Errorf("title cannot be empty: %w", common.ErrValidation)
		}
		challenge.Title = *req.Title
		challenge.Slug = slug.Make(*req.Title)
	}
	if req.Description != nil {
		challenge.Description = *req.Description
	}
	if req.Points != nil {
		if *req.Points <= 0 {
			return nil, common.Errorf("points must be positive: %w", common.ErrValidation)
		}
		challenge.Points = *req.Points
	}
	if req.IsActive != nil {
		challenge.IsActive = *req.IsActive
	}

	if err := s.challengeRepo.Update(ctx, challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

// GetChallenge resolves a challenge by slug first, then by id, so catalog
// URLs stay readable while API clients can keep using ids.
func (s *ChallengeService) GetChallenge(ctx context.Context, ref string) (*model.Challenge, error) {
	challenge, err := s.challengeRepo.FindBySlug(ctx, ref)
	if err == nil {
		return challenge, nil
	}
	if !errors.Is(err, common.ErrChallengeNotFound) {
		return nil, err
	}
	return s.challengeRepo.FindByID(ctx, ref)
}

// ListChallenges returns the catalog visible to a group; nil groupID is the
// unscoped admin view.
func (s *ChallengeService) ListChallenges(ctx context.Context, groupID *string, onlyActive bool, page, pageSize int) ([]model.Challenge, int, error) {
	offset := (page - 1) * pageSize
	return s.challengeRepo.List(ctx, groupID, onlyActive, pageSize, offset)
}
