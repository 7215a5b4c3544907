package service

import (
	"context"
	"errors"
	"fmt"
	"trailquest/internal/common"
	"trailquest/internal/common/security"
	"trailquest/internal/domain/model"
	"trailquest/internal/domain/repository"

	"github.com/google/uuid"
)

type AuthService struct {
	memberRepo repository.MemberRepository
	groupRepo  repository.GroupRepository
}

func NewAuthService(memberRepo repository.MemberRepository, groupRepo repository.GroupRepository) *AuthService {
	return &AuthService{memberRepo: memberRepo, groupRepo: groupRepo}
}

type SignupRequest struct {
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	GroupID   string  `json:"group_id"`
	SectionID *string `json:"section_id,omitempty"`
}

type LoginRequest struct {
	LoginField string `json:"login_field"` // Can be username or email
	Password   string `json:"password"`
}

type AuthResponse struct {
	Member *model.Member `json:"member"`
	Token  string        `json:"token"`
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" || req.GroupID == "" {
		return nil, common.ErrBadRequest
	}

	// The group must exist; a member always belongs to one.
	if _, err := s.groupRepo.FindByID(ctx, req.GroupID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("group %s does not exist: %w", req.GroupID, common.ErrBadRequest)
		}
		return nil, err
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	member := &model.Member{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           model.RoleMember, // Default role
		GroupID:        req.GroupID,
		SectionID:      req.SectionID,
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		// Repo might return common.ErrConflict
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	token, err := security.GenerateToken(member.ID, member.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	member.HashedPassword = "" // Clear password before returning
	return &AuthResponse{Member: member, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.LoginField == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	var member *model.Member
	var err error

	// Try finding by email first, then by username
	member, err = s.memberRepo.FindByEmail(ctx, req.LoginField)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			member, err = s.memberRepo.FindByUsername(ctx, req.LoginField)
		}
	}

	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // Generic message for security
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, member.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	token, err := security.GenerateToken(member.ID, member.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	member.HashedPassword = ""
	return &AuthResponse{Member: member, Token: token}, nil
}
