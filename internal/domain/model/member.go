package model

import (
	"time"
)

const (
	RoleMember   = "member"
	RoleAnimator = "animator"
	RoleAdmin    = "admin"
)

type Member struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	GroupID        string    `json:"group_id"`
	SectionID      *string   `json:"section_id,omitempty"`
	Points         int       `json:"points"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CanAttemptChallenges reports whether this member participates in the
// progression (animators and admins review, they do not compete).
func (m *Member) CanAttemptChallenges() bool {
	return m.Role == RoleMember
}

// CanReview reports whether this member may validate or reject submissions.
func (m *Member) CanReview() bool {
	return m.Role == RoleAnimator || m.Role == RoleAdmin
}
