package model

import (
	"time"
)

type Challenge struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Points      int       `json:"points"` // Always > 0, awarded once per validated completion
	GroupID     *string   `json:"group_id,omitempty"` // nil means the challenge is global
	IsActive    bool      `json:"is_active"`
	CreatedByID *string   `json:"created_by_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsScopedTo reports whether the challenge is available to members of the
// given group. Global challenges (no group scope) are available to everyone.
func (c *Challenge) IsScopedTo(groupID string) bool {
	return c.GroupID == nil || *c.GroupID == groupID
}
