package model

import "time"

type SubmissionStatus string

const (
	StatusStarted           SubmissionStatus = "Started"
	StatusPendingValidation SubmissionStatus = "PendingValidation"
	StatusCompleted         SubmissionStatus = "Completed"
	StatusExpired           SubmissionStatus = "Expired" // Rejected by a reviewer
)

// Submission records one member's attempt at one challenge. At most one
// non-Expired submission exists per (challenge, member) pair; an Expired
// attempt is kept for audit and a fresh attempt creates a new record.
type Submission struct {
	ID              string           `json:"id"`
	ChallengeID     string           `json:"challenge_id"`
	MemberID        string           `json:"member_id"`
	Status          SubmissionStatus `json:"status"`
	StartedAt       time.Time        `json:"started_at"` // Set once, never overwritten
	SubmittedAt     *time.Time       `json:"submitted_at,omitempty"`
	MemberComment   *string          `json:"member_comment,omitempty"`
	ProofImageURL   *string          `json:"proof_image_url,omitempty"`
	ValidatedByID   *string          `json:"validated_by_id,omitempty"`
	ValidatedAt     *time.Time       `json:"validated_at,omitempty"`
	ReviewerComment *string          `json:"reviewer_comment,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	ChallengeTitle *string `json:"challenge_title,omitempty"` // For display
	MemberUsername *string `json:"member_username,omitempty"` // For display
}

// CanTransitionTo is the single authority on legal status moves. Statuses only
// ever progress forward; Completed and Expired are terminal.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	switch s {
	case StatusStarted:
		return next == StatusPendingValidation
	case StatusPendingValidation:
		return next == StatusCompleted || next == StatusExpired
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s SubmissionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// IsActive reports whether the submission is still in flight.
func (s SubmissionStatus) IsActive() bool {
	return s == StatusStarted || s == StatusPendingValidation
}

// Blocks reports whether the submission occupies the (challenge, member)
// slot. Only an Expired submission frees the pair for a new attempt.
func (s SubmissionStatus) Blocks() bool {
	return s != StatusExpired
}
