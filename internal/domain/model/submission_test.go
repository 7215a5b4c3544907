package model

import "testing"

func TestSubmissionStatusTransitions(t *testing.T) {
	cases := []struct {
		from SubmissionStatus
		to   SubmissionStatus
		want bool
	}{
		{StatusStarted, StatusPendingValidation, true},
		{StatusPendingValidation, StatusCompleted, true},
		{StatusPendingValidation, StatusExpired, true},

		// No transition is ever reversed or re-entered.
		{StatusStarted, StatusCompleted, false},
		{StatusStarted, StatusExpired, false},
		{StatusStarted, StatusStarted, false},
		{StatusPendingValidation, StatusStarted, false},
		{StatusCompleted, StatusStarted, false},
		{StatusCompleted, StatusPendingValidation, false},
		{StatusCompleted, StatusExpired, false},
		{StatusExpired, StatusStarted, false},
		{StatusExpired, StatusPendingValidation, false},
		{StatusExpired, StatusCompleted, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestSubmissionStatusPredicates(t *testing.T) {
	if !StatusCompleted.IsTerminal() || !StatusExpired.IsTerminal() {
		t.Fatal("Completed and Expired must be terminal")
	}
	if StatusStarted.IsTerminal() || StatusPendingValidation.IsTerminal() {
		t.Fatal("Started and PendingValidation must not be terminal")
	}
	if !StatusStarted.IsActive() || !StatusPendingValidation.IsActive() {
		t.Fatal("Started and PendingValidation must be active")
	}
	if StatusCompleted.IsActive() || StatusExpired.IsActive() {
		t.Fatal("terminal statuses must not be active")
	}
	// Completed still occupies the pair slot; only Expired frees it.
	if !StatusCompleted.Blocks() || StatusExpired.Blocks() {
		t.Fatal("only Expired frees the (challenge, member) pair")
	}
}
