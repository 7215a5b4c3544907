package model

// RankedEntry is one row of the individual leaderboard. Entries are derived
// on demand from current point balances and never persisted.
type RankedEntry struct {
	Rank      int     `json:"rank"`
	MemberID  string  `json:"member_id"`
	Username  string  `json:"username"`
	SectionID *string `json:"section_id,omitempty"`
	Points    int     `json:"points"`
}

// SectionRankedEntry is one row of the section-vs-section leaderboard.
type SectionRankedEntry struct {
	Rank          int    `json:"rank"`
	SectionID     string `json:"section_id"`
	SectionName   string `json:"section_name"`
	TotalPoints   int    `json:"total_points"`
	MemberCount   int    `json:"member_count"`
	AveragePoints int    `json:"average_points"`
}
