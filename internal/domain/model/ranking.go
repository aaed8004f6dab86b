package model

// RankingEntry is one user's row in the step leaderboard.
type RankingEntry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Steps        int    `json:"steps"`
	Position     int    `json:"position"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// CloneRankings returns a copy of entries so callers cannot mutate stored state.
func CloneRankings(entries []RankingEntry) []RankingEntry {
	if entries == nil {
		return []RankingEntry{}
	}
	out := make([]RankingEntry, len(entries))
	copy(out, entries)
	return out
}
