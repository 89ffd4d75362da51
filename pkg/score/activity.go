package score

import "time"

// RepoSignals are the repository facts the activity score reads. A zero
// LastCommit means the date is unknown.
type RepoSignals struct {
	LastCommit       time.Time
	Contributors     int
	OpenPullRequests int
	Stars            int
}

// Activity scores maintenance activity from 0 to 100. Without repository
// signals the score is 0, whatever the cadence.
func Activity(s *RepoSignals, c Cadence, now time.Time) int {
	return DefaultThresholds.Activity(s, c, now)
}

// Activity scores s with the receiver's bands.
func (t Thresholds) Activity(s *RepoSignals, c Cadence, now time.Time) int {
	if s == nil {
		return 0
	}
	score := 0
	if !s.LastCommit.IsZero() {
		days := int(now.Sub(s.LastCommit).Hours() / 24)
		score += below(t.Recency, float64(days))
	}
	score += above(t.Contributors, float64(s.Contributors))
	score += above(t.PullRequests, float64(s.OpenPullRequests))
	score += above(t.ReleasesPerYear, c.PerYear)
	score += above(t.Stars, float64(s.Stars))
	return min(t.ActivityCap, score)
}
