package sleep

import "time"

// Stats aggregates a set of closed sessions for the stats view, the
// dashboard feed, and the insights prompt.
type Stats struct {
	Nights     int           `json:"nights"`
	Rated      int           `json:"rated"`
	AvgQuality float64       `json:"avg_quality"`
	AvgSleep   time.Duration `json:"avg_sleep"`
	Longest    time.Duration `json:"longest"`
	Shortest   time.Duration `json:"shortest"`

	// ByQuality counts rated nights per score, index 0..5.
	ByQuality [QualityMax + 1]int `json:"by_quality"`
}

// Compute derives statistics from a session list. Open sessions are skipped:
// their duration is meaningless until they are stopped.
func Compute(sessions []*Session) Stats {
	var st Stats
	var qualitySum int
	var sleepSum time.Duration

	for _, s := range sessions {
		if s.Open() {
			continue
		}
		d := s.Duration()
		st.Nights++
		sleepSum += d
		if st.Longest < d {
			st.Longest = d
		}
		if st.Shortest == 0 || d < st.Shortest {
			st.Shortest = d
		}
		if s.Rated() {
			st.Rated++
			qualitySum += s.Quality
			if ValidQuality(s.Quality) {
				st.ByQuality[s.Quality]++
			}
		}
	}

	if st.Nights > 0 {
		st.AvgSleep = sleepSum / time.Duration(st.Nights)
	}
	if st.Rated > 0 {
		st.AvgQuality = float64(qualitySum) / float64(st.Rated)
	}
	return st
}
