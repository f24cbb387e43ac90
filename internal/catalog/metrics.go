package catalog

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SessionMetrics summarizes the similarity scores sampled during the
// current session's add operations. The quantiles describe how close
// incoming sightings were to existing items: a high median indicates a
// session dominated by re-sightings of the same objects.
type SessionMetrics struct {
	Samples   int     `json:"samples"`
	MeanScore float64 `json:"mean_score"`
	P50Score  float64 `json:"p50_score"`
	P90Score  float64 `json:"p90_score"`
}

// GetSessionMetrics computes the score quantiles for the session so far.
// Reset by ClearAllItems together with the rest of the session state.
func (c *Catalog) GetSessionMetrics() SessionMetrics {
	c.mu.Lock()
	scores := make([]float64, len(c.scores))
	copy(scores, c.scores)
	c.mu.Unlock()

	if len(scores) == 0 {
		return SessionMetrics{}
	}

	sort.Float64s(scores)
	return SessionMetrics{
		Samples:   len(scores),
		MeanScore: stat.Mean(scores, nil),
		P50Score:  stat.Quantile(0.5, stat.Empirical, scores, nil),
		P90Score:  stat.Quantile(0.9, stat.Empirical, scores, nil),
	}
}
