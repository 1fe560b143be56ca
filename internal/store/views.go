package store

import (
	"math"
	"sort"

	"live-voting/internal/domain"
)

// SortResults returns a copy of the results ordered by vote count, highest
// first. Ties keep their server order.
func SortResults(rs domain.ResultSet) []domain.VoteResult {
	sorted := make([]domain.VoteResult, len(rs.Results))
	copy(sorted, rs.Results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].VoteCount > sorted[j].VoteCount
	})
	return sorted
}

// Winner is the first sorted result, or nil when there are none.
func Winner(sorted []domain.VoteResult) *domain.VoteResult {
	if len(sorted) == 0 {
		return nil
	}
	w := sorted[0]
	return &w
}

// Percentage is count's share of total in percent, rounded to one decimal.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

// WithPercentage annotates every result, in server order, with its share of
// the reported total.
func WithPercentage(rs domain.ResultSet) []domain.ResultWithPercentage {
	out := make([]domain.ResultWithPercentage, 0, len(rs.Results))
	for _, r := range rs.Results {
		out = append(out, domain.ResultWithPercentage{
			VoteResult: r,
			Percentage: Percentage(r.VoteCount, rs.TotalVotes),
		})
	}
	return out
}
