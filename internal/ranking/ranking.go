// Package ranking scores comments and orders them by sort mode.
package ranking

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/grid-nexus/nexus-api/internal/models"
)

// z is the normal quantile for a 95% confidence interval
const z = 1.96

// Score computes the lower bound of the Wilson score confidence interval
// for the positive proportion, treating likes as positive trials and
// dislikes as negative ones. No votes scores exactly 0.
func Score(likes, dislikes int) float64 {
	if likes < 0 {
		likes = 0
	}
	if dislikes < 0 {
		dislikes = 0
	}
	n := float64(likes + dislikes)
	if n == 0 {
		return 0
	}
	phat := float64(likes) / n
	score := (phat + z*z/(2*n) - z*math.Sqrt((phat*(1-phat)+z*z/(4*n))/n)) / (1 + z*z/n)
	// all-dislike inputs cancel to zero up to rounding
	if score < 0 {
		return 0
	}
	return score
}

// Spread is the raw vote spread used by the controversial ordering
func Spread(likes, dislikes int) int {
	d := likes - dislikes
	if d < 0 {
		return -d
	}
	return d
}

// ParseSortMode maps a query value to a sort mode. Empty means best.
func ParseSortMode(s string) (models.SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(models.SortBest):
		return models.SortBest, nil
	case string(models.SortNewest):
		return models.SortNewest, nil
	case string(models.SortOldest):
		return models.SortOldest, nil
	case string(models.SortControversial), "spread":
		return models.SortControversial, nil
	}
	return "", fmt.Errorf("sort must be one of: best, newest, oldest, controversial")
}

// Sort orders comments in place. The sort is stable, so ties keep the
// collection's newest-first insertion order.
func Sort(comments []*models.Comment, mode models.SortMode) {
	switch mode {
	case models.SortNewest:
		sort.SliceStable(comments, func(i, j int) bool {
			return comments[i].CreatedAt.After(comments[j].CreatedAt)
		})
	case models.SortOldest:
		sort.SliceStable(comments, func(i, j int) bool {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		})
	case models.SortControversial:
		sort.SliceStable(comments, func(i, j int) bool {
			return Spread(comments[i].Likes, comments[i].Dislikes) > Spread(comments[j].Likes, comments[j].Dislikes)
		})
	default:
		// Scores are computed once per comment rather than once per comparison
		scores := make(map[*models.Comment]float64, len(comments))
		for _, c := range comments {
			scores[c] = Score(c.Likes, c.Dislikes)
		}
		sort.SliceStable(comments, func(i, j int) bool {
			return scores[comments[i]] > scores[comments[j]]
		})
	}
}
