// Package reputation folds a comment collection into per-author statistics.
package reputation

import (
	"github.com/grid-nexus/nexus-api/internal/models"
)

// Badge thresholds. Both apply independently, so badges accumulate.
const (
	ActiveMemberThreshold   = 50
	TopContributorThreshold = 100
)

// Compute derives stats for every author in comments in a single pass
func Compute(comments []*models.Comment) map[string]*models.UserCommentStats {
	stats := make(map[string]*models.UserCommentStats)

	for _, c := range comments {
		s, ok := stats[c.UserID]
		if !ok {
			s = &models.UserCommentStats{UserID: c.UserID, Badges: []string{}}
			stats[c.UserID] = s
		}
		s.TotalComments++
		s.LikesReceived += c.Likes
		if c.IsVerified {
			s.IsVerified = true
		}
		if c.IsExpert {
			s.IsExpert = true
		}
	}

	for _, s := range stats {
		s.Reputation = s.LikesReceived*2 + s.TotalComments
		s.Badges = Badges(s.Reputation)
	}

	return stats
}

// Badges returns every badge earned at the given reputation
func Badges(reputation int) []string {
	badges := []string{}
	if reputation > ActiveMemberThreshold {
		badges = append(badges, models.BadgeActiveMember)
	}
	if reputation > TopContributorThreshold {
		badges = append(badges, models.BadgeTopContributor)
	}
	return badges
}

// Lookup returns the stats for userID, or zero stats for an author with no comments
func Lookup(stats map[string]*models.UserCommentStats, userID string) models.UserCommentStats {
	if s, ok := stats[userID]; ok && s != nil {
		return *s
	}
	return models.UserCommentStats{UserID: userID, Badges: []string{}}
}
