package models

// Badge labels awarded by reputation thresholds
const (
	BadgeActiveMember   = "Active Member"
	BadgeTopContributor = "Top Contributor"
)

// UserCommentStats is the per-author aggregate derived from a comment collection.
// It is never persisted as authoritative data.
type UserCommentStats struct {
	UserID        string   `json:"user_id"`
	TotalComments int      `json:"total_comments"`
	LikesReceived int      `json:"likes_received"`
	Reputation    int      `json:"reputation"`
	Badges        []string `json:"badges"`
	IsVerified    bool     `json:"is_verified"`
	IsExpert      bool     `json:"is_expert"`
}

// Actor is the caller on whose behalf a mutation runs
type Actor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Moderator bool   `json:"moderator"`
	Verified  bool   `json:"verified"`
	Expert    bool   `json:"expert"`
}

// CanModerate reports whether the actor may act on another author's comment
func (a *Actor) CanModerate(authorID string) bool {
	return a != nil && (a.Moderator || a.ID == authorID)
}

// SortMode selects the ordering of roots and replies
type SortMode string

const (
	SortBest   SortMode = "best"
	SortNewest SortMode = "newest"
	SortOldest SortMode = "oldest"
	// SortControversial orders by raw vote spread |likes - dislikes|,
	// not by how evenly votes are split.
	SortControversial SortMode = "controversial"
)
