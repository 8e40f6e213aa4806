package models

import (
	"time"
)

// ReactionType is one of the closed set of emoji reactions
type ReactionType string

const (
	ReactionLike     ReactionType = "like"
	ReactionLove     ReactionType = "love"
	ReactionLaugh    ReactionType = "laugh"
	ReactionAngry    ReactionType = "angry"
	ReactionSad      ReactionType = "sad"
	ReactionSurprise ReactionType = "surprise"
)

// ValidReactions defines allowed reaction types
var ValidReactions = map[ReactionType]bool{
	ReactionLike:     true,
	ReactionLove:     true,
	ReactionLaugh:    true,
	ReactionAngry:    true,
	ReactionSad:      true,
	ReactionSurprise: true,
}

// VoteDirection is the direction of a vote on a comment
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Reaction is a single (user, type) reaction on a comment
type Reaction struct {
	UserID    string       `json:"user_id" bson:"user_id"`
	Type      ReactionType `json:"type" bson:"type"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
}

// Comment is a remark on an article or a reply to another comment.
// ParentID is empty for root comments.
type Comment struct {
	ID         string `json:"id" db:"id" bson:"id"`
	ArticleID  string `json:"article_id" db:"article_id" bson:"article_id"`
	ParentID   string `json:"parent_id,omitempty" db:"parent_id" bson:"parent_id,omitempty"`
	Seq        int64  `json:"seq" db:"seq" bson:"seq"`
	UserID     string `json:"user_id" db:"user_id" bson:"user_id"`
	UserName   string `json:"user_name" db:"user_name" bson:"user_name"`
	UserAvatar string `json:"user_avatar,omitempty" db:"user_avatar" bson:"user_avatar,omitempty"`
	Content    string `json:"content" db:"content" bson:"content"`

	Likes     int        `json:"likes" db:"likes" bson:"likes"`
	Dislikes  int        `json:"dislikes" db:"dislikes" bson:"dislikes"`
	Reactions []Reaction `json:"reactions" db:"reactions" bson:"reactions"`

	IsReported  bool `json:"is_reported" db:"is_reported" bson:"is_reported"`
	ReportCount int  `json:"report_count" db:"report_count" bson:"report_count"`
	IsModerated bool `json:"is_moderated" db:"is_moderated" bson:"is_moderated"`
	IsDeleted   bool `json:"is_deleted" db:"is_deleted" bson:"is_deleted"`
	IsEdited    bool `json:"is_edited" db:"is_edited" bson:"is_edited"`

	// Author snapshot frozen at post time
	UserReputation int  `json:"user_reputation" db:"user_reputation" bson:"user_reputation"`
	IsVerified     bool `json:"is_verified" db:"is_verified" bson:"is_verified"`
	IsExpert       bool `json:"is_expert" db:"is_expert" bson:"is_expert"`

	// Score is recomputed on every read and never persisted
	Score float64 `json:"score" db:"-" bson:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" bson:"updated_at"`
}

// IsRoot reports whether the comment is attached directly to the article
func (c *Comment) IsRoot() bool {
	return c.ParentID == ""
}

// HasReaction reports whether the user holds a reaction of the given type
func (c *Comment) HasReaction(userID string, t ReactionType) bool {
	for _, r := range c.Reactions {
		if r.UserID == userID && r.Type == t {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the comment
func (c *Comment) Clone() *Comment {
	cp := *c
	if c.Reactions != nil {
		cp.Reactions = make([]Reaction, len(c.Reactions))
		copy(cp.Reactions, c.Reactions)
	}
	return &cp
}

// CommentCollection is the whole set of comments for one article, the unit
// read and written by a CommentStore. Comments are kept newest-first.
type CommentCollection struct {
	ArticleID string     `json:"article_id" bson:"_id"`
	Version   int64      `json:"version" bson:"version"`
	Comments  []*Comment `json:"comments" bson:"comments"`

	// Epoch is assigned by the store when the collection is first saved and
	// never reused, so (Epoch, Version) names exactly one state. It is
	// empty until the first save.
	Epoch string `json:"epoch" bson:"epoch"`
}

// Find returns the comment with the given id, or nil
func (c *CommentCollection) Find(id string) *Comment {
	for _, cm := range c.Comments {
		if cm.ID == id {
			return cm
		}
	}
	return nil
}

// Prepend adds a comment at the head of the collection and assigns its sequence number
func (c *CommentCollection) Prepend(cm *Comment) {
	var next int64 = 1
	for _, existing := range c.Comments {
		if existing.Seq >= next {
			next = existing.Seq + 1
		}
	}
	cm.Seq = next
	c.Comments = append([]*Comment{cm}, c.Comments...)
}

// Clone returns a deep copy of the collection
func (c *CommentCollection) Clone() *CommentCollection {
	cp := &CommentCollection{
		ArticleID: c.ArticleID,
		Epoch:     c.Epoch,
		Version:   c.Version,
		Comments:  make([]*Comment, len(c.Comments)),
	}
	for i, cm := range c.Comments {
		cp.Comments[i] = cm.Clone()
	}
	return cp
}

// MaxCommentWords is the maximum allowed words in a comment body
const MaxCommentWords = 500

// PostCommentRequest is the body of a post or reply
type PostCommentRequest struct {
	Content  string `json:"content" validate:"required,max=10000"`
	ParentID string `json:"parent_id,omitempty" validate:"omitempty,uuid4"`
}

// EditCommentRequest is the body of an edit
type EditCommentRequest struct {
	Content string `json:"content" validate:"required,max=10000"`
}

// VoteRequest is the body of a vote
type VoteRequest struct {
	Direction VoteDirection `json:"direction" validate:"required,vote"`
}

// ReactRequest is the body of a reaction toggle
type ReactRequest struct {
	Type ReactionType `json:"type" validate:"required,reaction"`
}

// Redacted returns a copy safe to show readers. Deleted and moderated
// comments keep their metadata but lose their content.
func (c *Comment) Redacted() *Comment {
	cp := c.Clone()
	if cp.IsDeleted || cp.IsModerated {
		cp.Content = ""
	}
	return cp
}
