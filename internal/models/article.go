package models

import (
	"time"
)

// Article is a published piece that comments attach to
type Article struct {
	ID          string     `json:"id" db:"id" bson:"_id"`
	Slug        string     `json:"slug" db:"slug" bson:"slug"`
	Title       string     `json:"title" db:"title" bson:"title"`
	Body        string     `json:"body" db:"body" bson:"body"`
	AuthorID    string     `json:"author_id" db:"author_id" bson:"author_id"`
	Category    string     `json:"category" db:"category" bson:"category"`
	Tags        []string   `json:"tags" db:"-" bson:"tags"` // Stored as JSON string in postgres
	Status      string     `json:"status" db:"status" bson:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at" bson:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at" bson:"updated_at"`
}

// ValidStatuses defines allowed article statuses
var ValidStatuses = map[string]bool{
	"draft":     true,
	"published": true,
}

// ValidCategories defines the site sections
var ValidCategories = map[string]bool{
	"technology":    true,
	"cybersecurity": true,
	"gaming":        true,
}

// ArticleNDJSON represents an article record from NDJSON seed files
type ArticleNDJSON struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	AuthorID    string   `json:"author_id"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`
	PublishedAt string   `json:"published_at,omitempty"`
}
