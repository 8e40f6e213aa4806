package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grid-nexus/nexus-api/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	slugRegex  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	urlRegex   = regexp.MustCompile(`^https?://\S+$`)
)

// Validator checks seed records. It remembers emails, slugs and ids seen
// so far so duplicates and dangling references inside one file are caught.
type Validator struct {
	userEmailCache   map[string]bool
	articleSlugCache map[string]bool
	userIDCache      map[string]bool
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		userEmailCache:   make(map[string]bool),
		articleSlugCache: make(map[string]bool),
		userIDCache:      make(map[string]bool),
	}
}

// SetUserIDCache sets the cache of existing user IDs for FK validation
func (v *Validator) SetUserIDCache(ids []string) {
	for _, id := range ids {
		v.userIDCache[id] = true
	}
}

// AddUserEmail adds an email to the uniqueness cache
func (v *Validator) AddUserEmail(email string) {
	v.userEmailCache[strings.ToLower(email)] = true
}

// AddArticleSlug adds a slug to the uniqueness cache
func (v *Validator) AddArticleSlug(slug string) {
	v.articleSlugCache[slug] = true
}

// AddUserID adds a user ID to the cache for FK validation
func (v *Validator) AddUserID(id string) {
	v.userIDCache[id] = true
}

// ValidateUser validates a user seed record
func (v *Validator) ValidateUser(user *models.UserCSV, lineNum int) []models.ValidationError {
	var errs []models.ValidationError
	add := func(field, msg string, value interface{}) {
		errs = append(errs, models.ValidationError{Line: lineNum, Field: field, Message: msg, Value: value})
	}

	if user.ID == "" {
		add("id", "id is required", nil)
	} else if !isValidUUID(user.ID) {
		add("id", "invalid UUID format", user.ID)
	}

	if user.Email == "" {
		add("email", "email is required", nil)
	} else if !emailRegex.MatchString(user.Email) {
		add("email", "invalid email format", user.Email)
	} else if v.userEmailCache[strings.ToLower(user.Email)] {
		add("email", "duplicate email", user.Email)
	}

	if strings.TrimSpace(user.Name) == "" {
		add("name", "name is required", nil)
	}

	if user.AvatarURL != "" && !urlRegex.MatchString(user.AvatarURL) {
		add("avatar_url", "avatar_url must be an http(s) URL", user.AvatarURL)
	}

	if user.Role == "" {
		add("role", "role is required", nil)
	} else if !models.ValidRoles[user.Role] {
		add("role", "invalid role, must be one of: admin, moderator, member", user.Role)
	}

	flags := []struct{ field, value string }{
		{"active", user.Active},
		{"verified", user.Verified},
		{"expert", user.Expert},
	}
	for _, f := range flags {
		if f.value != "" && f.value != "true" && f.value != "false" {
			add(f.field, f.field+" must be 'true' or 'false'", f.value)
		}
	}

	if user.CreatedAt == "" {
		add("created_at", "created_at is required", nil)
	} else if _, err := time.Parse(time.RFC3339, user.CreatedAt); err != nil {
		add("created_at", "invalid ISO 8601 date format", user.CreatedAt)
	}

	return errs
}

// ValidateArticle validates an article seed record
func (v *Validator) ValidateArticle(article *models.ArticleNDJSON, lineNum int) []models.ValidationError {
	var errs []models.ValidationError
	add := func(field, msg string, value interface{}) {
		errs = append(errs, models.ValidationError{Line: lineNum, Field: field, Message: msg, Value: value})
	}

	if article.ID == "" {
		add("id", "id is required", nil)
	} else if !isValidUUID(article.ID) {
		add("id", "invalid UUID format", article.ID)
	}

	if article.Slug == "" {
		add("slug", "slug is required", nil)
	} else if !slugRegex.MatchString(article.Slug) {
		add("slug", "slug must be kebab-case (lowercase letters, numbers, hyphens)", article.Slug)
	} else if v.articleSlugCache[article.Slug] {
		add("slug", "duplicate slug", article.Slug)
	}

	if article.Title == "" {
		add("title", "title is required", nil)
	}

	if article.Body == "" {
		add("body", "body is required", nil)
	}

	if article.AuthorID == "" {
		add("author_id", "author_id is required", nil)
	} else if !isValidUUID(article.AuthorID) {
		add("author_id", "invalid UUID format", article.AuthorID)
	} else if len(v.userIDCache) > 0 && !v.userIDCache[article.AuthorID] {
		add("author_id", "referenced user does not exist", article.AuthorID)
	}

	if article.Category == "" {
		add("category", "category is required", nil)
	} else if !models.ValidCategories[article.Category] {
		add("category", "invalid category, must be one of: technology, cybersecurity, gaming", article.Category)
	}

	if article.Status != "" && !models.ValidStatuses[article.Status] {
		add("status", "invalid status, must be one of: draft, published", article.Status)
	}

	if article.Status == "draft" && article.PublishedAt != "" {
		add("published_at", "draft articles must not have published_at", nil)
	}

	if article.PublishedAt != "" {
		if _, err := time.Parse(time.RFC3339, article.PublishedAt); err != nil {
			add("published_at", "invalid ISO 8601 date format", article.PublishedAt)
		}
	}

	return errs
}

// CommentBody trims content and checks it is non-empty and within maxWords.
// A maxWords of zero or less falls back to models.MaxCommentWords.
func CommentBody(content string, maxWords int) (string, error) {
	if maxWords <= 0 {
		maxWords = models.MaxCommentWords
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", fmt.Errorf("content is required")
	}

	if words := len(strings.Fields(trimmed)); words > maxWords {
		return "", fmt.Errorf("content exceeds maximum of %d words (has %d)", maxWords, words)
	}

	return trimmed, nil
}

// isValidUUID checks if a string is a valid UUID
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
