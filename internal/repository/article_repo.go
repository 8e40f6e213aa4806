package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/grid-nexus/nexus-api/internal/database"
	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/lib/pq"
)

// articleRepo is the postgres implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// BatchInsert inserts multiple articles using PostgreSQL COPY. Tags are
// stored as a JSON array.
func (r *articleRepo) BatchInsert(ctx context.Context, articles []*models.Article) (int, error) {
	now := time.Now()
	rows := make([][]interface{}, len(articles))
	for i, article := range articles {
		tags := article.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return 0, fmt.Errorf("failed to encode tags of %s: %w", article.ID, err)
		}

		rows[i] = []interface{}{
			article.ID, article.Slug, article.Title, article.Body, article.AuthorID,
			article.Category, string(tagsJSON), article.Status, article.PublishedAt,
			article.CreatedAt, now,
		}
	}

	return copyIn(ctx, r.db, "articles", []string{
		"id", "slug", "title", "body", "author_id", "category", "tags", "status",
		"published_at", "created_at", "updated_at",
	}, rows)
}

// Exists checks if an article with the given ID exists
func (r *articleRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM articles WHERE id = $1)", id).Scan(&exists)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "22P02" {
		return false, nil
	}
	return exists, err
}

// SlugExists checks if an article with the given slug exists
func (r *articleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1)", slug).Scan(&exists)
	return exists, err
}

// GetAllIDs retrieves all article IDs (for FK validation cache)
func (r *articleRepo) GetAllIDs(ctx context.Context) ([]string, error) {
	return queryIDs(ctx, r.db, "SELECT id FROM articles")
}

// Count returns the total number of articles
func (r *articleRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}
