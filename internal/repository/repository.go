package repository

import (
	"context"
	"errors"

	"github.com/grid-nexus/nexus-api/internal/database"
	"github.com/grid-nexus/nexus-api/internal/models"
)

// ErrVersionConflict is returned by CommentStore.Save when the collection
// changed since it was loaded
var ErrVersionConflict = errors.New("comment collection was modified concurrently")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Upsert(ctx context.Context, user *models.User) error
	BatchInsert(ctx context.Context, users []*models.User) (int, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	GetAllIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	BatchInsert(ctx context.Context, articles []*models.Article) (int, error)
	Exists(ctx context.Context, id string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	GetAllIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// CommentStore reads and writes an article's comments as one collection.
// Load returns an empty collection at version 0 for an article without comments.
// Save writes the whole collection back and bumps its Version, or returns
// ErrVersionConflict when another writer saved first.
type CommentStore interface {
	Load(ctx context.Context, articleID string) (*models.CommentCollection, error)
	Save(ctx context.Context, coll *models.CommentCollection) error
	Count(ctx context.Context) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User    UserRepository
	Article ArticleRepository
	Comment CommentStore
}

// New creates all postgres repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepo(db),
		Article: NewArticleRepo(db),
		Comment: NewCommentStore(db),
	}
}

// NewMongo creates all repositories backed by MongoDB
func NewMongo(m *database.Mongo) *Repositories {
	return &Repositories{
		User:    NewMongoUserRepo(m),
		Article: NewMongoArticleRepo(m),
		Comment: NewMongoCommentStore(m),
	}
}

// NewMemory creates all repositories in process memory
func NewMemory() *Repositories {
	return &Repositories{
		User:    NewMemoryUserRepo(),
		Article: NewMemoryArticleRepo(),
		Comment: NewMemoryCommentStore(),
	}
}
