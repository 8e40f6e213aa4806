package service

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/grid-nexus/nexus-api/internal/config"
	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/grid-nexus/nexus-api/internal/repository"
	"github.com/grid-nexus/nexus-api/internal/thread"
)

// CommentService defines the comment reads and mutations
type CommentService interface {
	Thread(ctx context.Context, articleID string, mode models.SortMode) (*thread.Thread, error)
	Roots(ctx context.Context, articleID string, mode models.SortMode) ([]*models.Comment, error)
	Replies(ctx context.Context, articleID, commentID string, mode models.SortMode) ([]*models.Comment, error)
	Get(ctx context.Context, articleID, commentID string) (*models.Comment, error)
	Stats(ctx context.Context, articleID string) (map[string]*models.UserCommentStats, error)

	Post(ctx context.Context, actor *models.Actor, articleID string, req *models.PostCommentRequest) (*models.Comment, error)
	Edit(ctx context.Context, actor *models.Actor, articleID, commentID, content string) (*models.Comment, error)
	Vote(ctx context.Context, actor *models.Actor, articleID, commentID string, dir models.VoteDirection) (*models.Comment, error)
	React(ctx context.Context, actor *models.Actor, articleID, commentID string, t models.ReactionType) (*models.Comment, error)
	Report(ctx context.Context, actor *models.Actor, articleID, commentID string) (*models.Comment, error)
	Delete(ctx context.Context, actor *models.Actor, articleID, commentID string) (*models.Comment, error)
	Moderate(ctx context.Context, actor *models.Actor, articleID, commentID string) (*models.Comment, error)
}

// IdentityService resolves callers into actors
type IdentityService interface {
	Resolve(ctx context.Context, userID string) (*models.Actor, error)
}

// ImportService defines the seed import operations
type ImportService interface {
	ImportUsers(ctx context.Context, r io.Reader) (*models.ImportResult, error)
	ImportArticles(ctx context.Context, r io.Reader) (*models.ImportResult, error)
}

// ExportService defines the comment export operations
type ExportService interface {
	PrepareComments(ctx context.Context, articleID, format string) (*CommentExport, error)
	ExportComments(ctx context.Context, w io.Writer, articleID, format string) (int, error)
}

// Services holds all service interfaces
type Services struct {
	Comments CommentService
	Identity IdentityService
	Import   ImportService
	Export   ExportService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, opts CommentOptions, log zerolog.Logger) *Services {
	if opts.MaxWords == 0 {
		opts.MaxWords = cfg.Comments.MaxWords
	}
	if opts.ConflictRetries == 0 {
		opts.ConflictRetries = cfg.Comments.ConflictRetries
	}

	return &Services{
		Comments: newCommentService(repos.Comment, repos.Article, opts, log),
		Identity: newIdentityService(repos.User, log),
		Import:   newImportService(repos, cfg.Import.BatchSize, log),
		Export:   newExportService(repos.Comment, log),
	}
}
