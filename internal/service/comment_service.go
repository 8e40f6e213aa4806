package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grid-nexus/nexus-api/internal/cache"
	"github.com/grid-nexus/nexus-api/internal/filter"
	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/grid-nexus/nexus-api/internal/ranking"
	"github.com/grid-nexus/nexus-api/internal/repository"
	"github.com/grid-nexus/nexus-api/internal/reputation"
	"github.com/grid-nexus/nexus-api/internal/thread"
	"github.com/grid-nexus/nexus-api/internal/validation"
)

// conflictDelay is the base backoff between retries of a conflicting save
const conflictDelay = 5 * time.Millisecond

// CommentOptions tunes the comment service
type CommentOptions struct {
	MaxWords        int
	ConflictRetries uint
	Filter          *filter.Filter
	Cache           cache.StatsCache
	Now             func() time.Time
}

// commentService is the concrete implementation of CommentService
type commentService struct {
	store    repository.CommentStore
	articles repository.ArticleRepository
	cache    cache.StatsCache
	filter   *filter.Filter
	maxWords int
	attempts uint
	now      func() time.Time
	log      zerolog.Logger
}

func newCommentService(store repository.CommentStore, articles repository.ArticleRepository, opts CommentOptions, log zerolog.Logger) *commentService {
	s := &commentService{
		store:    store,
		articles: articles,
		cache:    opts.Cache,
		filter:   opts.Filter,
		maxWords: opts.MaxWords,
		attempts: opts.ConflictRetries + 1,
		now:      opts.Now,
		log:      log.With().Str("service", "comments").Logger(),
	}
	if s.cache == nil {
		s.cache = cache.NewNoop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Thread builds the reply tree of an article
func (s *commentService) Thread(ctx context.Context, articleID string, mode models.SortMode) (*thread.Thread, error) {
	coll, err := s.store.Load(ctx, articleID)
	if err != nil {
		return nil, err
	}
	t := thread.Build(coll.Comments, mode)
	if orphans := t.Orphans(); len(orphans) > 0 {
		s.log.Warn().Str("article_id", articleID).Int("orphans", len(orphans)).Msg("Comments with missing parents")
	}
	return t, nil
}

// Roots returns the ordered root comments of an article
func (s *commentService) Roots(ctx context.Context, articleID string, mode models.SortMode) ([]*models.Comment, error) {
	t, err := s.Thread(ctx, articleID, mode)
	if err != nil {
		return nil, err
	}
	return t.Roots(), nil
}

// Replies returns the ordered direct replies of a comment
func (s *commentService) Replies(ctx context.Context, articleID, commentID string, mode models.SortMode) ([]*models.Comment, error) {
	t, err := s.Thread(ctx, articleID, mode)
	if err != nil {
		return nil, err
	}
	if t.Get(commentID) == nil {
		return nil, notFound("comment", commentID)
	}
	return t.Replies(commentID), nil
}

// Get returns a single comment with its score
func (s *commentService) Get(ctx context.Context, articleID, commentID string) (*models.Comment, error) {
	coll, err := s.store.Load(ctx, articleID)
	if err != nil {
		return nil, err
	}
	c := coll.Find(commentID)
	if c == nil {
		return nil, notFound("comment", commentID)
	}
	return scored(c), nil
}

// Stats returns per-author reputation for an article
func (s *commentService) Stats(ctx context.Context, articleID string) (map[string]*models.UserCommentStats, error) {
	coll, err := s.store.Load(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return s.statsFor(ctx, coll), nil
}

// statsFor computes the aggregate of coll, reusing a cached one for the same epoch and version
func (s *commentService) statsFor(ctx context.Context, coll *models.CommentCollection) map[string]*models.UserCommentStats {
	key, ok := cache.KeyFor(coll)
	if !ok {
		return reputation.Compute(coll.Comments)
	}
	if stats, hit := s.cache.Get(ctx, key); hit {
		return stats
	}
	stats := reputation.Compute(coll.Comments)
	s.cache.Set(ctx, key, stats)
	return stats
}

// Post creates a root comment, or a reply when req.ParentID is set
func (s *commentService) Post(ctx context.Context, actor *models.Actor, articleID string, req *models.PostCommentRequest) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	content, err := s.cleanContent(req.Content)
	if err != nil {
		return nil, err
	}

	exists, err := s.articles.Exists(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check article: %w", err)
	}
	if !exists {
		return nil, notFound("article", articleID)
	}

	id := uuid.New().String()

	c, err := s.mutate(ctx, articleID, func(coll *models.CommentCollection) (*models.Comment, error) {
		if req.ParentID != "" {
			if err := s.checkParent(coll, req.ParentID); err != nil {
				return nil, err
			}
		}

		snapshot := reputation.Lookup(s.statsFor(ctx, coll), actor.ID)
		now := s.now()

		c := &models.Comment{
			ID:             id,
			ArticleID:      articleID,
			ParentID:       req.ParentID,
			UserID:         actor.ID,
			UserName:       actor.Name,
			UserAvatar:     actor.AvatarURL,
			Content:        content,
			Reactions:      []models.Reaction{},
			UserReputation: snapshot.Reputation,
			IsVerified:     snapshot.IsVerified || actor.Verified,
			IsExpert:       snapshot.IsExpert || actor.Expert,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		coll.Prepend(c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("article_id", articleID).
		Str("comment_id", c.ID).
		Str("parent_id", c.ParentID).
		Str("user_id", actor.ID).
		Msg("Comment posted")

	return c, nil
}

// checkParent rejects replies to missing or deleted comments and to
// comments whose ancestor chain loops
func (s *commentService) checkParent(coll *models.CommentCollection, parentID string) error {
	parent := coll.Find(parentID)
	if parent == nil {
		return notFound("parent comment", parentID)
	}
	if parent.IsDeleted {
		return invalidf("cannot reply to a deleted comment")
	}
	if _, err := thread.Ancestors(thread.Index(coll.Comments), parentID); err != nil {
		s.log.Error().Err(err).Str("article_id", coll.ArticleID).Str("parent_id", parentID).Msg("Reply rejected")
		return fmt.Errorf("parent %s: %w", parentID, err)
	}
	return nil
}

// Edit replaces the content of a comment
func (s *commentService) Edit(ctx context.Context, actor *models.Actor, articleID, commentID, content string) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	content, err := s.cleanContent(content)
	if err != nil {
		return nil, err
	}

	return s.mutateComment(ctx, articleID, commentID, func(c *models.Comment) error {
		if !actor.CanModerate(c.UserID) {
			return forbidden("only the author or a moderator may edit")
		}
		if c.IsDeleted {
			return invalidf("cannot edit a deleted comment")
		}
		if c.IsModerated && !actor.Moderator {
			return forbidden("comment was moderated")
		}
		c.Content = content
		c.IsEdited = true
		c.UpdatedAt = s.now()
		return nil
	})
}

// Vote increments the like or dislike counter
func (s *commentService) Vote(ctx context.Context, actor *models.Actor, articleID, commentID string, dir models.VoteDirection) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if dir != models.VoteUp && dir != models.VoteDown {
		return nil, invalidf("direction must be one of: up, down")
	}

	return s.mutateComment(ctx, articleID, commentID, func(c *models.Comment) error {
		if dir == models.VoteUp {
			c.Likes++
		} else {
			c.Dislikes++
		}
		return nil
	})
}

// React toggles the actor's reaction of the given type
func (s *commentService) React(ctx context.Context, actor *models.Actor, articleID, commentID string, t models.ReactionType) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !models.ValidReactions[t] {
		return nil, invalidf("unknown reaction type %q", t)
	}

	return s.mutateComment(ctx, articleID, commentID, func(c *models.Comment) error {
		for i, r := range c.Reactions {
			if r.UserID == actor.ID && r.Type == t {
				c.Reactions = append(c.Reactions[:i], c.Reactions[i+1:]...)
				return nil
			}
		}
		c.Reactions = append(c.Reactions, models.Reaction{UserID: actor.ID, Type: t, CreatedAt: s.now()})
		return nil
	})
}

// Report flags a comment for review. Repeated reports keep counting.
func (s *commentService) Report(ctx context.Context, actor *models.Actor, articleID, commentID string) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	c, err := s.mutateComment(ctx, articleID, commentID, func(c *models.Comment) error {
		c.IsReported = true
		c.ReportCount++
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("article_id", articleID).
		Str("comment_id", commentID).
		Int("report_count", c.ReportCount).
		Msg("Comment reported")
	return c, nil
}

// Delete soft-deletes a comment. Its replies stay in the thread.
func (s *commentService) Delete(ctx context.Context, actor *models.Actor, articleID, commentID string) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	return s.mutateComment(ctx, articleID, commentID, func(c *models.Comment) error {
		if !actor.CanModerate(c.UserID) {
			return forbidden("only the author or a moderator may delete")
		}
		if !c.IsDeleted {
			c.IsDeleted = true
			c.UpdatedAt = s.now()
		}
		return nil
	})
}

// Moderate redacts a comment's content
func (s *commentService) Moderate(ctx context.Context, actor *models.Actor, articleID, commentID string) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !actor.Moderator {
		return nil, forbidden("only moderators may moderate")
	}

	c, err := s.mutateComment(ctx, articleID, commentID, func(c *models.Comment) error {
		c.IsModerated = true
		c.Content = ""
		c.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("article_id", articleID).Str("comment_id", commentID).Str("moderator_id", actor.ID).Msg("Comment moderated")
	return c, nil
}

// cleanContent validates a body and masks banned words
func (s *commentService) cleanContent(content string) (string, error) {
	content, err := validation.CommentBody(content, s.maxWords)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	cleaned, found := s.filter.Clean(content)
	if len(found) > 0 {
		s.log.Debug().Int("masked", len(found)).Msg("Masked banned words")
	}
	return cleaned, nil
}

// mutateComment applies fn to one comment of the article's collection
func (s *commentService) mutateComment(ctx context.Context, articleID, commentID string, fn func(c *models.Comment) error) (*models.Comment, error) {
	return s.mutate(ctx, articleID, func(coll *models.CommentCollection) (*models.Comment, error) {
		c := coll.Find(commentID)
		if c == nil {
			return nil, notFound("comment", commentID)
		}
		if err := fn(c); err != nil {
			return nil, err
		}
		return c, nil
	})
}

// mutate runs load, apply, save and retries the whole cycle when another
// writer saved the collection in between
func (s *commentService) mutate(ctx context.Context, articleID string, apply func(coll *models.CommentCollection) (*models.Comment, error)) (*models.Comment, error) {
	var result *models.Comment

	err := retry.Do(
		func() error {
			coll, err := s.store.Load(ctx, articleID)
			if err != nil {
				return err
			}
			c, err := apply(coll)
			if err != nil {
				return err
			}
			if err := s.store.Save(ctx, coll); err != nil {
				return err
			}
			result = scored(c)
			return nil
		},
		retry.Attempts(s.attempts),
		retry.Delay(conflictDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, repository.ErrVersionConflict)
		}),
		retry.OnRetry(func(n uint, err error) {
			s.log.Debug().Str("article_id", articleID).Uint("attempt", n+1).Msg("Comment collection changed, retrying")
		}),
	)
	if errors.Is(err, repository.ErrVersionConflict) {
		s.log.Warn().Str("article_id", articleID).Uint("attempts", s.attempts).Msg("Giving up after version conflicts")
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// scored returns a copy of c with its score filled in
func scored(c *models.Comment) *models.Comment {
	cp := c.Clone()
	cp.Score = ranking.Score(cp.Likes, cp.Dislikes)
	return cp
}
