package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/grid-nexus/nexus-api/internal/database"
	"github.com/grid-nexus/nexus-api/internal/models"
)

const commentColumns = `id, article_id, parent_id, seq, user_id, user_name, user_avatar, content,
	likes, dislikes, reactions, is_reported, report_count, is_moderated, is_deleted, is_edited,
	user_reputation, is_verified, is_expert, created_at, updated_at`

// commentStore is the postgres implementation of CommentStore.
// comment_threads holds one version row per article; the comments table
// holds the records themselves.
type commentStore struct {
	db *database.DB
}

// NewCommentStore creates a new postgres comment store
func NewCommentStore(db *database.DB) CommentStore {
	return &commentStore{db: db}
}

// Load reads the article's collection newest-first. The version row and
// the comments are read from one snapshot, so the returned version always
// describes the returned comments.
func (s *commentStore) Load(ctx context.Context, articleID string) (*models.CommentCollection, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	// read-only; rolling back releases the snapshot
	defer tx.Rollback()

	return loadCollection(ctx, tx, articleID)
}

// rowQuerier is satisfied by *sql.DB and *sql.Tx
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func loadCollection(ctx context.Context, q rowQuerier, articleID string) (*models.CommentCollection, error) {
	coll := &models.CommentCollection{ArticleID: articleID, Comments: []*models.Comment{}}

	err := q.QueryRowContext(ctx,
		"SELECT epoch, version FROM comment_threads WHERE article_id = $1", articleID,
	).Scan(&coll.Epoch, &coll.Version)
	if err == sql.ErrNoRows {
		return coll, nil
	}
	// a malformed article id cannot have comments
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "22P02" {
		return coll, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load thread version: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE article_id = $1 ORDER BY seq DESC`, articleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		coll.Comments = append(coll.Comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return coll, nil
}

// Save writes the collection in one transaction guarded by the version row
func (s *commentStore) Save(ctx context.Context, coll *models.CommentCollection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var (
		current int64
		epoch   string
	)
	err = tx.QueryRowContext(ctx,
		"SELECT epoch, version FROM comment_threads WHERE article_id = $1 FOR UPDATE", coll.ArticleID,
	).Scan(&epoch, &current)

	switch {
	case err == sql.ErrNoRows:
		if coll.Version != 0 {
			return ErrVersionConflict
		}
		epoch = uuid.New().String()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO comment_threads (article_id, epoch, version, updated_at) VALUES ($1, $2, 1, $3)
			 ON CONFLICT (article_id) DO NOTHING`,
			coll.ArticleID, epoch, time.Now(),
		)
		if err != nil {
			return fmt.Errorf("failed to create thread: %w", err)
		}
		// another writer created the row between our select and insert
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrVersionConflict
		}
	case err != nil:
		return fmt.Errorf("failed to lock thread: %w", err)
	default:
		if current != coll.Version {
			return ErrVersionConflict
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE comment_threads SET version = version + 1, updated_at = $2 WHERE article_id = $1",
			coll.ArticleID, time.Now(),
		); err != nil {
			return fmt.Errorf("failed to bump thread version: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO comments (`+commentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			likes = EXCLUDED.likes,
			dislikes = EXCLUDED.dislikes,
			reactions = EXCLUDED.reactions,
			is_reported = EXCLUDED.is_reported,
			report_count = EXCLUDED.report_count,
			is_moderated = EXCLUDED.is_moderated,
			is_deleted = EXCLUDED.is_deleted,
			is_edited = EXCLUDED.is_edited,
			updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range coll.Comments {
		reactions := c.Reactions
		if reactions == nil {
			reactions = []models.Reaction{}
		}
		reactionsJSON, err := json.Marshal(reactions)
		if err != nil {
			return fmt.Errorf("failed to encode reactions: %w", err)
		}

		var parentID sql.NullString
		if c.ParentID != "" {
			parentID = sql.NullString{String: c.ParentID, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			c.ID, coll.ArticleID, parentID, c.Seq, c.UserID, c.UserName, c.UserAvatar, c.Content,
			c.Likes, c.Dislikes, string(reactionsJSON), c.IsReported, c.ReportCount,
			c.IsModerated, c.IsDeleted, c.IsEdited,
			c.UserReputation, c.IsVerified, c.IsExpert, c.CreatedAt, c.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to write comment %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	coll.Epoch = epoch
	coll.Version++
	return nil
}

// Count returns the total number of comments
func (s *commentStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&count)
	return count, err
}

func scanComment(rows *sql.Rows) (*models.Comment, error) {
	var (
		c             models.Comment
		parentID      sql.NullString
		reactionsJSON []byte
	)

	err := rows.Scan(
		&c.ID, &c.ArticleID, &parentID, &c.Seq, &c.UserID, &c.UserName, &c.UserAvatar, &c.Content,
		&c.Likes, &c.Dislikes, &reactionsJSON, &c.IsReported, &c.ReportCount,
		&c.IsModerated, &c.IsDeleted, &c.IsEdited,
		&c.UserReputation, &c.IsVerified, &c.IsExpert, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.ParentID = parentID.String
	if err := json.Unmarshal(reactionsJSON, &c.Reactions); err != nil {
		return nil, fmt.Errorf("failed to decode reactions of %s: %w", c.ID, err)
	}
	return &c, nil
}
