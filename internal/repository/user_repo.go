package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/grid-nexus/nexus-api/internal/database"
	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/lib/pq"
)

const userColumns = `id, email, name, avatar_url, role, verified, expert, active, created_at, updated_at`

// userRepo is the postgres implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

// Upsert inserts or updates a user by email
func (r *userRepo) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			avatar_url = EXCLUDED.avatar_url,
			role = EXCLUDED.role,
			verified = EXCLUDED.verified,
			expert = EXCLUDED.expert,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.AvatarURL, user.Role,
		user.Verified, user.Expert, user.Active,
		user.CreatedAt, time.Now(),
	)
	return err
}

// BatchInsert inserts multiple users using PostgreSQL COPY for efficiency
func (r *userRepo) BatchInsert(ctx context.Context, users []*models.User) (int, error) {
	now := time.Now()
	rows := make([][]interface{}, len(users))
	for i, user := range users {
		rows[i] = []interface{}{
			user.ID, user.Email, user.Name, user.AvatarURL, user.Role,
			user.Verified, user.Expert, user.Active,
			user.CreatedAt, now,
		}
	}

	return copyIn(ctx, r.db, "users", []string{
		"id", "email", "name", "avatar_url", "role", "verified", "expert", "active", "created_at", "updated_at",
	}, rows)
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL, &user.Role,
		&user.Verified, &user.Expert, &user.Active,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		// ids arrive from a request header; a malformed uuid is just an unknown user
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "22P02" {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// Exists checks if a user with the given ID exists
func (r *userRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

// EmailExists checks if a user with the given email exists
func (r *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email).Scan(&exists)
	return exists, err
}

// GetAllIDs retrieves all user IDs (for FK validation cache)
func (r *userRepo) GetAllIDs(ctx context.Context) ([]string, error) {
	return queryIDs(ctx, r.db, "SELECT id FROM users")
}

// Count returns the total number of users
func (r *userRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// queryIDs collects a single string column
func queryIDs(ctx context.Context, db *database.DB, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// copyIn loads rows into table in one transaction with COPY FROM STDIN
func copyIn(ctx context.Context, db *database.DB, table string, columns []string, rows [][]interface{}) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("failed to copy into %s: %w", table, err)
		}
	}

	// Flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(rows), nil
}
