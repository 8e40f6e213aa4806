package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/grid-nexus/nexus-api/internal/models"
)

// memoryCommentStore keeps collections in process memory. Load and Save
// copy collections so callers never share state with the store.
type memoryCommentStore struct {
	mu          sync.RWMutex
	collections map[string]*models.CommentCollection
}

// NewMemoryCommentStore creates an in-memory comment store
func NewMemoryCommentStore() CommentStore {
	return &memoryCommentStore{collections: make(map[string]*models.CommentCollection)}
}

// Load returns a copy of the article's collection
func (s *memoryCommentStore) Load(ctx context.Context, articleID string) (*models.CommentCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.collections[articleID]
	if !ok {
		return &models.CommentCollection{ArticleID: articleID, Comments: []*models.Comment{}}, nil
	}
	return stored.Clone(), nil
}

// Save replaces the stored collection if its version is unchanged. The
// first save of an article starts a new epoch.
func (s *memoryCommentStore) Save(ctx context.Context, coll *models.CommentCollection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	epoch := uuid.New().String()
	if stored, ok := s.collections[coll.ArticleID]; ok {
		current = stored.Version
		epoch = stored.Epoch
	}
	if current != coll.Version {
		return ErrVersionConflict
	}

	coll.Epoch = epoch
	coll.Version++
	s.collections[coll.ArticleID] = coll.Clone()
	return nil
}

// Count returns the number of comments across all articles
func (s *memoryCommentStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, c := range s.collections {
		total += len(c.Comments)
	}
	return total, nil
}

// memoryUserRepo is the in-memory implementation of UserRepository
type memoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewMemoryUserRepo creates an in-memory user repository
func NewMemoryUserRepo() UserRepository {
	return &memoryUserRepo{users: make(map[string]*models.User)}
}

func (r *memoryUserRepo) Upsert(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// email is the conflict key, as in the postgres upsert
	for id, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) && id != user.ID {
			cp := *user
			cp.ID = id
			r.users[id] = &cp
			return nil
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memoryUserRepo) BatchInsert(ctx context.Context, users []*models.User) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, u := range users {
		if _, exists := r.users[u.ID]; exists {
			continue
		}
		cp := *u
		r.users[u.ID] = &cp
		inserted++
	}
	return inserted, nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memoryUserRepo) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[id]
	return ok, nil
}

func (r *memoryUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryUserRepo) GetAllIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *memoryUserRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

// memoryArticleRepo is the in-memory implementation of ArticleRepository
type memoryArticleRepo struct {
	mu       sync.RWMutex
	articles map[string]*models.Article
}

// NewMemoryArticleRepo creates an in-memory article repository
func NewMemoryArticleRepo() ArticleRepository {
	return &memoryArticleRepo{articles: make(map[string]*models.Article)}
}

func (r *memoryArticleRepo) BatchInsert(ctx context.Context, articles []*models.Article) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, a := range articles {
		if _, exists := r.articles[a.ID]; exists {
			continue
		}
		cp := *a
		r.articles[a.ID] = &cp
		inserted++
	}
	return inserted, nil
}

func (r *memoryArticleRepo) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.articles[id]
	return ok, nil
}

func (r *memoryArticleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.articles {
		if a.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryArticleRepo) GetAllIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.articles))
	for id := range r.articles {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *memoryArticleRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.articles), nil
}
