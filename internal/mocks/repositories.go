package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/grid-nexus/nexus-api/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	Users            map[string]*models.User
	EmailToUser      map[string]*models.User
	InsertError      error
	GetError         error
	BatchInsertFunc  func(ctx context.Context, users []*models.User) (int, error)
	BatchInsertCalls int
}

// Verify interface compliance
var _ repository.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:       make(map[string]*models.User),
		EmailToUser: make(map[string]*models.User),
	}
}

// Add stores users directly, bypassing error hooks
func (m *MockUserRepository) Add(users ...*models.User) {
	for _, u := range users {
		m.Users[u.ID] = u
		m.EmailToUser[strings.ToLower(u.Email)] = u
	}
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *models.User) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.Add(user)
	return nil
}

func (m *MockUserRepository) BatchInsert(ctx context.Context, users []*models.User) (int, error) {
	m.BatchInsertCalls++
	if m.BatchInsertFunc != nil {
		return m.BatchInsertFunc(ctx, users)
	}
	if m.InsertError != nil {
		return 0, m.InsertError
	}
	m.Add(users...)
	return len(users), nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	return m.Users[id], nil
}

func (m *MockUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := m.Users[id]
	return ok, nil
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, ok := m.EmailToUser[strings.ToLower(email)]
	return ok, nil
}

func (m *MockUserRepository) GetAllIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.Users))
	for id := range m.Users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	return len(m.Users), nil
}

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct {
	Articles         map[string]*models.Article
	InsertError      error
	ExistsError      error
	BatchInsertCalls int
}

// Verify interface compliance
var _ repository.ArticleRepository = (*MockArticleRepository)(nil)

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{Articles: make(map[string]*models.Article)}
}

// Add stores articles directly, bypassing error hooks
func (m *MockArticleRepository) Add(articles ...*models.Article) {
	for _, a := range articles {
		m.Articles[a.ID] = a
	}
}

func (m *MockArticleRepository) BatchInsert(ctx context.Context, articles []*models.Article) (int, error) {
	m.BatchInsertCalls++
	if m.InsertError != nil {
		return 0, m.InsertError
	}
	m.Add(articles...)
	return len(articles), nil
}

func (m *MockArticleRepository) Exists(ctx context.Context, id string) (bool, error) {
	if m.ExistsError != nil {
		return false, m.ExistsError
	}
	_, ok := m.Articles[id]
	return ok, nil
}

func (m *MockArticleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	for _, a := range m.Articles {
		if a.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockArticleRepository) GetAllIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.Articles))
	for id := range m.Articles {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockArticleRepository) Count(ctx context.Context) (int, error) {
	return len(m.Articles), nil
}

// MockCommentStore is an in-memory CommentStore with hooks for injecting
// load and save failures
type MockCommentStore struct {
	mu    sync.Mutex
	inner repository.CommentStore

	LoadError error
	// SaveFunc runs before every save; a non-nil error is returned instead of saving
	SaveFunc  func(call int, coll *models.CommentCollection) error
	SaveCalls int
	LoadCalls int
}

// Verify interface compliance
var _ repository.CommentStore = (*MockCommentStore)(nil)

func NewMockCommentStore() *MockCommentStore {
	return &MockCommentStore{inner: repository.NewMemoryCommentStore()}
}

func (m *MockCommentStore) Load(ctx context.Context, articleID string) (*models.CommentCollection, error) {
	m.mu.Lock()
	m.LoadCalls++
	err := m.LoadError
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return m.inner.Load(ctx, articleID)
}

func (m *MockCommentStore) Save(ctx context.Context, coll *models.CommentCollection) error {
	m.mu.Lock()
	m.SaveCalls++
	call := m.SaveCalls
	hook := m.SaveFunc
	m.mu.Unlock()

	if hook != nil {
		if err := hook(call, coll); err != nil {
			return err
		}
	}
	return m.inner.Save(ctx, coll)
}

func (m *MockCommentStore) Count(ctx context.Context) (int, error) {
	return m.inner.Count(ctx)
}
