package mocks

import (
	"context"

	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/grid-nexus/nexus-api/internal/service"
	"github.com/grid-nexus/nexus-api/internal/thread"
)

// MockIdentityService resolves ids from a fixed set of actors
type MockIdentityService struct {
	Actors map[string]*models.Actor
	Err    error
}

// Verify interface compliance
var _ service.IdentityService = (*MockIdentityService)(nil)

func NewMockIdentityService(actors ...*models.Actor) *MockIdentityService {
	m := &MockIdentityService{Actors: make(map[string]*models.Actor)}
	for _, a := range actors {
		m.Actors[a.ID] = a
	}
	return m
}

func (m *MockIdentityService) Resolve(ctx context.Context, userID string) (*models.Actor, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Actors[userID], nil
}

// MockCommentService returns Err from every method unless a matching
// func field is set. Comments records the last returned comment.
type MockCommentService struct {
	Err error

	ThreadFunc func(ctx context.Context, articleID string, mode models.SortMode) (*thread.Thread, error)
	PostFunc   func(ctx context.Context, actor *models.Actor, articleID string, req *models.PostCommentRequest) (*models.Comment, error)
	VoteFunc   func(ctx context.Context, actor *models.Actor, articleID, commentID string, dir models.VoteDirection) (*models.Comment, error)

	Comment *models.Comment
	Calls   []string
}

// Verify interface compliance
var _ service.CommentService = (*MockCommentService)(nil)

func NewMockCommentService() *MockCommentService {
	return &MockCommentService{}
}

func (m *MockCommentService) result(op string) (*models.Comment, error) {
	m.Calls = append(m.Calls, op)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Comment, nil
}

func (m *MockCommentService) Thread(ctx context.Context, articleID string, mode models.SortMode) (*thread.Thread, error) {
	m.Calls = append(m.Calls, "Thread")
	if m.ThreadFunc != nil {
		return m.ThreadFunc(ctx, articleID, mode)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return thread.Build(nil, mode), nil
}

func (m *MockCommentService) Roots(ctx context.Context, articleID string, mode models.SortMode) ([]*models.Comment, error) {
	m.Calls = append(m.Calls, "Roots")
	if m.Err != nil {
		return nil, m.Err
	}
	return []*models.Comment{}, nil
}

func (m *MockCommentService) Replies(ctx context.Context, articleID, commentID string, mode models.SortMode) ([]*models.Comment, error) {
	m.Calls = append(m.Calls, "Replies")
	if m.Err != nil {
		return nil, m.Err
	}
	return []*models.Comment{}, nil
}

func (m *MockCommentService) Get(ctx context.Context, articleID, commentID string) (*models.Comment, error) {
	return m.result("Get")
}

func (m *MockCommentService) Stats(ctx context.Context, articleID string) (map[string]*models.UserCommentStats, error) {
	m.Calls = append(m.Calls, "Stats")
	if m.Err != nil {
		return nil, m.Err
	}
	return map[string]*models.UserCommentStats{}, nil
}

func (m *MockCommentService) Post(ctx context.Context, actor *models.Actor, articleID string, req *models.PostCommentRequest) (*models.Comment, error) {
	if m.PostFunc != nil {
		m.Calls = append(m.Calls, "Post")
		return m.PostFunc(ctx, actor, articleID, req)
	}
	return m.result("Post")
}

func (m *MockCommentService) Edit(ctx context.Context, actor *models.Actor, articleID, commentID, content string) (*models.Comment, error) {
	return m.result("Edit")
}

func (m *MockCommentService) Vote(ctx context.Context, actor *models.Actor, articleID, commentID string, dir models.VoteDirection) (*models.Comment, error) {
	if m.VoteFunc != nil {
		m.Calls = append(m.Calls, "Vote")
		return m.VoteFunc(ctx, actor, articleID, commentID, dir)
	}
	return m.result("Vote")
}

func (m *MockCommentService) React(ctx context.Context, actor *models.Actor, articleID, commentID string, t models.ReactionType) (*models.Comment, error) {
	return m.result("React")
}

func (m *MockCommentService) Report(ctx context.Context, actor *models.Actor, articleID, commentID string) (*models.Comment, error) {
	return m.result("Report")
}

func (m *MockCommentService) Delete(ctx context.Context, actor *models.Actor, articleID, commentID string) (*models.Comment, error) {
	return m.result("Delete")
}

func (m *MockCommentService) Moderate(ctx context.Context, actor *models.Actor, articleID, commentID string) (*models.Comment, error) {
	return m.result("Moderate")
}
