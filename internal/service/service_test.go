package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/grid-nexus/nexus-api/internal/config"
	"github.com/grid-nexus/nexus-api/internal/filter"
	"github.com/grid-nexus/nexus-api/internal/mocks"
	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/grid-nexus/nexus-api/internal/ranking"
	"github.com/grid-nexus/nexus-api/internal/repository"
	"github.com/grid-nexus/nexus-api/internal/service"
)

const articleID = "1b4e28ba-2fa1-41d2-883f-0016d3cca427"

var (
	alice = &models.Actor{ID: "alice", Name: "Alice"}
	bob   = &models.Actor{ID: "bob", Name: "Bob", Verified: true}
	mod   = &models.Actor{ID: "mod", Name: "Mod", Moderator: true}
)

type testHarness struct {
	svc      service.CommentService
	store    *mocks.MockCommentStore
	articles *mocks.MockArticleRepository
}

// newTestHarness wires the comment service over mocks. The clock advances
// one second per call so creation times are strictly increasing.
func newTestHarness(t *testing.T, opts service.CommentOptions) *testHarness {
	t.Helper()

	store := mocks.NewMockCommentStore()
	articles := mocks.NewMockArticleRepository()
	articles.Add(&models.Article{ID: articleID, Slug: "test", Category: "technology"})

	repos := &repository.Repositories{
		User:    mocks.NewMockUserRepository(),
		Article: articles,
		Comment: store,
	}
	cfg := &config.Config{
		Comments: config.CommentsConfig{MaxWords: 500, ConflictRetries: 3},
		Import:   config.ImportConfig{BatchSize: 10},
	}

	if opts.Now == nil {
		clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		opts.Now = func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}
	}

	return &testHarness{
		svc:      service.NewServices(repos, cfg, opts, zerolog.Nop()).Comments,
		store:    store,
		articles: articles,
	}
}

func (h *testHarness) post(t *testing.T, actor *models.Actor, content, parentID string) *models.Comment {
	t.Helper()
	c, err := h.svc.Post(context.Background(), actor, articleID, &models.PostCommentRequest{Content: content, ParentID: parentID})
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	return c
}

func TestCommentService_EndToEndScenario(t *testing.T) {
	h := newTestHarness(t, service.CommentOptions{})
	ctx := context.Background()

	a := h.post(t, alice, "  first!  ", "")
	if a.Score != 0 || a.Likes != 0 || a.Dislikes != 0 {
		t.Fatalf("Expected fresh comment with score 0, got %+v", a)
	}
	if a.Content != "first!" {
		t.Errorf("Expected trimmed content, got %q", a.Content)
	}

	for i := 0; i < 10; i++ {
		var err error
		a, err = h.svc.Vote(ctx, bob, articleID, a.ID, models.VoteUp)
		if err != nil {
			t.Fatalf("Vote failed: %v", err)
		}
	}
	if a.Likes != 10 || a.Score != ranking.Score(10, 0) {
		t.Errorf("Expected 10 likes scored %.4f, got %d / %.4f", ranking.Score(10, 0), a.Likes, a.Score)
	}

	b := h.post(t, bob, "reply", a.ID)

	replies, err := h.svc.Replies(ctx, articleID, a.ID, models.SortBest)
	if err != nil {
		t.Fatalf("Replies failed: %v", err)
	}
	if len(replies) != 1 || replies[0].ID != b.ID {
		t.Errorf("Expected replies [B], got %d", len(replies))
	}

	roots, err := h.svc.Roots(ctx, articleID, models.SortBest)
	if err != nil {
		t.Fatalf("Roots failed: %v", err)
	}
	if len(roots) != 1 || roots[0].ID != a.ID {
		t.Errorf("Expected roots [A], got %d", len(roots))
	}

	a, err = h.svc.Report(ctx, bob, articleID, a.ID)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if a.ReportCount != 1 || !a.IsReported {
		t.Errorf("Expected reported once, got %d %v", a.ReportCount, a.IsReported)
	}
	roots, _ = h.svc.Roots(ctx, articleID, models.SortBest)
	if len(roots) != 1 || roots[0].IsDeleted {
		t.Error("Reported comment should stay visible")
	}

	a, err = h.svc.Edit(ctx, alice, articleID, a.ID, "first, edited")
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if !a.IsEdited || a.Content != "first, edited" {
		t.Errorf("Expected edited content, got %q edited=%v", a.Content, a.IsEdited)
	}
	if a.Likes != 10 || a.Dislikes != 0 {
		t.Errorf("Edit must not touch votes, got %d/%d", a.Likes, a.Dislikes)
	}
	if !a.UpdatedAt.After(a.CreatedAt) {
		t.Error("Expected updated_at to advance")
	}
}

func TestCommentService_ReactionToggle(t *testing.T) {
	h := newTestHarness(t, service.CommentOptions{})
	ctx := context.Background()
	c := h.post(t, alice, "react to me", "")

	c, _ = h.svc.React(ctx, bob, articleID, c.ID, models.ReactionLike)
	if !c.HasReaction("bob", models.ReactionLike) {
		t.Fatal("Expected like after first toggle")
	}

	c, _ = h.svc.React(ctx, bob, articleID, c.ID, models.ReactionLike)
	if c.HasReaction("bob", models.ReactionLike) {
		t.Fatal("Expected like removed after second toggle")
	}

	c, _ = h.svc.React(ctx, bob, articleID, c.ID, models.ReactionLike)
	c, _ = h.svc.React(ctx, bob, articleID, c.ID, models.ReactionLaugh)
	c, _ = h.svc.React(ctx, alice, articleID, c.ID, models.ReactionLike)
	if !c.HasReaction("bob", models.ReactionLike) || !c.HasReaction("bob", models.ReactionLaugh) {
		t.Error("Different reaction types should coexist")
	}
	if len(c.Reactions) != 3 {
		t.Errorf("Expected 3 reactions, got %d", len(c.Reactions))
	}

	if _, err := h.svc.React(ctx, bob, articleID, c.ID, "meh"); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unknown reaction, got %v", err)
	}
}

func TestCommentService_Preconditions(t *testing.T) {
	h := newTestHarness(t, service.CommentOptions{})
	ctx := context.Background()
	c := h.post(t, alice, "hello", "")

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"post anonymous", func() error {
			_, err := h.svc.Post(ctx, nil, articleID, &models.PostCommentRequest{Content: "x"})
			return err
		}, service.ErrUnauthenticated},
		{"post empty", func() error {
			_, err := h.svc.Post(ctx, alice, articleID, &models.PostCommentRequest{Content: "   "})
			return err
		}, service.ErrInvalidInput},
		{"post too long", func() error {
			_, err := h.svc.Post(ctx, alice, articleID, &models.PostCommentRequest{Content: strings.Repeat("w ", 501)})
			return err
		}, service.ErrInvalidInput},
		{"post unknown article", func() error {
			_, err := h.svc.Post(ctx, alice, "nope", &models.PostCommentRequest{Content: "x"})
			return err
		}, service.ErrNotFound},
		{"reply unknown parent", func() error {
			_, err := h.svc.Post(ctx, alice, articleID, &models.PostCommentRequest{Content: "x", ParentID: "missing"})
			return err
		}, service.ErrNotFound},
		{"vote anonymous", func() error {
			_, err := h.svc.Vote(ctx, nil, articleID, c.ID, models.VoteUp)
			return err
		}, service.ErrUnauthenticated},
		{"vote bad direction", func() error {
			_, err := h.svc.Vote(ctx, bob, articleID, c.ID, "sideways")
			return err
		}, service.ErrInvalidInput},
		{"vote missing comment", func() error {
			_, err := h.svc.Vote(ctx, bob, articleID, "missing", models.VoteUp)
			return err
		}, service.ErrNotFound},
		{"report anonymous", func() error {
			_, err := h.svc.Report(ctx, nil, articleID, c.ID)
			return err
		}, service.ErrUnauthenticated},
		{"edit by other user", func() error {
			_, err := h.svc.Edit(ctx, bob, articleID, c.ID, "hijack")
			return err
		}, service.ErrForbidden},
		{"edit empty", func() error {
			_, err := h.svc.Edit(ctx, alice, articleID, c.ID, "")
			return err
		}, service.ErrInvalidInput},
		{"delete by other user", func() error {
			_, err := h.svc.Delete(ctx, bob, articleID, c.ID)
			return err
		}, service.ErrForbidden},
		{"moderate by member", func() error {
			_, err := h.svc.Moderate(ctx, alice, articleID, c.ID)
			return err
		}, service.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	// none of the rejected calls may have changed the comment
	got, _ := h.svc.Get(ctx, articleID, c.ID)
	if got.Likes != 0 || got.IsReported || got.IsDeleted || got.Content != "hello" {
		t.Errorf("Rejected mutations changed the comment: %+v", got)
	}
}

func TestCommentService_DeleteAndModerate(t *testing.T) {
	h := newTestHarness(t, service.CommentOptions{})
	ctx := context.Background()

	a := h.post(t, alice, "parent", "")
	b := h.post(t, bob, "child", a.ID)

	deleted, err := h.svc.Delete(ctx, alice, articleID, a.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !deleted.IsDeleted || deleted.IsReported {
		t.Errorf("Delete should only set is_deleted, got %+v", deleted)
	}

	// replies stay reachable under a deleted parent
	replies, _ := h.svc.Replies(ctx, articleID, a.ID, models.SortNewest)
	if len(replies) != 1 || replies[0].ID != b.ID {
		t.Error("Expected reply to remain reachable")
	}

	if _, err := h.svc.Post(ctx, bob, articleID, &models.PostCommentRequest{Content: "late", ParentID: a.ID}); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput replying to a deleted comment, got %v", err)
	}
	if _, err := h.svc.Edit(ctx, alice, articleID, a.ID, "undo"); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput editing a deleted comment, got %v", err)
	}

	// moderators may delete anyone's comment
	if _, err := h.svc.Delete(ctx, mod, articleID, b.ID); err != nil {
		t.Errorf("Moderator delete failed: %v", err)
	}

	c := h.post(t, bob, "rude words", "")
	c, err = h.svc.Moderate(ctx, mod, articleID, c.ID)
	if err != nil {
		t.Fatalf("Moderate failed: %v", err)
	}
	if !c.IsModerated || c.Content != "" {
		t.Errorf("Expected redacted comment, got %+v", c)
	}
	if _, err := h.svc.Edit(ctx, bob, articleID, c.ID, "sneaky"); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("Author should not edit a moderated comment, got %v", err)
	}
}

func TestCommentService_ReplyCycleRejected(t *testing.T) {
	h := newTestHarness(t, service.CommentOptions{})
	ctx := context.Background()

	// seed a malformed collection where x and y point at each other
	coll, _ := h.store.Load(ctx, articleID)
	coll.Prepend(&models.Comment{ID: "x", ArticleID: articleID, ParentID: "y", UserID: "alice"})
	coll.Prepend(&models.Comment{ID: "y", ArticleID: articleID, ParentID: "x", UserID: "alice"})
	if err := h.store.Save(ctx, coll); err != nil {
		t.Fatal(err)
	}

	_, err := h.svc.Post(ctx, bob, articleID, &models.PostCommentRequest{Content: "loop", ParentID: "x"})
	if !errors.Is(err, service.ErrCycle) {
		t.Fatalf("Expected ErrCycle, got %v", err)
	}

	// the read side still terminates
	th, err := h.svc.Thread(ctx, articleID, models.SortBest)
	if err != nil {
		t.Fatalf("Thread failed: %v", err)
	}
	if len(th.Roots()) != 0 {
		t.Errorf("Expected no roots, got %d", len(th.Roots()))
	}
}

func TestCommentService_SnapshotFrozenAtPostTime(t *testing.T) {
	h := newTestHarness(t, service.CommentOptions{})
	ctx := context.Background()

	first := h.post(t, bob, "first", "")
	if first.UserReputation != 0 {
		t.Errorf("Expected reputation 0 for a first comment, got %d", first.UserReputation)
	}
	if !first.IsVerified {
		t.Error("Profile verified flag should flow into the snapshot")
	}
	if first.IsExpert {
		t.Error("Expected is_expert false")
	}

	for i := 0; i < 30; i++ {
		h.svc.Vote(ctx, alice, articleID, first.ID, models.VoteUp)
	}

	second := h.post(t, bob, "second", "")
	// 30 likes * 2 + 1 comment
	if second.UserReputation != 61 {
		t.Errorf("Expected reputation 61, got %d", second.UserReputation)
	}

	got, _ := h.svc.Get(ctx, articleID, first.ID)
	if got.UserReputation != 0 {
		t.Errorf("Earlier snapshot must stay frozen, got %d", got.UserReputation)
	}

	stats, err := h.svc.Stats(ctx, articleID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats["bob"].Reputation != 62 || len(stats["bob"].Badges) != 1 {
		t.Errorf("Expected reputation 62 with one badge, got %+v", stats["bob"])
	}
}

func TestCommentService_NewestFirstInsertion(t *testing.T) {
	h := newTestHarness(t, service.CommentOptions{})
	ctx := context.Background()

	a := h.post(t, alice, "one", "")
	b := h.post(t, alice, "two", "")
	c := h.post(t, alice, "three", "")

	// no votes, so best falls back to insertion order, newest first
	roots, _ := h.svc.Roots(ctx, articleID, models.SortBest)
	want := []string{c.ID, b.ID, a.ID}
	for i, r := range roots {
		if r.ID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], r.ID)
		}
	}

	roots, _ = h.svc.Roots(ctx, articleID, models.SortOldest)
	if roots[0].ID != a.ID {
		t.Errorf("Expected oldest first, got %s", roots[0].ID)
	}
}

func TestCommentService_ConflictRetry(t *testing.T) {
	h := newTestHarness(t, service.CommentOptions{})
	ctx := context.Background()
	c := h.post(t, alice, "contended", "")

	// two conflicting writers land before our saves succeed
	h.store.SaveCalls = 0
	h.store.SaveFunc = func(call int, coll *models.CommentCollection) error {
		if call <= 2 {
			return repository.ErrVersionConflict
		}
		return nil
	}

	got, err := h.svc.Vote(ctx, bob, articleID, c.ID, models.VoteUp)
	if err != nil {
		t.Fatalf("Vote should succeed after retries: %v", err)
	}
	if got.Likes != 1 {
		t.Errorf("Expected exactly one like, got %d", got.Likes)
	}
	if h.store.SaveCalls != 3 {
		t.Errorf("Expected 3 save attempts, got %d", h.store.SaveCalls)
	}
}

func TestCommentService_ConflictExhausted(t *testing.T) {
	h := newTestHarness(t, service.CommentOptions{})
	ctx := context.Background()
	c := h.post(t, alice, "contended", "")

	h.store.SaveCalls = 0
	h.store.SaveFunc = func(call int, coll *models.CommentCollection) error {
		return repository.ErrVersionConflict
	}

	_, err := h.svc.Vote(ctx, bob, articleID, c.ID, models.VoteUp)
	if !errors.Is(err, service.ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}
	// ConflictRetries is 3, so four attempts in total
	if h.store.SaveCalls != 4 {
		t.Errorf("Expected 4 save attempts, got %d", h.store.SaveCalls)
	}
}

func TestCommentService_LoadErrorNotRetried(t *testing.T) {
	h := newTestHarness(t, service.CommentOptions{})
	h.store.LoadError = errors.New("connection reset")

	_, err := h.svc.Vote(context.Background(), bob, articleID, "any", models.VoteUp)
	if err == nil || err.Error() != "connection reset" {
		t.Fatalf("Expected load error, got %v", err)
	}
	if h.store.LoadCalls != 1 {
		t.Errorf("Expected a single load, got %d", h.store.LoadCalls)
	}
}

func TestCommentService_BannedWordsMasked(t *testing.T) {
	f, err := filter.New([]string{"darn"}, "")
	if err != nil {
		t.Fatal(err)
	}
	h := newTestHarness(t, service.CommentOptions{Filter: f})

	c := h.post(t, alice, "well darn", "")
	if c.Content != "well ****" {
		t.Errorf("Expected masked content, got %q", c.Content)
	}
}

func TestIdentityService_Resolve(t *testing.T) {
	users := mocks.NewMockUserRepository()
	users.Add(
		&models.User{ID: "u1", Name: "Ada", Role: "admin", Active: true, Expert: true},
		&models.User{ID: "u2", Name: "Kai", Role: "member", Active: true},
		&models.User{ID: "u3", Name: "Sam", Role: "member", Active: false},
	)
	repos := &repository.Repositories{User: users, Article: mocks.NewMockArticleRepository(), Comment: mocks.NewMockCommentStore()}
	identity := service.NewServices(repos, &config.Config{}, service.CommentOptions{}, zerolog.Nop()).Identity
	ctx := context.Background()

	actor, err := identity.Resolve(ctx, "u1")
	if err != nil || actor == nil || !actor.Moderator || !actor.Expert {
		t.Errorf("Expected admin actor, got %+v %v", actor, err)
	}

	actor, _ = identity.Resolve(ctx, "u2")
	if actor == nil || actor.Moderator {
		t.Errorf("Expected member actor, got %+v", actor)
	}

	for _, id := range []string{"", "unknown"} {
		actor, err = identity.Resolve(ctx, id)
		if actor != nil || err != nil {
			t.Errorf("Expected anonymous for %q, got %+v %v", id, actor, err)
		}
	}

	if _, err := identity.Resolve(ctx, "u3"); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for inactive user, got %v", err)
	}
}
