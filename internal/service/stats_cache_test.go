package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/grid-nexus/nexus-api/internal/cache"
	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/grid-nexus/nexus-api/internal/reputation"
	"github.com/grid-nexus/nexus-api/internal/service"
)

func newLRU(t *testing.T) *cache.LRU {
	t.Helper()
	c, err := cache.NewLRU(1024)
	if err != nil {
		t.Fatalf("NewLRU failed: %v", err)
	}
	return c
}

// assertStatsEqual compares field by field; a cache copy may turn nil badges into an empty slice
func assertStatsEqual(t *testing.T, got, want map[string]*models.UserCommentStats) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("Expected %d authors, got %d", len(want), len(got))
	}
	for id, w := range want {
		g, ok := got[id]
		if !ok {
			t.Errorf("Missing stats for %s", id)
			continue
		}
		if g.UserID != w.UserID || g.TotalComments != w.TotalComments || g.LikesReceived != w.LikesReceived ||
			g.Reputation != w.Reputation || g.IsVerified != w.IsVerified || g.IsExpert != w.IsExpert ||
			strings.Join(g.Badges, ",") != strings.Join(w.Badges, ",") {
			t.Errorf("Stats for %s = %+v, want %+v", id, g, w)
		}
	}
}

func (h *testHarness) recomputed(t *testing.T) map[string]*models.UserCommentStats {
	t.Helper()
	coll, err := h.store.Load(context.Background(), articleID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return reputation.Compute(coll.Comments)
}

func TestCommentService_CachedStatsMatchRecompute(t *testing.T) {
	h := newTestHarness(t, service.CommentOptions{Cache: newLRU(t)})
	ctx := context.Background()

	var root, reply *models.Comment

	steps := []struct {
		name string
		run  func(t *testing.T) error
	}{
		{"empty article", func(t *testing.T) error { return nil }},
		{"post root", func(t *testing.T) error {
			root = h.post(t, alice, "root", "")
			return nil
		}},
		{"upvotes", func(t *testing.T) error {
			for i := 0; i < 26; i++ {
				if _, err := h.svc.Vote(ctx, bob, articleID, root.ID, models.VoteUp); err != nil {
					return err
				}
			}
			return nil
		}},
		{"reply", func(t *testing.T) error {
			reply = h.post(t, bob, "reply", root.ID)
			return nil
		}},
		{"downvote", func(t *testing.T) error {
			_, err := h.svc.Vote(ctx, alice, articleID, reply.ID, models.VoteDown)
			return err
		}},
		{"edit", func(t *testing.T) error {
			_, err := h.svc.Edit(ctx, alice, articleID, root.ID, "root, edited")
			return err
		}},
		{"report", func(t *testing.T) error {
			_, err := h.svc.Report(ctx, bob, articleID, root.ID)
			return err
		}},
		{"react", func(t *testing.T) error {
			_, err := h.svc.React(ctx, bob, articleID, root.ID, models.ReactionLove)
			return err
		}},
		{"delete", func(t *testing.T) error {
			_, err := h.svc.Delete(ctx, bob, articleID, reply.ID)
			return err
		}},
		{"moderate", func(t *testing.T) error {
			_, err := h.svc.Moderate(ctx, mod, articleID, root.ID)
			return err
		}},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			if err := step.run(t); err != nil {
				t.Fatalf("%s failed: %v", step.name, err)
			}

			want := h.recomputed(t)
			// first call fills the cache, second is served from it
			for i := 0; i < 2; i++ {
				got, err := h.svc.Stats(ctx, articleID)
				if err != nil {
					t.Fatalf("Stats failed: %v", err)
				}
				assertStatsEqual(t, got, want)
			}
		})
	}
}

func TestCommentService_CachedSnapshotAtPostTime(t *testing.T) {
	h := newTestHarness(t, service.CommentOptions{Cache: newLRU(t)})
	ctx := context.Background()

	first := h.post(t, alice, "first", "")
	for i := 0; i < 30; i++ {
		if _, err := h.svc.Vote(ctx, bob, articleID, first.ID, models.VoteUp); err != nil {
			t.Fatalf("Vote failed: %v", err)
		}
	}

	// warm the cache at the current version
	if _, err := h.svc.Stats(ctx, articleID); err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := reputation.Lookup(h.recomputed(t), alice.ID).Reputation

	second := h.post(t, alice, "second", "")
	if second.UserReputation != want || want != 61 {
		t.Errorf("Expected snapshot %d (61), got %d", want, second.UserReputation)
	}
}

// Two stores that restart versions from zero must not see each other's
// aggregates through a shared cache.
func TestCommentService_SharedCacheAcrossStores(t *testing.T) {
	shared := newLRU(t)
	ctx := context.Background()

	first := newTestHarness(t, service.CommentOptions{Cache: shared})
	c := first.post(t, alice, "hello", "")
	for i := 0; i < 30; i++ {
		if _, err := first.svc.Vote(ctx, bob, articleID, c.ID, models.VoteUp); err != nil {
			t.Fatalf("Vote failed: %v", err)
		}
	}
	if stats, _ := first.svc.Stats(ctx, articleID); stats[alice.ID] == nil || stats[alice.ID].Reputation != 61 {
		t.Fatalf("Expected alice reputation 61 in first store, got %+v", stats[alice.ID])
	}

	// the second store reaches the same version with different data
	second := newTestHarness(t, service.CommentOptions{Cache: shared})
	for i := 0; i < 31; i++ {
		second.post(t, bob, "again", "")
	}

	stats, err := second.svc.Stats(ctx, articleID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if _, ok := stats[alice.ID]; ok {
		t.Errorf("Second store returned stats of the first: %+v", stats[alice.ID])
	}
	assertStatsEqual(t, stats, second.recomputed(t))

	post := second.post(t, alice, "late", "")
	if post.UserReputation != 0 {
		t.Errorf("Expected a fresh snapshot of 0, got %d", post.UserReputation)
	}
}
