package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/grid-nexus/nexus-api/internal/config"
	"github.com/grid-nexus/nexus-api/internal/mocks"
	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/grid-nexus/nexus-api/internal/repository"
	"github.com/grid-nexus/nexus-api/internal/service"
)

func newExportFixture(t *testing.T) service.ExportService {
	t.Helper()

	store := mocks.NewMockCommentStore()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	coll := &models.CommentCollection{ArticleID: articleID}
	coll.Prepend(&models.Comment{ID: "a", ArticleID: articleID, UserID: "u1", Content: "hello, world", Likes: 10, CreatedAt: created})
	coll.Prepend(&models.Comment{ID: "b", ArticleID: articleID, ParentID: "a", UserID: "u2", Content: "secret", IsDeleted: true, CreatedAt: created})
	if err := store.Save(context.Background(), coll); err != nil {
		t.Fatal(err)
	}

	repos := &repository.Repositories{
		User:    mocks.NewMockUserRepository(),
		Article: mocks.NewMockArticleRepository(),
		Comment: store,
	}
	return service.NewServices(repos, &config.Config{}, service.CommentOptions{}, zerolog.Nop()).Export
}

func TestExportComments_NDJSON(t *testing.T) {
	svc := newExportFixture(t)

	var buf bytes.Buffer
	n, err := svc.ExportComments(context.Background(), &buf, articleID, service.FormatNDJSON)
	if err != nil {
		t.Fatalf("ExportComments failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("Expected 2 comments, got %d", n)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}

	var first, second models.Comment
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}

	if first.ID != "b" || second.ID != "a" {
		t.Errorf("Expected newest first, got %s, %s", first.ID, second.ID)
	}
	if first.Content != "" || !first.IsDeleted {
		t.Errorf("Deleted content must not be exported, got %q", first.Content)
	}
	if second.Score <= 0.72 || second.Score >= 0.73 {
		t.Errorf("Expected score about 0.7225, got %.4f", second.Score)
	}
}

func TestExportComments_JSONAndCSV(t *testing.T) {
	svc := newExportFixture(t)
	ctx := context.Background()

	var jsonBuf bytes.Buffer
	if _, err := svc.ExportComments(ctx, &jsonBuf, articleID, service.FormatJSON); err != nil {
		t.Fatal(err)
	}
	var all []models.Comment
	if err := json.Unmarshal(jsonBuf.Bytes(), &all); err != nil {
		t.Fatalf("Expected a JSON array: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 comments, got %d", len(all))
	}

	var csvBuf bytes.Buffer
	if _, err := svc.ExportComments(ctx, &csvBuf, articleID, service.FormatCSV); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&csvBuf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header and 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[2][4] != "hello, world" || rows[2][7] != "0.7225" {
		t.Errorf("Unexpected csv rows %v", rows)
	}
}

func TestExportComments_Errors(t *testing.T) {
	svc := newExportFixture(t)

	_, err := svc.ExportComments(context.Background(), &bytes.Buffer{}, articleID, "xml")
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	var buf bytes.Buffer
	n, err := svc.ExportComments(context.Background(), &buf, "no-comments", service.FormatJSON)
	if err != nil || n != 0 || buf.String() != "[]" {
		t.Errorf("Expected empty array, got %q (%d, %v)", buf.String(), n, err)
	}
}
