package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/grid-nexus/nexus-api/internal/ranking"
	"github.com/grid-nexus/nexus-api/internal/repository"
)

// Export formats
const (
	FormatNDJSON = "ndjson"
	FormatJSON   = "json"
	FormatCSV    = "csv"
)

// ValidExportFormats defines allowed export formats
var ValidExportFormats = map[string]bool{
	FormatNDJSON: true,
	FormatJSON:   true,
	FormatCSV:    true,
}

// flushEvery is how many records are written between flushes of a streaming writer
const flushEvery = 100

// exportService is the concrete implementation of ExportService
type exportService struct {
	store repository.CommentStore
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(store repository.CommentStore, log zerolog.Logger) *exportService {
	return &exportService{
		store: store,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// ContentType returns the MIME type of an export format
func ContentType(format string) string {
	switch format {
	case FormatNDJSON:
		return "application/x-ndjson"
	case FormatCSV:
		return "text/csv"
	default:
		return "application/json"
	}
}

// CommentExport is a loaded, redacted and scored snapshot of one
// article's comments, ready to be written in its format
type CommentExport struct {
	ArticleID string
	Format    string
	Comments  []*models.Comment

	log zerolog.Logger
}

// PrepareComments loads an article's comments, newest first, with scores
// filled in and deleted or moderated content removed. Nothing is written,
// so a caller can still report errors before it starts a response.
func (s *exportService) PrepareComments(ctx context.Context, articleID, format string) (*CommentExport, error) {
	if !ValidExportFormats[format] {
		return nil, invalidf("format must be one of: ndjson, json, csv")
	}

	coll, err := s.store.Load(ctx, articleID)
	if err != nil {
		return nil, err
	}

	comments := make([]*models.Comment, len(coll.Comments))
	for i, c := range coll.Comments {
		comments[i] = c.Redacted()
		comments[i].Score = ranking.Score(c.Likes, c.Dislikes)
	}

	return &CommentExport{ArticleID: articleID, Format: format, Comments: comments, log: s.log}, nil
}

// ExportComments prepares and writes an article's comments in one step
func (s *exportService) ExportComments(ctx context.Context, w io.Writer, articleID, format string) (int, error) {
	export, err := s.PrepareComments(ctx, articleID, format)
	if err != nil {
		return 0, err
	}
	return export.WriteTo(w)
}

// WriteTo streams the export and returns the number of comments written
func (e *CommentExport) WriteTo(w io.Writer) (int, error) {
	e.log.Info().Str("article_id", e.ArticleID).Str("format", e.Format).Int("comments", len(e.Comments)).Msg("Starting comments export")

	var err error
	switch e.Format {
	case FormatNDJSON:
		err = writeNDJSON(w, e.Comments)
	case FormatJSON:
		err = writeJSON(w, e.Comments)
	case FormatCSV:
		err = writeCSV(w, e.Comments)
	default:
		err = invalidf("format must be one of: ndjson, json, csv")
	}
	if err != nil {
		e.log.Error().Err(err).Str("article_id", e.ArticleID).Msg("Export failed")
		return 0, err
	}

	e.log.Info().Str("article_id", e.ArticleID).Int("count", len(e.Comments)).Msg("Comments export completed")
	return len(e.Comments), nil
}

func writeNDJSON(w io.Writer, comments []*models.Comment) error {
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	for i, c := range comments {
		if err := enc.Encode(c); err != nil {
			return err
		}
		if (i+1)%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
	}
	return nil
}

func writeJSON(w io.Writer, comments []*models.Comment) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	for i, c := range comments {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "]")
	return err
}

var csvHeader = []string{
	"id", "parent_id", "user_id", "user_name", "content",
	"likes", "dislikes", "score", "report_count",
	"is_deleted", "is_moderated", "is_edited", "created_at",
}

func writeCSV(w io.Writer, comments []*models.Comment) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, c := range comments {
		err := writer.Write([]string{
			c.ID,
			c.ParentID,
			c.UserID,
			c.UserName,
			c.Content,
			strconv.Itoa(c.Likes),
			strconv.Itoa(c.Dislikes),
			strconv.FormatFloat(c.Score, 'f', 4, 64),
			strconv.Itoa(c.ReportCount),
			strconv.FormatBool(c.IsDeleted),
			strconv.FormatBool(c.IsModerated),
			strconv.FormatBool(c.IsEdited),
			c.CreatedAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
