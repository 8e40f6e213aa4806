package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/grid-nexus/nexus-api/internal/repository"
	"github.com/grid-nexus/nexus-api/internal/validation"
)

// maxReportedErrors caps how many validation errors a result carries
const maxReportedErrors = 1000

// importService is the concrete implementation of ImportService
type importService struct {
	repos     *repository.Repositories
	batchSize int
	log       zerolog.Logger
}

// newImportService creates a new ImportService
func newImportService(repos *repository.Repositories, batchSize int, log zerolog.Logger) *importService {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &importService{
		repos:     repos,
		batchSize: batchSize,
		log:       log.With().Str("service", "import").Logger(),
	}
}

// ImportUsers loads users from CSV with a header row
func (s *importService) ImportUsers(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	result := &models.ImportResult{Resource: "users", StartedAt: time.Now()}

	reader := csv.NewReader(r)
	validator := validation.NewValidator()

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	headerMap := make(map[string]int)
	for i, h := range header {
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var batch []*models.User
	lineNum := 1

	flush := func() {
		if len(batch) == 0 {
			return
		}
		inserted, err := s.repos.User.BatchInsert(ctx, batch)
		if err != nil {
			s.log.Error().Err(err).Int("batch_size", len(batch)).Msg("Batch insert failed")
			result.FailedCount += len(batch)
		} else {
			result.SuccessfulCount += inserted
			result.SkippedCount += len(batch) - inserted
		}
		result.ProcessedCount += len(batch)
		batch = batch[:0]
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			result.TotalRecords++
			result.ProcessedCount++
			result.FailedCount++
			addError(result, models.ValidationError{Line: lineNum, Field: "csv", Message: err.Error()})
			continue
		}
		result.TotalRecords++

		if lineNum%10000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		userCSV := &models.UserCSV{
			ID:        getField(record, headerMap, "id"),
			Email:     getField(record, headerMap, "email"),
			Name:      getField(record, headerMap, "name"),
			AvatarURL: getField(record, headerMap, "avatar_url"),
			Role:      getField(record, headerMap, "role"),
			Verified:  getField(record, headerMap, "verified"),
			Expert:    getField(record, headerMap, "expert"),
			Active:    getField(record, headerMap, "active"),
			CreatedAt: getField(record, headerMap, "created_at"),
		}

		if errs := validator.ValidateUser(userCSV, lineNum); len(errs) > 0 {
			result.FailedCount++
			result.ProcessedCount++
			addError(result, errs...)
			continue
		}

		taken, err := s.repos.User.EmailExists(ctx, userCSV.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			result.SkippedCount++
			result.ProcessedCount++
			continue
		}

		batch = append(batch, convertCSVToUser(userCSV))
		validator.AddUserEmail(userCSV.Email)
		validator.AddUserID(userCSV.ID)

		if len(batch) >= s.batchSize {
			flush()
			s.log.Debug().Int("processed", result.ProcessedCount).Msg("Batch processed")
		}
	}
	flush()

	s.finish(result)
	return result, nil
}

// ImportArticles loads articles from NDJSON, one object per line
func (s *importService) ImportArticles(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	result := &models.ImportResult{Resource: "articles", StartedAt: time.Now()}

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	validator := validation.NewValidator()

	userIDs, err := s.repos.User.GetAllIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user ids: %w", err)
	}
	// an empty cache disables the author check, so keep a sentinel
	if len(userIDs) == 0 {
		userIDs = []string{""}
	}
	if len(userIDs) < 100000 {
		validator.SetUserIDCache(userIDs)
	}

	var batch []*models.Article
	lineNum := 0

	flush := func() {
		if len(batch) == 0 {
			return
		}
		inserted, err := s.repos.Article.BatchInsert(ctx, batch)
		if err != nil {
			s.log.Error().Err(err).Int("batch_size", len(batch)).Msg("Batch insert failed")
			result.FailedCount += len(batch)
		} else {
			result.SuccessfulCount += inserted
			result.SkippedCount += len(batch) - inserted
		}
		result.ProcessedCount += len(batch)
		batch = batch[:0]
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.TotalRecords++

		if lineNum%10000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		var article models.ArticleNDJSON
		if err := json.Unmarshal([]byte(line), &article); err != nil {
			result.FailedCount++
			result.ProcessedCount++
			addError(result, models.ValidationError{
				Line:    lineNum,
				Field:   "json",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		if errs := validator.ValidateArticle(&article, lineNum); len(errs) > 0 {
			result.FailedCount++
			result.ProcessedCount++
			addError(result, errs...)
			continue
		}

		// slugs already stored are skipped, not failed, so seeding twice is harmless
		taken, err := s.repos.Article.SlugExists(ctx, article.Slug)
		if err != nil {
			return nil, fmt.Errorf("failed to check slug: %w", err)
		}
		if taken {
			result.SkippedCount++
			result.ProcessedCount++
			continue
		}

		batch = append(batch, convertNDJSONToArticle(&article))
		validator.AddArticleSlug(article.Slug)

		if len(batch) >= s.batchSize {
			flush()
			s.log.Debug().Int("processed", result.ProcessedCount).Msg("Batch processed")
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	s.finish(result)
	return result, nil
}

func (s *importService) finish(result *models.ImportResult) {
	result.CompletedAt = time.Now()
	duration := result.CompletedAt.Sub(result.StartedAt)
	result.DurationMs = duration.Milliseconds()
	if result.ProcessedCount > 0 && duration.Seconds() > 0 {
		result.RowsPerSec = float64(result.ProcessedCount) / duration.Seconds()
	}

	var errorRate float64
	if result.TotalRecords > 0 {
		errorRate = float64(result.FailedCount) / float64(result.TotalRecords) * 100
	}

	s.log.Info().
		Str("resource", result.Resource).
		Int("total", result.TotalRecords).
		Int("successful", result.SuccessfulCount).
		Int("skipped", result.SkippedCount).
		Int("failed", result.FailedCount).
		Float64("error_rate_pct", errorRate).
		Int64("duration_ms", result.DurationMs).
		Msg("Import completed")
}

func addError(result *models.ImportResult, errs ...models.ValidationError) {
	for _, e := range errs {
		if len(result.Errors) >= maxReportedErrors {
			return
		}
		result.Errors = append(result.Errors, e)
	}
}

func getField(record []string, headerMap map[string]int, field string) string {
	if idx, ok := headerMap[field]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func convertCSVToUser(csv *models.UserCSV) *models.User {
	createdAt, _ := time.Parse(time.RFC3339, csv.CreatedAt)
	return &models.User{
		ID:        csv.ID,
		Email:     csv.Email,
		Name:      csv.Name,
		AvatarURL: csv.AvatarURL,
		Role:      csv.Role,
		Verified:  csv.Verified == "true",
		Expert:    csv.Expert == "true",
		Active:    csv.Active != "false",
		CreatedAt: createdAt,
	}
}

func convertNDJSONToArticle(ndjson *models.ArticleNDJSON) *models.Article {
	article := &models.Article{
		ID:       ndjson.ID,
		Slug:     ndjson.Slug,
		Title:    ndjson.Title,
		Body:     ndjson.Body,
		AuthorID: ndjson.AuthorID,
		Category: ndjson.Category,
		Tags:     ndjson.Tags,
		Status:   ndjson.Status,
	}
	if article.Status == "" {
		article.Status = "draft"
	}
	if ndjson.PublishedAt != "" {
		t, _ := time.Parse(time.RFC3339, ndjson.PublishedAt)
		article.PublishedAt = &t
	}
	article.CreatedAt = time.Now()
	return article
}
