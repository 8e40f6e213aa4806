package api

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/grid-nexus/nexus-api/internal/ranking"
	"github.com/grid-nexus/nexus-api/internal/service"
	"github.com/grid-nexus/nexus-api/internal/thread"
	"github.com/grid-nexus/nexus-api/internal/validation"
)

// actorKey is the gin context key holding the resolved *models.Actor
const actorKey = "actor"

// CommentHandler handles comment endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comments").Logger(),
	}
}

// List handles GET /v1/articles/:article_id/comments?sort=&view=tree|roots
func (h *CommentHandler) List(c *gin.Context) {
	articleID := c.Param("article_id")

	mode, ok := h.sortMode(c)
	if !ok {
		return
	}

	view := c.DefaultQuery("view", "tree")
	if view != "tree" && view != "roots" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "view must be one of: tree, roots"})
		return
	}

	t, err := h.services.Comments.Thread(c.Request.Context(), articleID, mode)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := gin.H{
		"article_id": articleID,
		"sort":       mode,
		"view":       view,
		"total":      t.Len(),
	}
	if view == "roots" {
		resp["comments"] = redactAll(t.Roots())
	} else {
		resp["comments"] = redactTree(t.Tree())
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /v1/articles/:article_id/comments/:comment_id
func (h *CommentHandler) Get(c *gin.Context) {
	comment, err := h.services.Comments.Get(c.Request.Context(), c.Param("article_id"), c.Param("comment_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment.Redacted())
}

// Replies handles GET /v1/articles/:article_id/comments/:comment_id/replies
func (h *CommentHandler) Replies(c *gin.Context) {
	mode, ok := h.sortMode(c)
	if !ok {
		return
	}

	replies, err := h.services.Comments.Replies(c.Request.Context(), c.Param("article_id"), c.Param("comment_id"), mode)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"parent_id": c.Param("comment_id"),
		"sort":      mode,
		"comments":  redactAll(replies),
	})
}

// Stats handles GET /v1/articles/:article_id/stats
func (h *CommentHandler) Stats(c *gin.Context) {
	stats, err := h.services.Comments.Stats(c.Request.Context(), c.Param("article_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	users := make([]*models.UserCommentStats, 0, len(stats))
	for _, s := range stats {
		users = append(users, s)
	}
	sortStats(users)

	c.JSON(http.StatusOK, gin.H{
		"article_id": c.Param("article_id"),
		"users":      users,
	})
}

// Post handles POST /v1/articles/:article_id/comments
func (h *CommentHandler) Post(c *gin.Context) {
	var req models.PostCommentRequest
	if !h.bind(c, &req) {
		return
	}

	comment, err := h.services.Comments.Post(c.Request.Context(), actorFrom(c), c.Param("article_id"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Edit handles PATCH /v1/articles/:article_id/comments/:comment_id
func (h *CommentHandler) Edit(c *gin.Context) {
	var req models.EditCommentRequest
	if !h.bind(c, &req) {
		return
	}

	comment, err := h.services.Comments.Edit(c.Request.Context(), actorFrom(c), c.Param("article_id"), c.Param("comment_id"), req.Content)
	h.respond(c, comment, err)
}

// Delete handles DELETE /v1/articles/:article_id/comments/:comment_id
func (h *CommentHandler) Delete(c *gin.Context) {
	comment, err := h.services.Comments.Delete(c.Request.Context(), actorFrom(c), c.Param("article_id"), c.Param("comment_id"))
	h.respond(c, comment, err)
}

// Vote handles POST /v1/articles/:article_id/comments/:comment_id/votes
func (h *CommentHandler) Vote(c *gin.Context) {
	var req models.VoteRequest
	if !h.bind(c, &req) {
		return
	}

	comment, err := h.services.Comments.Vote(c.Request.Context(), actorFrom(c), c.Param("article_id"), c.Param("comment_id"), req.Direction)
	h.respond(c, comment, err)
}

// React handles POST /v1/articles/:article_id/comments/:comment_id/reactions
func (h *CommentHandler) React(c *gin.Context) {
	var req models.ReactRequest
	if !h.bind(c, &req) {
		return
	}

	comment, err := h.services.Comments.React(c.Request.Context(), actorFrom(c), c.Param("article_id"), c.Param("comment_id"), req.Type)
	h.respond(c, comment, err)
}

// Report handles POST /v1/articles/:article_id/comments/:comment_id/reports
func (h *CommentHandler) Report(c *gin.Context) {
	comment, err := h.services.Comments.Report(c.Request.Context(), actorFrom(c), c.Param("article_id"), c.Param("comment_id"))
	h.respond(c, comment, err)
}

// Moderate handles POST /v1/articles/:article_id/comments/:comment_id/moderation
func (h *CommentHandler) Moderate(c *gin.Context) {
	comment, err := h.services.Comments.Moderate(c.Request.Context(), actorFrom(c), c.Param("article_id"), c.Param("comment_id"))
	h.respond(c, comment, err)
}

// Export handles GET /v1/articles/:article_id/export?format=ndjson|json|csv
// and streams the article's comments directly to the response
func (h *CommentHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", service.FormatNDJSON)
	if !service.ValidExportFormats[format] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be one of: ndjson, json, csv"})
		return
	}

	articleID := c.Param("article_id")
	export, err := h.services.Export.PrepareComments(c.Request.Context(), articleID, format)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Content-Type", service.ContentType(format))
	c.Header("Content-Disposition", "attachment; filename=comments-"+articleID+"."+format)
	c.Status(http.StatusOK)

	if _, err := export.WriteTo(c.Writer); err != nil {
		// Can't return error JSON after streaming has started
		h.log.Error().Err(err).Str("article_id", articleID).Msg("Export failed")
	}
}

// respond writes a mutated comment or maps err to a status
func (h *CommentHandler) respond(c *gin.Context, comment *models.Comment, err error) {
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment.Redacted())
}

// bind decodes and validates a JSON body, writing a 400 on failure
func (h *CommentHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	if err := validation.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (h *CommentHandler) sortMode(c *gin.Context) (models.SortMode, bool) {
	mode, err := ranking.ParseSortMode(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return mode, true
}

// actorFrom returns the caller resolved by actorMiddleware, or nil when anonymous
func actorFrom(c *gin.Context) *models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(*models.Actor); ok {
			return actor
		}
	}
	return nil
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrCycle):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, log zerolog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func redactAll(comments []*models.Comment) []*models.Comment {
	out := make([]*models.Comment, len(comments))
	for i, cm := range comments {
		out[i] = cm.Redacted()
	}
	return out
}

func redactTree(nodes []*thread.Node) []*thread.Node {
	out := make([]*thread.Node, len(nodes))
	for i, n := range nodes {
		out[i] = &thread.Node{Comment: n.Comment.Redacted(), Replies: redactTree(n.Replies)}
	}
	return out
}

// sortStats orders authors by reputation, highest first
func sortStats(users []*models.UserCommentStats) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Reputation != users[j].Reputation {
			return users[i].Reputation > users[j].Reputation
		}
		return users[i].UserID < users[j].UserID
	})
}
