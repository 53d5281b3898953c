package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"notehive/internal/api/middleware"
	"notehive/internal/model"
	"notehive/internal/pkg/apperr"
	"notehive/internal/pkg/respond"
	"notehive/internal/pkg/validate"
	"notehive/internal/store"
)

// createNoteRequest 创建笔记的请求参数。
type createNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// listMeta 分页元信息。
type listMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func newListMeta(page, limit int, total int64) listMeta {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return listMeta{Page: page, Limit: limit, Total: total, Pages: pages}
}

func createNoteRules(req *createNoteRequest) []validate.Rule {
	return []validate.Rule{
		{Field: "title", Checks: []validate.Check{
			validate.Required(req.Title, "Note title is required."),
			validate.Length(req.Title, 3, 30, "Note title must be between 3 and 30 characters."),
		}},
		{Field: "content", Checks: []validate.Check{
			validate.Length(req.Content, 0, 500, "Note content must be at most 500 characters."),
		}},
	}
}

// handleCreateNote 创建笔记，归属当前登录用户。
//
// POST /api/v1/notes
func (s *Server) handleCreateNote(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		s.fail(c, apperr.Unauthenticated("You are not logged in. Please log in to access this route."))
		return
	}

	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperr.New(http.StatusBadRequest, apperr.StatusFail, "Invalid request body.").Wrap(err))
		return
	}

	ctx := c.Request.Context()
	if err := validate.Run(ctx, createNoteRules(&req)); err != nil {
		s.fail(c, err)
		return
	}

	note := &model.Note{
		Title:   strings.TrimSpace(req.Title),
		Content: strings.TrimSpace(req.Content),
		OwnerID: user.ID,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		s.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	respond.Success(c, respond.Options{
		Code:    http.StatusCreated,
		Message: "Note added successfully",
		Data:    note,
	})
}

// handleDeleteNote 删除当前用户的笔记。
//
// 先区分“不存在”和“不是所有者”两种失败，
// 实际删除仍然带着所有者条件执行。
//
// DELETE /api/v1/notes/:id
func (s *Server) handleDeleteNote(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		s.fail(c, apperr.Unauthenticated("You are not logged in. Please log in to access this route."))
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		s.fail(c, apperr.New(http.StatusBadRequest, apperr.StatusFail, "Invalid note id format."))
		return
	}

	ctx := c.Request.Context()
	note, err := s.notes.ByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.fail(c, apperr.NotFound("Note not found."))
			return
		}
		s.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}
	if note.OwnerID != user.ID {
		s.fail(c, apperr.Forbidden("You are not allowed to delete this note."))
		return
	}

	if err := s.notes.DeleteOwned(ctx, uint(id), user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.fail(c, apperr.NotFound("Note not found."))
			return
		}
		s.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	respond.Success(c, respond.Options{
		Message: "Note deleted successfully",
	})
}

// handleListNotes 返回当前用户的笔记列表，按创建时间倒序分页。
//
// GET /api/v1/notes?page=1&limit=10
func (s *Server) handleListNotes(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		s.fail(c, apperr.Unauthenticated("You are not logged in. Please log in to access this route."))
		return
	}

	page := parseQueryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := parseQueryInt(c, "limit", 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}

	notes, total, err := s.notes.List(c.Request.Context(), store.NotesFilter{
		OwnerID: user.ID,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		s.fail(c, apperr.Internal("Something went wrong, try again").Wrap(err))
		return
	}

	respond.Success(c, respond.Options{
		Message: "Notes fetched successfully",
		Data:    notes,
		Meta:    newListMeta(page, limit, total),
	})
}

// fail 记录失败并交给统一错误中间件。
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// parseQueryInt 解析查询参数中的整数值。
func parseQueryInt(c *gin.Context, key string, def int) int {
	val := c.Query(key)
	if val == "" {
		return def
	}
	iv, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return iv
}
