package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"notehive/internal/api/middleware"
	"notehive/internal/model"
	"notehive/internal/store"
)

// memNoteStore 内存笔记存储，支持过滤与分页。
type memNoteStore struct {
	notes  map[uint]*model.Note
	nextID uint
}

func newMemNoteStore() *memNoteStore {
	return &memNoteStore{notes: map[uint]*model.Note{}, nextID: 1}
}

func (m *memNoteStore) Create(ctx context.Context, note *model.Note) error {
	note.ID = m.nextID
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}
	note.UpdatedAt = note.CreatedAt
	m.nextID++
	clone := *note
	m.notes[note.ID] = &clone
	return nil
}

func (m *memNoteStore) ByID(ctx context.Context, id uint) (*model.Note, error) {
	note, ok := m.notes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *note
	return &clone, nil
}

func (m *memNoteStore) DeleteOwned(ctx context.Context, id uint, ownerID uint) error {
	note, ok := m.notes[id]
	if !ok || note.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *memNoteStore) List(ctx context.Context, filter store.NotesFilter) ([]model.Note, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	var matched []model.Note
	for _, note := range m.notes {
		if note.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Title != "" && !strings.Contains(note.Title, filter.Title) {
			continue
		}
		if filter.From != nil && note.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && note.CreatedAt.After(*filter.To) {
			continue
		}
		matched = append(matched, *note)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return []model.Note{}, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func newNotesServer(notes NoteStore) *Server {
	return &Server{notes: notes}
}

func notesRouter(s *Server, user *model.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler(nil, false))
	r.Use(func(c *gin.Context) {
		middleware.SetCurrentUser(c, user)
		c.Next()
	})
	r.POST("/notes", s.handleCreateNote)
	r.GET("/notes", s.handleListNotes)
	r.DELETE("/notes/:id", s.handleDeleteNote)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateNote_Normal(t *testing.T) {
	notes := newMemNoteStore()
	s := newNotesServer(notes)
	r := notesRouter(s, &model.User{ID: 1, Email: "jane@example.com"})

	w := doJSON(r, http.MethodPost, "/notes", map[string]string{
		"title":   "Groceries",
		"content": "milk, eggs",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Note added successfully") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	stored, err := notes.ByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("note not stored: %v", err)
	}
	if stored.OwnerID != 1 {
		t.Fatalf("note must belong to the caller, got owner %d", stored.OwnerID)
	}
}

func TestCreateNote_ValidationFailures(t *testing.T) {
	notes := newMemNoteStore()
	s := newNotesServer(notes)
	r := notesRouter(s, &model.User{ID: 1})

	w := doJSON(r, http.MethodPost, "/notes", map[string]string{
		"title":   "ab",
		"content": strings.Repeat("x", 501),
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data map[string][]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(resp.Data["title"]) == 0 || len(resp.Data["content"]) == 0 {
		t.Fatalf("expected failures for title and content, got %v", resp.Data)
	}
	if len(notes.notes) != 0 {
		t.Fatalf("invalid note must not be stored")
	}
}

func TestDeleteNote_Owner(t *testing.T) {
	notes := newMemNoteStore()
	_ = notes.Create(context.Background(), &model.Note{Title: "mine", OwnerID: 1})
	s := newNotesServer(notes)
	r := notesRouter(s, &model.User{ID: 1})

	w := doJSON(r, http.MethodDelete, "/notes/1", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Note deleted successfully") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), `"data"`) {
		t.Fatalf("delete response must not carry data: %s", w.Body.String())
	}
	if len(notes.notes) != 0 {
		t.Fatalf("note was not deleted")
	}
}

func TestDeleteNote_NonOwnerDoesNotRemove(t *testing.T) {
	notes := newMemNoteStore()
	_ = notes.Create(context.Background(), &model.Note{Title: "jane's", OwnerID: 1})
	s := newNotesServer(notes)
	r := notesRouter(s, &model.User{ID: 2})

	w := doJSON(r, http.MethodDelete, "/notes/1", nil)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "You are not allowed to delete this note.") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if len(notes.notes) != 1 {
		t.Fatalf("non-owner delete must not remove the note")
	}
}

func TestDeleteNote_Missing(t *testing.T) {
	notes := newMemNoteStore()
	s := newNotesServer(notes)
	r := notesRouter(s, &model.User{ID: 1})

	w := doJSON(r, http.MethodDelete, "/notes/99", nil)

	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "Note not found.") {
		t.Fatalf("expected 404 Note not found., got %d %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodDelete, "/notes/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed id, got %d", w.Code)
	}
}

func TestListNotes_PaginationAndScope(t *testing.T) {
	notes := newMemNoteStore()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		_ = notes.Create(context.Background(), &model.Note{
			Title:     "note",
			OwnerID:   1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	_ = notes.Create(context.Background(), &model.Note{Title: "other", OwnerID: 2})

	s := newNotesServer(notes)
	r := notesRouter(s, &model.User{ID: 1})

	w := doJSON(r, http.MethodGet, "/notes?page=2&limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data []model.Note `json:"data"`
		Meta listMeta     `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(resp.Data) != 5 {
		t.Fatalf("expected 5 notes on page 2, got %d", len(resp.Data))
	}
	// 他人的笔记不计入
	if resp.Meta.Total != 12 || resp.Meta.Pages != 3 || resp.Meta.Page != 2 {
		t.Fatalf("unexpected meta: %+v", resp.Meta)
	}
	for _, note := range resp.Data {
		if note.OwnerID != 1 {
			t.Fatalf("foreign note leaked into the listing: %+v", note)
		}
	}
	// 新的在前
	if !resp.Data[0].CreatedAt.After(resp.Data[len(resp.Data)-1].CreatedAt) {
		t.Fatalf("expected newest-first ordering")
	}
}

func TestNewListMeta(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		pages int64
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 5, 5},
	}
	for _, tc := range cases {
		meta := newListMeta(1, tc.limit, tc.total)
		if meta.Pages != tc.pages {
			t.Errorf("newListMeta(total=%d, limit=%d).Pages = %d, want %d", tc.total, tc.limit, meta.Pages, tc.pages)
		}
	}
}
