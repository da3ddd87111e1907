package http

import (
	"net/http"
	"strconv"
	"time"

	"todoapi/internal/domain"
	"todoapi/internal/service"
	"todoapi/internal/store"
	"todoapi/pkg/httpx"
)

// TodoHandler exposes the todo CRUD and listing endpoints.
type TodoHandler struct {
	Todos *service.TodoService
}

type todoRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
	AssignedTo  string   `json:"assignedTo"`
}

// toDomain converts the wire shape, leaving unparsable timestamps zero so
// domain validation reports them.
func (req *todoRequest) toDomain() domain.Todo {
	t := domain.Todo{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Tags:        req.Tags,
		AssignedTo:  req.AssignedTo,
	}
	if ts, err := time.Parse(time.RFC3339, req.StartTime); err == nil {
		t.StartTime = ts
	}
	if ts, err := time.Parse(time.RFC3339, req.EndTime); err == nil {
		t.EndTime = ts
	}
	return t
}

// HandleCreate creates a todo owned by the caller.
//
// POST /todos
func (h *TodoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req todoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := h.Todos.Create(r.Context(), u.ID, req.toDomain())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Todo created successfully", todo)
}

// HandleList returns a filtered, sorted page of the caller's todos.
//
// GET /todos
func (h *TodoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	f := filterFromQuery(r)
	f.UserID = u.ID

	page, err := h.Todos.List(r.Context(), f)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", page)
}

// HandleListAll returns a page over every user's todos. Admin only.
//
// GET /todos/all
func (h *TodoHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	page, err := h.Todos.List(r.Context(), filterFromQuery(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", page)
}

// HandleListCreatedByMe returns todos the caller created, including ones
// now owned by other users.
//
// GET /todos/created-by-me
func (h *TodoHandler) HandleListCreatedByMe(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	f := filterFromQuery(r)
	f.CreatedBy = u.ID

	page, err := h.Todos.List(r.Context(), f)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", page)
}

// HandleGet returns one of the caller's todos.
//
// GET /todos/{id}
func (h *TodoHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	todo, err := h.Todos.Get(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", todo)
}

// HandleUpdate patches one of the caller's todos.
//
// PUT /todos/{id}
func (h *TodoHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req todoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := h.Todos.Update(r.Context(), u.ID, r.PathValue("id"), req.toDomain())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Todo updated successfully", todo)
}

// HandleDelete removes one of the caller's todos.
//
// DELETE /todos/{id}
func (h *TodoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	if err := h.Todos.Delete(r.Context(), u.ID, r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Todo deleted successfully", nil)
}

// HandleListByStatus returns the caller's todos with the given status.
//
// GET /todos/status/{status}
func (h *TodoHandler) HandleListByStatus(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	todos, err := h.Todos.ListByStatus(r.Context(), u.ID, r.PathValue("status"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", todos)
}

// HandleListInRange returns the caller's todos overlapping the supplied
// window.
//
// GET /todos/date-range?startDate=...&endDate=...
func (h *TodoHandler) HandleListInRange(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	start, err1 := time.Parse(time.RFC3339, r.URL.Query().Get("startDate"))
	end, err2 := time.Parse(time.RFC3339, r.URL.Query().Get("endDate"))
	if err1 != nil || err2 != nil {
		httpx.ValidationFailed(w, "Validation failed", []string{"A valid startDate and endDate are required"})
		return
	}

	todos, err := h.Todos.ListInRange(r.Context(), u.ID, start, end)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", todos)
}

// HandleListOverdue returns the caller's incomplete todos whose deadline has
// passed.
//
// GET /todos/overdue
func (h *TodoHandler) HandleListOverdue(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	todos, err := h.Todos.ListOverdue(r.Context(), u.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", todos)
}

func filterFromQuery(r *http.Request) store.TodoFilter {
	q := r.URL.Query()

	f := store.TodoFilter{
		Status:    q.Get("status"),
		Priority:  q.Get("priority"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		f.Page = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = n
	}
	return f
}
