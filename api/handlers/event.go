package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/eventually/api"
	"github.com/BaSui01/eventually/internal/database"
	"github.com/BaSui01/eventually/internal/model"
	"github.com/BaSui01/eventually/internal/repository"
	"github.com/BaSui01/eventually/types"
	"github.com/go-chi/chi/v5"
)

// =============================================================================
// 📅 活动 Handler
// =============================================================================

// EventHandler /api/event 端点。删除为软删除，已删除的活动视为不存在。
type EventHandler struct {
	db     SessionProvider
	errors ErrorWriter
	now    func() time.Time
}

// NewEventHandler 创建活动处理器
func NewEventHandler(db SessionProvider, ew ErrorWriter) *EventHandler {
	return &EventHandler{db: db, errors: ew, now: time.Now}
}

// Routes 挂载活动端点
func (h *EventHandler) Routes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Get("/upcoming", h.HandleUpcoming)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.HandleGet)
	r.Delete("/{id}", h.HandleDelete)
}

func eventNotFound(id uint) error {
	return types.NewNotFoundError(fmt.Sprintf("Event with id %d not found", id)).
		WithDetail("id", id)
}

// HandleList GET /api/event/?search=&limit=&offset=，日期倒序。
// 也可按 start&end（YYYY-MM-DD，闭区间，日期升序）或 location 过滤，三种条件互斥。
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := ParsePage(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	filter, err := parseEventFilter(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	var out []api.EventSummary
	err = h.db.WithSession(r.Context(), func(ctx context.Context, s *database.Session) error {
		repo := repository.NewEventRepository(s)
		var events []model.Event
		var err error
		switch {
		case filter.dateRange:
			events, err = repo.FindByDateRange(ctx, filter.start, filter.end, page.Limit, page.Offset)
		case filter.location != "":
			events, err = repo.FindByLocation(ctx, filter.location, page.Limit, page.Offset)
		default:
			events, err = repo.Search(ctx, filter.search, page.Limit, page.Offset)
		}
		out = api.EventSummaries(events)
		return err
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

type eventFilter struct {
	search    string
	location  string
	dateRange bool
	start     time.Time
	end       time.Time
}

func parseEventFilter(r *http.Request) (eventFilter, error) {
	q := r.URL.Query()
	f := eventFilter{
		search:   strings.TrimSpace(q.Get("search")),
		location: strings.TrimSpace(q.Get("location")),
	}
	rawStart, rawEnd := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))

	if rawStart != "" || rawEnd != "" {
		if rawStart == "" || rawEnd == "" {
			return f, types.NewValidationError("start and end must be given together").
				WithDetail("start", rawStart).WithDetail("end", rawEnd)
		}
		var err error
		if f.start, err = time.Parse(model.DateLayout, rawStart); err != nil {
			return f, types.NewValidationError("invalid query parameter").WithDetail("start", "must be YYYY-MM-DD")
		}
		if f.end, err = time.Parse(model.DateLayout, rawEnd); err != nil {
			return f, types.NewValidationError("invalid query parameter").WithDetail("end", "must be YYYY-MM-DD")
		}
		if f.end.Before(f.start) {
			return f, types.NewValidationError("end must not be before start").
				WithDetail("start", rawStart).WithDetail("end", rawEnd)
		}
		f.dateRange = true
	}

	if (f.search != "" && (f.location != "" || f.dateRange)) || (f.location != "" && f.dateRange) {
		return f, types.NewValidationError("event filters cannot be combined").
			WithDetail("filters", "use one of search, location, start/end")
	}
	return f, nil
}

// HandleUpcoming GET /api/event/upcoming?limit=
func (h *EventHandler) HandleUpcoming(w http.ResponseWriter, r *http.Request) {
	limit, err := QueryInt(r, "limit", DefaultLimit, 1, MaxLimit)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	var out []api.EventSummary
	err = h.db.WithSession(r.Context(), func(ctx context.Context, s *database.Session) error {
		events, err := repository.NewEventRepository(s).FindUpcoming(ctx, h.now(), limit)
		out = api.EventSummaries(events)
		return err
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

// HandleCreate POST /api/event/
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.EventCreate
	if err := DecodeJSONBody(w, r, &req); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	event, err := req.Model()
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	err = h.db.WithTransaction(r.Context(), func(ctx context.Context, s *database.Session) error {
		return repository.NewEventRepository(s).Create(ctx, event)
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, api.NewEventResponse(event))
}

// HandleGet GET /api/event/{id}
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	var resp api.EventResponse
	err = h.db.WithSession(r.Context(), func(ctx context.Context, s *database.Session) error {
		e, found, err := repository.NewEventRepository(s).GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !found || e.DeletedAt != nil {
			return eventNotFound(id)
		}
		resp = api.NewEventResponse(e)
		return nil
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// HandleDelete DELETE /api/event/{id}，软删除
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	err = h.db.WithTransaction(r.Context(), func(ctx context.Context, s *database.Session) error {
		deleted, err := repository.NewEventRepository(s).SoftDelete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return eventNotFound(id)
		}
		return nil
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
