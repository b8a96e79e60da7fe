package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pantry/internal/filter"
	"github.com/starford/pantry/internal/recipeservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *recipeservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *recipeservice.Service) *Handler {
	return &Handler{svc: svc}
}

// pagePath extracts the page path from the URL (everything after /api/pages/).
// Supports encoded slashes (e.g. mains%2Findex.html).
func pagePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListPages handles GET /api/pages.
//
//	@Summary		List captured listing pages
//	@Tags			pages
//	@Produce		json
//	@Success		200	{object}	PageListResponse
//	@Security		BearerAuth
//	@Router			/pages [get]
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.svc.ListPages(r.Context())
	if err != nil {
		writeError(w, "list pages", err)
		return
	}
	writeJSON(w, http.StatusOK, PageListResponse{Pages: pages})
}

// GetPage handles GET /api/pages/*.
//
//	@Summary		Get a captured page with its records
//	@Tags			pages
//	@Produce		json
//	@Param			path	path		string	true	"Page path"
//	@Success		200		{object}	models.Page
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages/{path} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	path := pagePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	page, err := h.svc.GetPage(r.Context(), path)
	if err != nil {
		writeError(w, "get page", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Filter handles GET /api/filter.
//
//	@Summary		Run one filter pass over a captured page
//	@Tags			filter
//	@Produce		json
//	@Param			page	query		string	true	"Page path"
//	@Param			q		query		string	false	"Search text"
//	@Param			prep	query		string	false	"Maximum preparation time"
//	@Param			cook	query		string	false	"Maximum cooking time"
//	@Success		200		{object}	FilterResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/filter [get]
func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := q.Get("page")
	if page == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'page' is required"))
		return
	}
	in := filter.Inputs{Query: q.Get("q"), Prep: q.Get("prep"), Cook: q.Get("cook")}
	res, err := h.svc.Filter(r.Context(), page, in)
	if err != nil {
		writeError(w, "filter", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CreateSession handles POST /api/sessions.
//
//	@Summary		Open a filter session over a captured page
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateSessionRequest	true	"Page to filter"
//	@Success		201		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	s, err := h.svc.OpenSession(r.Context(), req.Page)
	if err != nil {
		writeError(w, "create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// GetSession handles GET /api/sessions/{id}.
//
//	@Summary		Get the current state of a filter session
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// PostEvent handles POST /api/sessions/{id}/events.
//
//	@Summary		Feed a UI input event to a filter session
//	@Description	input and change events are debounced and answered with 202;
//	@Description	Enter and submit run the pass at once and are answered with 200.
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Session id"
//	@Param			body	body		SessionEventRequest	true	"Input event"
//	@Success		200		{object}	SessionResponse
//	@Success		202		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/events [post]
func (h *Handler) PostEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	s, err := h.svc.Session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "post event", err)
		return
	}
	var req SessionEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	applied, err := s.Handle(req.event())
	if err != nil {
		writeError(w, "post event", err)
		return
	}
	status := http.StatusAccepted
	if applied {
		status = http.StatusOK
	}
	writeJSON(w, status, s.Snapshot())
}

// DeleteSession handles DELETE /api/sessions/{id}.
//
//	@Summary		Stop a filter session
//	@Tags			sessions
//	@Param			id	path	string	true	"Session id"
//	@Success		204	"Session stopped"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [delete]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CloseSession(chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
