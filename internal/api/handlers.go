package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dailycanvas/internal/apperr"
	"github.com/starford/dailycanvas/internal/canvasservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *canvasservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *canvasservice.Service) *Handler {
	return &Handler{svc: svc}
}

// writeError maps domain errors onto status codes. A command that does not
// apply is a refusal, reported without an error body.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrInapplicable):
		writeJSON(w, http.StatusConflict, CommandResponse{Status: "not applicable"})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ActiveCanvas handles GET /api/canvas/active.
//
//	@Summary		Get the canvas shown in the focused pane
//	@Tags			canvas
//	@Produce		json
//	@Success		200	{object}	CanvasDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvas/active [get]
func (h *Handler) ActiveCanvas(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.ActiveCanvas(r.Context())
	if err != nil {
		writeError(w, "active canvas", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Select handles POST /api/canvas/active/selection.
//
//	@Summary		Replace the selection of the active canvas
//	@Tags			canvas
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SelectRequest	true	"Item ids to select"
//	@Success		200		{object}	CanvasDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvas/active/selection [post]
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.IDs == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("ids is required"))
		return
	}
	c, err := h.svc.Select(r.Context(), req.IDs)
	if err != nil {
		writeError(w, "select", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListCommands handles GET /api/commands.
//
//	@Summary		List commands and whether they apply right now
//	@Tags			commands
//	@Produce		json
//	@Success		200	{array}	CommandInfo
//	@Security		BearerAuth
//	@Router			/commands [get]
func (h *Handler) ListCommands(w http.ResponseWriter, r *http.Request) {
	cmds, err := h.svc.Commands(r.Context())
	if err != nil {
		writeError(w, "list commands", err)
		return
	}
	writeJSON(w, http.StatusOK, cmds)
}

// ExecuteCommand handles POST /api/commands/{id}.
//
//	@Summary		Run a command
//	@Tags			commands
//	@Produce		json
//	@Param			id	path		string	true	"Command id"	Enums(open-today, pin-selection, unpin-selection, add-linked-note)
//	@Success		200	{object}	CommandResponse
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	CommandResponse
//	@Security		BearerAuth
//	@Router			/commands/{id} [post]
func (h *Handler) ExecuteCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := h.svc.Execute(r.Context(), id)
	if err != nil {
		writeError(w, "command "+id, err)
		return
	}
	writeJSON(w, http.StatusOK, CommandResponse{Status: "ok", Result: res})
}

// Pins handles GET /api/pins.
//
//	@Summary		List pinned item ids
//	@Tags			pins
//	@Produce		json
//	@Success		200	{object}	PinsResponse
//	@Security		BearerAuth
//	@Router			/pins [get]
func (h *Handler) Pins(w http.ResponseWriter, r *http.Request) {
	st := h.svc.Settings(r.Context())
	writeJSON(w, http.StatusOK, PinsResponse{Pinned: st.PinnedItemIDs})
}

// Rotation handles GET /api/rotation.
//
//	@Summary		Get the rotation record
//	@Tags			rotation
//	@Produce		json
//	@Success		200	{object}	RotationResponse
//	@Security		BearerAuth
//	@Router			/rotation [get]
func (h *Handler) Rotation(w http.ResponseWriter, r *http.Request) {
	st := h.svc.Settings(r.Context())
	writeJSON(w, http.StatusOK, RotationResponse{Folder: st.DailyResourceFolder, LatestRotationKey: st.LatestRotationKey})
}

// Rotations handles GET /api/rotations.
//
//	@Summary		List daily canvases, newest first
//	@Tags			rotation
//	@Produce		json
//	@Param			limit	query		int	false	"Max results"
//	@Success		200		{object}	RotationsResponse
//	@Security		BearerAuth
//	@Router			/rotations [get]
func (h *Handler) Rotations(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rots, err := h.svc.Rotations(r.Context(), limit)
	if err != nil {
		writeError(w, "rotations", err)
		return
	}
	writeJSON(w, http.StatusOK, RotationsResponse{Rotations: rots})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across canvas items
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
