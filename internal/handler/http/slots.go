package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vedicseva/console/internal/backend"
	"github.com/vedicseva/console/internal/reports"
	apperrors "github.com/vedicseva/console/pkg/errors"
	"github.com/vedicseva/console/pkg/httputil"
)

// SlotsHandler serves the consultation slot board. Board state is
// single-writer, so requests are serialized through the handler mutex.
type SlotsHandler struct {
	logger *slog.Logger

	mu    sync.Mutex
	board *reports.SlotBoard
}

func NewSlotsHandler(board *reports.SlotBoard, logger *slog.Logger) *SlotsHandler {
	return &SlotsHandler{logger: logger, board: board}
}

type slotBoardResponse struct {
	Date          string                 `json:"date"`
	Prefix        string                 `json:"prefix"`
	Astrologer    string                 `json:"astrologer"`
	QuickDates    []string               `json:"quickDates"`
	Prefixes      []reports.ReportPrefix `json:"prefixes"`
	Slots         []reports.Slot         `json:"slots"`
	Astrologers   []backend.Astrologer   `json:"astrologers"`
	SelectionMode bool                   `json:"selectionMode"`
	Selected      []string               `json:"selected"`
}

type slotActionRequest struct {
	TimeRange string `json:"timeRange" validate:"required"`
}

// GetBoard handles GET /api/slots. Filter query parameters apply before the
// fetch; changing any filter drops the current selection.
func (h *SlotsHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	q := r.URL.Query()
	h.board.SetFilters(q.Get("date"), q.Get("prefix"), q.Get("astrologerId"))

	if err := h.board.Refresh(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeBoard(w)
}

// BlockSlot handles POST /api/slots/block.
func (h *SlotsHandler) BlockSlot(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAction(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.board.Block(r.Context(), req.TimeRange); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeBoard(w)
}

// UnblockSlot handles POST /api/slots/unblock.
func (h *SlotsHandler) UnblockSlot(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAction(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.board.Unblock(r.Context(), req.TimeRange); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeBoard(w)
}

// ToggleSelectionMode handles POST /api/slots/selection/mode.
func (h *SlotsHandler) ToggleSelectionMode(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.board.ToggleSelectionMode()
	h.writeBoard(w)
}

// ToggleSlotSelection handles POST /api/slots/selection/toggle.
func (h *SlotsHandler) ToggleSlotSelection(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAction(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.board.ToggleSlot(req.TimeRange)
	h.writeBoard(w)
}

// BulkAction handles POST /api/slots/bulk with {"action":"block"|"unblock"}.
// Each selected slot is attempted independently; the response carries the
// success and failure tallies.
func (h *SlotsHandler) BulkAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var result reports.BulkResult
	var err error
	switch req.Action {
	case "block":
		result, err = h.board.BulkBlock(r.Context())
	case "unblock":
		result, err = h.board.BulkUnblock(r.Context())
	default:
		err = apperrors.InvalidInput("action must be block or unblock")
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

func (h *SlotsHandler) decodeAction(w http.ResponseWriter, r *http.Request) (slotActionRequest, bool) {
	var req slotActionRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return req, false
	}
	if req.TimeRange == "" {
		httputil.WriteError(w, r, apperrors.InvalidField("timeRange", "time range is required"), h.logger)
		return req, false
	}
	return req, true
}

func (h *SlotsHandler) writeBoard(w http.ResponseWriter) {
	slots := h.board.Slots()
	if slots == nil {
		slots = []reports.Slot{}
	}
	astrologers := h.board.Astrologers()
	if astrologers == nil {
		astrologers = []backend.Astrologer{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: slotBoardResponse{
		Date:          h.board.Date(),
		Prefix:        h.board.Prefix(),
		Astrologer:    h.board.Astrologer(),
		QuickDates:    reports.QuickPickDates(time.Now()),
		Prefixes:      reports.ReportPrefixes,
		Slots:         slots,
		Astrologers:   astrologers,
		SelectionMode: h.board.SelectionMode(),
		Selected:      h.board.Selected(),
	}})
}
