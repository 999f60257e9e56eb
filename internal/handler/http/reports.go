package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vedicseva/console/internal/backend"
	"github.com/vedicseva/console/internal/reports"
	"github.com/vedicseva/console/internal/table"
	apperrors "github.com/vedicseva/console/pkg/errors"
	"github.com/vedicseva/console/pkg/httputil"
)

// ReportsHandler serves the earnings ledger and the report-order queue. The
// screens hold single-writer state, so every request on a screen is
// serialized through its mutex; the debouncer coalesces refetches triggered
// by rapid filter changes.
type ReportsHandler struct {
	logger *slog.Logger

	earningsMu       sync.Mutex
	earnings         *reports.EarningsScreen
	earningsDebounce *reports.Debouncer

	ordersMu sync.Mutex
	orders   *reports.OrdersScreen
}

func NewReportsHandler(earnings *reports.EarningsScreen, orders *reports.OrdersScreen, logger *slog.Logger) *ReportsHandler {
	return &ReportsHandler{
		logger:           logger,
		earnings:         earnings,
		earningsDebounce: reports.NewDebouncer(reports.DebounceDelay),
		orders:           orders,
	}
}

// --- Earnings ---

type earningsResponse struct {
	Rows       []table.Row             `json:"rows"`
	Filters    reports.EarningsFilters `json:"filters"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"pageSize"`
	TotalPages int                     `json:"totalPages"`
	TotalRows  int                     `json:"totalRows"`
	SortBy     string                  `json:"sortBy"`
	SortAsc    bool                    `json:"sortAsc"`
}

// GetEarnings handles GET /api/reports/earnings. Query changes apply before
// the fetch; the free-text q filter, column sorting, and paging are
// client-side over the fetched ledger, served through the column renderers.
func (h *ReportsHandler) GetEarnings(w http.ResponseWriter, r *http.Request) {
	h.earningsMu.Lock()
	defer h.earningsMu.Unlock()

	q := r.URL.Query()
	if q.Has("type") {
		h.earnings.SetType(q.Get("type"))
	}
	if q.Has("startDate") || q.Has("endDate") {
		if err := h.earnings.SetDateRange(q.Get("startDate"), q.Get("endDate")); err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
	}

	if err := h.earnings.Refresh(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	browser := h.earnings.Browser()
	browser.Search(q.Get("q"))
	if q.Has("sortBy") {
		browser.Sort(q.Get("sortBy"), q.Get("sortOrder") != "desc")
	}
	if size, err := strconv.Atoi(q.Get("pageSize")); err == nil {
		browser.SetPageSize(size)
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		browser.SetPage(page)
	}

	rows := browser.RenderVisible()
	if rows == nil {
		rows = []table.Row{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: earningsResponse{
		Rows:       rows,
		Filters:    h.earnings.Filters(),
		Page:       browser.Page(),
		PageSize:   browser.PageSize(),
		TotalPages: browser.TotalPages(),
		TotalRows:  len(browser.Filtered()),
		SortBy:     browser.SortColumn(),
		SortAsc:    browser.SortAscending(),
	}})
}

// UpdateEarningsFilters handles PUT /api/reports/earnings/filters: it applies
// the filter change and schedules a debounced background refetch, so a burst
// of changes costs one platform call.
func (h *ReportsHandler) UpdateEarningsFilters(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type      *string `json:"type"`
		StartDate *string `json:"startDate"`
		EndDate   *string `json:"endDate"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	h.earningsMu.Lock()
	if req.Type != nil {
		h.earnings.SetType(*req.Type)
	}
	if req.StartDate != nil || req.EndDate != nil {
		current := h.earnings.Filters()
		from, to := current.StartDate, current.EndDate
		if req.StartDate != nil {
			from = *req.StartDate
		}
		if req.EndDate != nil {
			to = *req.EndDate
		}
		if err := h.earnings.SetDateRange(from, to); err != nil {
			h.earningsMu.Unlock()
			httputil.WriteError(w, r, err, h.logger)
			return
		}
	}
	filters := h.earnings.Filters()
	h.earningsMu.Unlock()

	h.earningsDebounce.Trigger(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		h.earningsMu.Lock()
		defer h.earningsMu.Unlock()
		if err := h.earnings.Refresh(ctx); err != nil {
			h.logger.Warn("debounced earnings refresh failed", slog.String("error", err.Error()))
		}
	})

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: filters})
}

// ExportEarnings handles GET /api/reports/earnings/export, streaming the full
// ledger as CSV. The ledger is refetched first so the export reflects the
// current filters even while a debounced refresh is still pending.
func (h *ReportsHandler) ExportEarnings(w http.ResponseWriter, r *http.Request) {
	h.earningsMu.Lock()
	defer h.earningsMu.Unlock()

	if err := h.earnings.Refresh(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	out, err := h.earnings.ExportCSV()
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}

	writeCSV(w, table.ExportFilename("admin_earnings", time.Now()), out)
}

// --- Report orders ---

type ordersResponse struct {
	Rows       []table.Row          `json:"rows"`
	Filters    reports.OrderFilters `json:"filters"`
	Pagination backend.Pagination   `json:"pagination"`
	Counts     reports.StatusCounts `json:"counts"`
	// Expanded is the id of the order whose detail row is open, or "".
	Expanded string `json:"expanded"`
}

type orderFiltersRequest struct {
	Query          string `json:"q"`
	From           string `json:"from"`
	To             string `json:"to"`
	Language       string `json:"language"`
	DeliveryStatus string `json:"reportDeliveryStatus"`
	SortBy         string `json:"sortBy"`
	SortOrder      string `json:"sortOrder"`
	Limit          int    `json:"limit"`
	SelectFirstN   int    `json:"selectFirstN"`
}

// GetOrders handles GET /api/reports/orders.
func (h *ReportsHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	h.ordersMu.Lock()
	defer h.ordersMu.Unlock()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if err := h.orders.Refresh(r.Context(), page); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeOrders(w)
}

// UpdateOrderFilters handles PUT /api/reports/orders/filters and refetches
// the first page under the new filters.
func (h *ReportsHandler) UpdateOrderFilters(w http.ResponseWriter, r *http.Request) {
	var req orderFiltersRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	filters := reports.OrderFilters{
		Query:          req.Query,
		From:           req.From,
		To:             req.To,
		Language:       req.Language,
		DeliveryStatus: req.DeliveryStatus,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
		Limit:          req.Limit,
		SelectFirstN:   req.SelectFirstN,
	}
	if filters.Language == "" {
		filters.Language = "all"
	}
	if filters.DeliveryStatus == "" {
		filters.DeliveryStatus = "all"
	}
	if filters.SortBy == "" {
		filters.SortBy = "createdAt"
	}
	if filters.SortOrder == "" {
		filters.SortOrder = "desc"
	}

	h.ordersMu.Lock()
	defer h.ordersMu.Unlock()

	if err := h.orders.SetFilters(filters); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := h.orders.Refresh(r.Context(), 1); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeOrders(w)
}

// ResetOrderFilters handles POST /api/reports/orders/filters/reset.
func (h *ReportsHandler) ResetOrderFilters(w http.ResponseWriter, r *http.Request) {
	h.ordersMu.Lock()
	defer h.ordersMu.Unlock()

	h.orders.ResetFilters()
	if err := h.orders.Refresh(r.Context(), 1); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeOrders(w)
}

// MarkDelivered handles POST /api/reports/orders/{orderId}/deliver.
func (h *ReportsHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("order id is required"), h.logger)
		return
	}

	h.ordersMu.Lock()
	defer h.ordersMu.Unlock()

	if err := h.orders.MarkDelivered(r.Context(), orderID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeOrders(w)
}

// ProcessOrder handles POST /api/reports/orders/{orderId}/process.
func (h *ReportsHandler) ProcessOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("order id is required"), h.logger)
		return
	}

	h.ordersMu.Lock()
	defer h.ordersMu.Unlock()

	if err := h.orders.ProcessReport(r.Context(), orderID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeOrders(w)
}

// ToggleOrderExpansion handles POST /api/reports/orders/{orderId}/expand,
// opening the order's detail row (or closing it when already open).
func (h *ReportsHandler) ToggleOrderExpansion(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("order id is required"), h.logger)
		return
	}

	h.ordersMu.Lock()
	defer h.ordersMu.Unlock()

	if err := h.orders.ToggleExpanded(orderID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeOrders(w)
}

// ProcessAllOrders handles POST /api/reports/orders/process-all, queueing
// every visible non-delivered order.
func (h *ReportsHandler) ProcessAllOrders(w http.ResponseWriter, r *http.Request) {
	h.ordersMu.Lock()
	defer h.ordersMu.Unlock()

	n, err := h.orders.ProcessAllVisible(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]int{"queued": n}})
}

func (h *ReportsHandler) writeOrders(w http.ResponseWriter) {
	rows := h.orders.Browser().Rows()
	if rows == nil {
		rows = []table.Row{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ordersResponse{
		Rows:       rows,
		Filters:    h.orders.Filters(),
		Pagination: h.orders.Pagination(),
		Counts:     h.orders.StatusCounts(),
		Expanded:   h.orders.ExpandedID(),
	}})
}

func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
