package reports

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/vedicseva/console/internal/backend"
	"github.com/vedicseva/console/internal/table"
	apperrors "github.com/vedicseva/console/pkg/errors"
)

// OrdersClient is the platform API surface the report-orders screen needs.
type OrdersClient interface {
	ReportOrders(ctx context.Context, params url.Values) (*backend.OrdersPage, error)
	MarkDelivered(ctx context.Context, orderID string) error
	ProcessReports(ctx context.Context, reportIDs []string) error
}

// OrderFilters holds the server-side filter state of the report-orders
// screen. Sentinel value "all" and empty strings are omitted from queries.
type OrderFilters struct {
	Query          string `json:"q"`
	From           string `json:"from"`
	To             string `json:"to"`
	Language       string `json:"language"`
	DeliveryStatus string `json:"reportDeliveryStatus"`
	SortBy         string `json:"sortBy"`
	SortOrder      string `json:"sortOrder"`
	Limit          int    `json:"limit"`

	// SelectFirstN, when positive, approximates a "first N pending" query:
	// the fetch is forced to ascending creation order and the returned page
	// is locally filtered to non-delivered rows and truncated to N. This is
	// only correct when the server page already contains at least N
	// non-delivered rows; with Limit smaller than the pending backlog the
	// selection silently misses older rows.
	SelectFirstN int
}

// DefaultOrderFilters returns the screen's initial filter state.
func DefaultOrderFilters() OrderFilters {
	return OrderFilters{
		Language:       "all",
		DeliveryStatus: "all",
		SortBy:         "createdAt",
		SortOrder:      "desc",
		Limit:          100,
	}
}

// OrdersScreen drives the report-delivery order queue: server-paginated
// fetch, manual delivery marking, and report (re)processing.
type OrdersScreen struct {
	client  OrdersClient
	logger  *slog.Logger
	browser *table.Browser
	seq     sequence

	filters    OrderFilters
	page       int
	pagination backend.Pagination
}

func NewOrdersScreen(client OrdersClient, logger *slog.Logger) *OrdersScreen {
	return &OrdersScreen{
		client:  client,
		logger:  logger,
		browser: table.NewBrowser(nil, nil),
		filters: DefaultOrderFilters(),
		page:    1,
	}
}

func (s *OrdersScreen) Filters() OrderFilters { return s.filters }

func (s *OrdersScreen) Browser() *table.Browser { return s.browser }

func (s *OrdersScreen) Pagination() backend.Pagination { return s.pagination }

// SetFilters replaces the filter state. A from date later than the to date is
// rejected at the boundary and the prior state is kept.
func (s *OrdersScreen) SetFilters(f OrderFilters) error {
	if f.From != "" && f.To != "" && f.From > f.To {
		return apperrors.InvalidField("from", "from date cannot be after to date")
	}
	if f.Limit <= 0 {
		f.Limit = DefaultOrderFilters().Limit
	}
	s.filters = f
	s.page = 1
	return nil
}

// ResetFilters restores the defaults.
func (s *OrdersScreen) ResetFilters() {
	s.filters = DefaultOrderFilters()
	s.page = 1
}

// queryParams builds the fetch query from non-default filter values. A
// from date without a to date collapses the range to a single "date"
// parameter. SelectFirstN forces ascending creation order so the oldest
// pending orders land in the fetched page.
func (s *OrdersScreen) queryParams(page int) url.Values {
	f := s.filters

	raw := map[string]string{
		"q":                    f.Query,
		"language":             f.Language,
		"reportDeliveryStatus": f.DeliveryStatus,
		"sortBy":               f.SortBy,
		"sortOrder":            f.SortOrder,
		"page":                 strconv.Itoa(page),
		"limit":                strconv.Itoa(f.Limit),
	}

	switch {
	case f.From != "" && f.To != "":
		raw["from"] = f.From
		raw["to"] = f.To
	case f.From != "":
		raw["date"] = f.From
	case f.To != "":
		raw["to"] = f.To
	}

	if f.SelectFirstN > 0 {
		raw["sortBy"] = "createdAt"
		raw["sortOrder"] = "asc"
	}

	params := url.Values{}
	for key, value := range raw {
		if value != "" && value != "all" {
			params.Set(key, value)
		}
	}
	return params
}

// Refresh fetches the given server page for the current filters. A response
// superseded by a newer refresh is discarded; a failed fetch degrades to an
// empty queue.
func (s *OrdersScreen) Refresh(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	token := s.seq.next()

	result, err := s.client.ReportOrders(ctx, s.queryParams(page))
	if !s.seq.latest(token) {
		return nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "report orders fetch failed", slog.String("error", err.Error()))
		s.browser.SetRows(nil)
		s.pagination = backend.Pagination{Page: 1, Pages: 1}
		return err
	}

	items := result.Items
	if n := s.filters.SelectFirstN; n > 0 {
		pending := make([]table.Row, 0, len(items))
		for _, row := range items {
			if str(row["reportDeliveryStatus"]) != "delivered" {
				pending = append(pending, row)
			}
		}
		if len(pending) > n {
			pending = pending[:n]
		}
		items = pending
	}

	s.page = result.Pagination.Page
	s.pagination = result.Pagination
	s.browser.SetRows(items)
	return nil
}

// MarkDelivered manually marks a failed order delivered and refetches the
// current page.
func (s *OrdersScreen) MarkDelivered(ctx context.Context, orderID string) error {
	if err := s.client.MarkDelivered(ctx, orderID); err != nil {
		return err
	}
	return s.Refresh(ctx, s.page)
}

// ProcessReport queues one order for report (re)generation.
func (s *OrdersScreen) ProcessReport(ctx context.Context, orderID string) error {
	if err := s.client.ProcessReports(ctx, []string{orderID}); err != nil {
		return err
	}
	return s.Refresh(ctx, s.page)
}

// ProcessAllVisible queues every fetched non-delivered order. It fails when
// everything visible is already delivered.
func (s *OrdersScreen) ProcessAllVisible(ctx context.Context) (int, error) {
	ids := make([]string, 0, len(s.browser.Rows()))
	for _, row := range s.browser.Rows() {
		id := str(row["_id"])
		if id != "" && str(row["reportDeliveryStatus"]) != "delivered" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, apperrors.InvalidInput("all visible reports are already delivered")
	}

	if err := s.client.ProcessReports(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), s.Refresh(ctx, s.page)
}

// ToggleExpanded expands the detail row of the given visible order,
// collapsing any other. Toggling the already-expanded order collapses it.
func (s *OrdersScreen) ToggleExpanded(orderID string) error {
	for _, row := range s.browser.Rows() {
		if table.RowKey(row) == orderID {
			s.browser.ToggleExpand(row)
			return nil
		}
	}
	return apperrors.NotFound("report order", orderID)
}

// ExpandedID returns the id of the expanded order, or "".
func (s *OrdersScreen) ExpandedID() string {
	return s.browser.Expanded()
}

// StatusCounts tallies the delivery statuses of the fetched rows.
type StatusCounts struct {
	Pending   int
	Failed    int
	Delivered int
}

func (s *OrdersScreen) StatusCounts() StatusCounts {
	var counts StatusCounts
	for _, row := range s.browser.Rows() {
		switch str(row["reportDeliveryStatus"]) {
		case "pending":
			counts.Pending++
		case "failed":
			counts.Failed++
		case "delivered":
			counts.Delivered++
		}
	}
	return counts
}

// SerialNumber returns the display serial for the i-th visible row, offset by
// the server page.
func (s *OrdersScreen) SerialNumber(i int) int {
	return (s.pagination.Page-1)*s.filters.Limit + i + 1
}
