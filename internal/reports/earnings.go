package reports

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vedicseva/console/internal/backend"
	"github.com/vedicseva/console/internal/table"
	apperrors "github.com/vedicseva/console/pkg/errors"
)

// EarningsFetcher is the platform API surface the earnings screen needs.
type EarningsFetcher interface {
	Earnings(ctx context.Context, params url.Values) ([]map[string]any, error)
}

// EarningsFilters holds the server-side filter state of the earnings screen.
// The zero values are the defaults and are omitted from the query.
type EarningsFilters struct {
	Type      string `json:"type"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// EarningsScreen drives the admin earnings ledger: filtered fetch of the
// earnings history, newest first, with a shaped CSV export.
type EarningsScreen struct {
	client  EarningsFetcher
	logger  *slog.Logger
	browser *table.Browser
	seq     sequence

	filters EarningsFilters
}

func NewEarningsScreen(client EarningsFetcher, logger *slog.Logger) *EarningsScreen {
	return &EarningsScreen{
		client:  client,
		logger:  logger,
		browser: table.NewBrowser(earningsColumns(), nil),
		filters: EarningsFilters{Type: "all"},
	}
}

// Money and date columns sort on the raw field: the display forms (grouped
// rupees, day-first dates) do not order naturally.
func earningsColumns() []table.Column {
	return []table.Column{
		{Name: "Type", Width: "140px", Sortable: true, Selector: func(r table.Row) any { return FormatEarningType(str(r["type"])) }},
		{Name: "Astrologer", Width: "180px", Sortable: true, Selector: func(r table.Row) any { return backend.AstrologerName(r["astrologerId"]) }},
		{Name: "Customer", Width: "180px", Sortable: true, Selector: func(r table.Row) any { return nested(r, "customerId", "customerName") }},
		{Name: "Total Price", Sortable: true, Selector: func(r table.Row) any { return FormatINR(r["totalPrice"]) },
			SortValue: func(r table.Row) any { return r["totalPrice"] }},
		{Name: "Admin Share", Sortable: true, Selector: func(r table.Row) any { return FormatINR(r["adminPrice"]) },
			SortValue: func(r table.Row) any { return r["adminPrice"] }},
		{Name: "Astro Share", Sortable: true, Selector: func(r table.Row) any { return FormatINR(r["partnerPrice"]) },
			SortValue: func(r table.Row) any { return r["partnerPrice"] }},
		{Name: "Duration (min)", Sortable: true, Selector: func(r table.Row) any { return orZero(r["duration"]) },
			SortValue: func(r table.Row) any { return r["duration"] }},
		{Name: "Date", Sortable: true, Selector: func(r table.Row) any { return formatDay(r["createdAt"]) },
			SortValue: func(r table.Row) any { return str(r["createdAt"]) }},
	}
}

// Filters returns the current filter state.
func (s *EarningsScreen) Filters() EarningsFilters {
	return s.filters
}

// Browser exposes the row buffer for search, paging and expansion.
func (s *EarningsScreen) Browser() *table.Browser {
	return s.browser
}

// SetType sets the earning-type filter. "all" clears it.
func (s *EarningsScreen) SetType(t string) {
	s.filters.Type = t
}

// SetDateRange updates the date filters. A from date later than the to date
// is rejected at the boundary and the prior state is kept.
func (s *EarningsScreen) SetDateRange(from, to string) error {
	if from != "" && to != "" && from > to {
		return apperrors.InvalidField("startDate", "start date cannot be after end date")
	}
	s.filters.StartDate = from
	s.filters.EndDate = to
	return nil
}

// ClearFilters resets the filter state to the defaults.
func (s *EarningsScreen) ClearFilters() {
	s.filters = EarningsFilters{Type: "all"}
	s.browser.Search("")
}

// queryParams builds the fetch query from non-default filter values only.
func (s *EarningsScreen) queryParams() url.Values {
	params := url.Values{}
	if s.filters.StartDate != "" {
		params.Set("startDate", s.filters.StartDate)
	}
	if s.filters.EndDate != "" {
		params.Set("endDate", s.filters.EndDate)
	}
	if s.filters.Type != "" && s.filters.Type != "all" {
		params.Set("type", s.filters.Type)
	}
	return params
}

// Refresh fetches the earnings history for the current filters. A fetch
// failure degrades to an empty ledger. A response superseded by a newer
// refresh is discarded.
func (s *EarningsScreen) Refresh(ctx context.Context) error {
	token := s.seq.next()

	rows, err := s.client.Earnings(ctx, s.queryParams())
	if !s.seq.latest(token) {
		return nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "earnings fetch failed", slog.String("error", err.Error()))
		s.browser.SetRows(nil)
		return err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return earningsCreatedAt(rows[j]).Before(earningsCreatedAt(rows[i]))
	})
	s.browser.SetRows(rows)
	return nil
}

func earningsCreatedAt(row map[string]any) time.Time {
	raw, _ := row["createdAt"].(string)
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ExportCSV writes the full ledger in its report shape, serial numbers and
// identifier columns included.
func (s *EarningsScreen) ExportCSV() ([]byte, error) {
	serial := 0
	return s.browser.ExportShapedCSV([]table.ExportColumn{
		{Header: "S.No.", Selector: func(table.Row) any { serial++; return serial }},
		{Header: "Type", Selector: func(r table.Row) any { return FormatEarningType(str(r["type"])) }},
		{Header: "Astrologer", Selector: func(r table.Row) any { return backend.AstrologerName(r["astrologerId"]) }},
		{Header: "Customer Name", Selector: func(r table.Row) any { return nested(r, "customerId", "customerName") }},
		{Header: "Customer Email", Selector: func(r table.Row) any { return nested(r, "customerId", "email") }},
		{Header: "Total Price", Selector: func(r table.Row) any { return r["totalPrice"] }},
		{Header: "Admin Share", Selector: func(r table.Row) any { return r["adminPrice"] }},
		{Header: "Astro Share", Selector: func(r table.Row) any { return r["partnerPrice"] }},
		{Header: "Duration (min)", Selector: func(r table.Row) any { return orZero(r["duration"]) }},
		{Header: "Date", Selector: func(r table.Row) any { return formatDay(r["createdAt"]) }},
		{Header: "Astrologer ID", Selector: func(r table.Row) any { return referenceID(r["astrologerId"]) }},
		{Header: "Customer ID", Selector: func(r table.Row) any { return nested(r, "customerId", "_id") }},
		{Header: "Transaction ID", Selector: func(r table.Row) any { return orNA(str(r["transactionId"])) }},
	})
}

// FormatEarningType maps internal earning-type codes to their display labels.
// Unknown codes are shown capitalized.
func FormatEarningType(t string) string {
	switch t {
	case "live_video_call":
		return "Live Call"
	case "consultation":
		return "Consultation"
	case "puja":
		return "Puja"
	case "":
		return ""
	}
	return strings.ToUpper(t[:1]) + t[1:]
}

// FormatINR renders an amount as Indian rupees with lakh/crore digit
// grouping, always with two decimals.
func FormatINR(amount any) string {
	var n float64
	switch v := amount.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case string:
		n, _ = strconv.ParseFloat(v, 64)
	}

	negative := n < 0
	if negative {
		n = -n
	}

	whole := int64(n)
	frac := int64((n-float64(whole))*100 + 0.5)
	if frac == 100 {
		whole++
		frac = 0
	}

	digits := strconv.FormatInt(whole, 10)
	grouped := digits
	if len(digits) > 3 {
		// Last group of three, then groups of two.
		head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		if head != "" {
			parts = append([]string{head}, parts...)
		}
		grouped = strings.Join(append(parts, tail), ",")
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s₹%s.%02d", sign, grouped, frac)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func nested(r table.Row, key, field string) string {
	obj, ok := r[key].(map[string]any)
	if !ok {
		return "N/A"
	}
	return orNA(str(obj[field]))
}

func referenceID(v any) string {
	switch ref := v.(type) {
	case string:
		return orNA(ref)
	case map[string]any:
		return orNA(str(ref["_id"]))
	}
	return "N/A"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orZero(v any) any {
	if v == nil {
		return 0
	}
	return v
}

func formatDay(v any) string {
	raw, _ := v.(string)
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return "N/A"
	}
	return t.Format("02/01/2006")
}
