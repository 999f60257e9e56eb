package reports

import (
	"context"
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedicseva/console/internal/backend"
)

type fakeOrdersClient struct {
	pages      []*backend.OrdersPage
	lastParams url.Values
	delivered  []string
	processed  [][]string
	fetchErr   error
	deliverErr error
	processErr error
	fetchCalls int
}

func (f *fakeOrdersClient) ReportOrders(ctx context.Context, params url.Values) (*backend.OrdersPage, error) {
	f.lastParams = params
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.pages) == 0 {
		return &backend.OrdersPage{Pagination: backend.Pagination{Page: 1, Pages: 1}}, nil
	}
	page := f.pages[0]
	if len(f.pages) > 1 {
		f.pages = f.pages[1:]
	}
	return page, nil
}

func (f *fakeOrdersClient) MarkDelivered(ctx context.Context, orderID string) error {
	if f.deliverErr != nil {
		return f.deliverErr
	}
	f.delivered = append(f.delivered, orderID)
	return nil
}

func (f *fakeOrdersClient) ProcessReports(ctx context.Context, reportIDs []string) error {
	if f.processErr != nil {
		return f.processErr
	}
	f.processed = append(f.processed, reportIDs)
	return nil
}

func TestOrdersQueryParams_OmitsSentinels(t *testing.T) {
	s := NewOrdersScreen(nil, slog.Default())

	params := s.queryParams(1)
	assert.False(t, params.Has("language"), "default 'all' must be omitted")
	assert.False(t, params.Has("reportDeliveryStatus"))
	assert.False(t, params.Has("q"))
	assert.Equal(t, "createdAt", params.Get("sortBy"))
	assert.Equal(t, "desc", params.Get("sortOrder"))
	assert.Equal(t, "1", params.Get("page"))
	assert.Equal(t, "100", params.Get("limit"))
}

func TestOrdersQueryParams_FromOnlyBecomesDate(t *testing.T) {
	s := NewOrdersScreen(nil, slog.Default())

	f := DefaultOrderFilters()
	f.From = "2025-03-01"
	require.NoError(t, s.SetFilters(f))

	params := s.queryParams(1)
	assert.Equal(t, "2025-03-01", params.Get("date"))
	assert.False(t, params.Has("from"))
	assert.False(t, params.Has("to"))

	f.To = "2025-03-05"
	require.NoError(t, s.SetFilters(f))
	params = s.queryParams(1)
	assert.Equal(t, "2025-03-01", params.Get("from"))
	assert.Equal(t, "2025-03-05", params.Get("to"))
	assert.False(t, params.Has("date"))
}

func TestOrdersQueryParams_SelectFirstNForcesOldestFirst(t *testing.T) {
	s := NewOrdersScreen(nil, slog.Default())

	f := DefaultOrderFilters()
	f.SortOrder = "desc"
	f.SelectFirstN = 5
	require.NoError(t, s.SetFilters(f))

	params := s.queryParams(1)
	assert.Equal(t, "createdAt", params.Get("sortBy"))
	assert.Equal(t, "asc", params.Get("sortOrder"))
}

func TestOrdersSetFilters_RejectsInvertedRange(t *testing.T) {
	s := NewOrdersScreen(nil, slog.Default())

	f := DefaultOrderFilters()
	f.From = "2025-03-10"
	f.To = "2025-03-01"
	err := s.SetFilters(f)
	require.Error(t, err)
	assert.Empty(t, s.Filters().From)
}

func TestOrdersRefresh_SelectFirstNTruncatesNonDelivered(t *testing.T) {
	client := &fakeOrdersClient{pages: []*backend.OrdersPage{{
		Items: []map[string]any{
			{"_id": "o1", "reportDeliveryStatus": "delivered"},
			{"_id": "o2", "reportDeliveryStatus": "pending"},
			{"_id": "o3", "reportDeliveryStatus": "failed"},
			{"_id": "o4", "reportDeliveryStatus": "pending"},
			{"_id": "o5", "reportDeliveryStatus": "pending"},
		},
		Pagination: backend.Pagination{Page: 1, Pages: 1, Total: 5},
	}}}
	s := NewOrdersScreen(client, slog.Default())

	f := DefaultOrderFilters()
	f.SelectFirstN = 2
	require.NoError(t, s.SetFilters(f))
	require.NoError(t, s.Refresh(context.Background(), 1))

	rows := s.Browser().Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "o2", rows[0]["_id"])
	assert.Equal(t, "o3", rows[1]["_id"])
}

func TestOrdersRefresh_FailureDegradesToEmpty(t *testing.T) {
	client := &fakeOrdersClient{fetchErr: assert.AnError}
	s := NewOrdersScreen(client, slog.Default())

	require.Error(t, s.Refresh(context.Background(), 1))
	assert.Empty(t, s.Browser().Rows())
	assert.Equal(t, 1, s.Pagination().Pages)
}

func TestOrdersMarkDelivered_Refetches(t *testing.T) {
	client := &fakeOrdersClient{}
	s := NewOrdersScreen(client, slog.Default())

	require.NoError(t, s.MarkDelivered(context.Background(), "o7"))
	assert.Equal(t, []string{"o7"}, client.delivered)
	assert.Equal(t, 1, client.fetchCalls)
}

func TestOrdersProcessAllVisible(t *testing.T) {
	client := &fakeOrdersClient{pages: []*backend.OrdersPage{{
		Items: []map[string]any{
			{"_id": "o1", "reportDeliveryStatus": "delivered"},
			{"_id": "o2", "reportDeliveryStatus": "pending"},
			{"_id": "o3", "reportDeliveryStatus": "failed"},
		},
		Pagination: backend.Pagination{Page: 1, Pages: 1},
	}}}
	s := NewOrdersScreen(client, slog.Default())
	require.NoError(t, s.Refresh(context.Background(), 1))

	n, err := s.ProcessAllVisible(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, client.processed, 1)
	assert.Equal(t, []string{"o2", "o3"}, client.processed[0])
}

func TestOrdersProcessAllVisible_NothingPending(t *testing.T) {
	client := &fakeOrdersClient{pages: []*backend.OrdersPage{{
		Items:      []map[string]any{{"_id": "o1", "reportDeliveryStatus": "delivered"}},
		Pagination: backend.Pagination{Page: 1, Pages: 1},
	}}}
	s := NewOrdersScreen(client, slog.Default())
	require.NoError(t, s.Refresh(context.Background(), 1))

	_, err := s.ProcessAllVisible(context.Background())
	require.Error(t, err)
	assert.Empty(t, client.processed)
}

func TestOrdersToggleExpanded(t *testing.T) {
	client := &fakeOrdersClient{pages: []*backend.OrdersPage{{
		Items: []map[string]any{
			{"_id": "o1", "reportDeliveryStatus": "pending"},
			{"_id": "o2", "reportDeliveryStatus": "pending"},
		},
		Pagination: backend.Pagination{Page: 1, Pages: 1},
	}}}
	s := NewOrdersScreen(client, slog.Default())
	require.NoError(t, s.Refresh(context.Background(), 1))

	require.NoError(t, s.ToggleExpanded("o1"))
	assert.Equal(t, "o1", s.ExpandedID())

	// Expanding another order collapses the first.
	require.NoError(t, s.ToggleExpanded("o2"))
	assert.Equal(t, "o2", s.ExpandedID())

	// Toggling the open order collapses it.
	require.NoError(t, s.ToggleExpanded("o2"))
	assert.Empty(t, s.ExpandedID())

	err := s.ToggleExpanded("missing")
	require.Error(t, err)
}

func TestOrdersToggleExpanded_CollapsedByRefetch(t *testing.T) {
	page := &backend.OrdersPage{
		Items:      []map[string]any{{"_id": "o1", "reportDeliveryStatus": "pending"}},
		Pagination: backend.Pagination{Page: 1, Pages: 1},
	}
	client := &fakeOrdersClient{pages: []*backend.OrdersPage{page, page}}
	s := NewOrdersScreen(client, slog.Default())
	require.NoError(t, s.Refresh(context.Background(), 1))

	require.NoError(t, s.ToggleExpanded("o1"))
	require.NoError(t, s.Refresh(context.Background(), 1))
	assert.Empty(t, s.ExpandedID())
}

func TestOrdersStatusCounts(t *testing.T) {
	client := &fakeOrdersClient{pages: []*backend.OrdersPage{{
		Items: []map[string]any{
			{"reportDeliveryStatus": "pending"},
			{"reportDeliveryStatus": "pending"},
			{"reportDeliveryStatus": "failed"},
			{"reportDeliveryStatus": "delivered"},
		},
		Pagination: backend.Pagination{Page: 1, Pages: 1},
	}}}
	s := NewOrdersScreen(client, slog.Default())
	require.NoError(t, s.Refresh(context.Background(), 1))

	counts := s.StatusCounts()
	assert.Equal(t, StatusCounts{Pending: 2, Failed: 1, Delivered: 1}, counts)
}

func TestOrdersSerialNumber_OffsetByServerPage(t *testing.T) {
	client := &fakeOrdersClient{pages: []*backend.OrdersPage{{
		Items:      []map[string]any{{"_id": "o1"}},
		Pagination: backend.Pagination{Page: 3, Pages: 5},
	}}}
	s := NewOrdersScreen(client, slog.Default())
	require.NoError(t, s.Refresh(context.Background(), 3))

	assert.Equal(t, 201, s.SerialNumber(0))
	assert.Equal(t, 202, s.SerialNumber(1))
}
