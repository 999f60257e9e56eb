package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedicseva/console/internal/config"
	apperrors "github.com/vedicseva/console/pkg/errors"
	"github.com/vedicseva/console/pkg/httpclient"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIBaseURL:   srv.URL,
		MediaBaseURL: srv.URL,
		ServiceToken: "test-token",
	}

	hcCfg := httpclient.DefaultConfig()
	hcCfg.MaxRetries = 0
	hcCfg.Timeout = 5 * time.Second
	hc := httpclient.NewCircuitBreakerClient(
		httpclient.New(hcCfg),
		httpclient.DefaultCircuitBreakerConfig("backend-test"),
		slog.Default(),
	)

	return New(cfg, hc, nil, slog.Default()), srv
}

func TestCategories(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/puja/get_puja_category", r.URL.Path)
		_, _ = w.Write([]byte(`{"results":[{"_id":"c1","categoryName":"Graha Shanti"}]}`))
	}))

	got, err := c.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "Graha Shanti", got[0].Name)
}

func TestGetResource_DataEnvelope(t *testing.T) {
	c, srv := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/puja-new/get_puja_by/p1", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"_id":"p1","title":"Satyanarayan Puja","price":2100,"imageUrl":"uploads/p1.jpg"}}`))
	}))

	rec, err := c.GetResource(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", rec.ID)
	assert.Equal(t, "Satyanarayan Puja", rec.Name)
	assert.Equal(t, "2100", rec.Price)
	assert.Equal(t, srv.URL+"/uploads/p1.jpg", rec.ImageURL)
}

func TestGetResource_NotFound(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Puja not found"}`))
	}))

	_, err := c.GetResource(context.Background(), "missing")
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestCreateResource_PassesBodyThrough(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/puja-new/create_puja", r.URL.Path)
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))

	err := c.CreateResource(context.Background(), "multipart/form-data; boundary=xyz", []byte("--xyz--"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data; boundary=xyz", gotContentType)
	assert.Equal(t, "--xyz--", string(gotBody))
}

func TestEarnings_ForwardsFilterParams(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/get_admin_earnig_history2", r.URL.Path)
		assert.Equal(t, "puja", r.URL.Query().Get("type"))
		assert.Equal(t, "2025-03-01", r.URL.Query().Get("startDate"))
		_, _ = w.Write([]byte(`{"history":[{"amount":500,"type":"puja"}]}`))
	}))

	params := map[string][]string{
		"type":      {"puja"},
		"startDate": {"2025-03-01"},
	}
	rows, err := c.Earnings(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, float64(500), rows[0]["amount"])
}

func TestReportOrders_BearerAndPagination(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"items":[{"_id":"o1"}],"pagination":{"page":2,"pages":5,"total":48}}}`))
	}))

	page, err := c.ReportOrders(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Equal(t, 5, page.Pagination.Pages)
	assert.Equal(t, 48, page.Pagination.Total)
	require.Len(t, page.Items, 1)
}

func TestReportOrders_UnsuccessfulEnvelope(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"token expired"}`))
	}))

	_, err := c.ReportOrders(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestProcessReports(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/life-journey-report/process-lcr-reports", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"o1", "o2"}, body["reportIds"])
		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	require.NoError(t, c.ProcessReports(context.Background(), []string{"o1", "o2"}))
}

func TestMarkDelivered(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/admin/update-status/o9", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	require.NoError(t, c.MarkDelivered(context.Background(), "o9"))
}

func TestAvailableSlots(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-03-10", r.URL.Query().Get("date"))
		assert.Equal(t, "#LJR-", r.URL.Query().Get("prefix"))
		assert.Empty(t, r.URL.Query().Get("astrologerId"))
		_, _ = w.Write([]byte(`{
			"success": true,
			"slots": [{"time":"10:00AM-10:20AM","capacity":3,"availableAstrologers":[{"_id":"a1","name":"Sharma"}]}],
			"astrologers": [{"_id":"a1","name":"Sharma","reportTypes":["LJR"]}]
		}`))
	}))

	got, err := c.AvailableSlots(context.Background(), "2025-03-10", "#LJR-", "")
	require.NoError(t, err)
	require.Len(t, got.Slots, 1)
	assert.Equal(t, "10:00AM-10:20AM", got.Slots[0].Time)
	assert.Equal(t, 3, got.Slots[0].Capacity)
	require.Len(t, got.Astrologers, 1)
	assert.Equal(t, "Sharma", got.Astrologers[0].Name)
}

func TestBlockedSlots_UnsuccessfulDegradesToEmpty(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "global", r.URL.Query().Get("astrologerId"))
		_, _ = w.Write([]byte(`{"success":false}`))
	}))

	got, err := c.BlockedSlots(context.Background(), "2025-03-10", "#LJR-", "global")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBlockSlot_GlobalSendsNullAstrologer(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2025-03-10", body["date"])
		assert.Equal(t, "Admin", body["blockedBy"])
		v, present := body["astrologerId"]
		assert.True(t, present)
		assert.Nil(t, v)

		_, _ = w.Write([]byte(`{"success":true,"blockedSlot":{"_id":"b1","timeRange":"10:00AM-10:20AM","isActive":true}}`))
	}))

	slot, err := c.BlockSlot(context.Background(), BlockSlotRequest{
		Date:      "2025-03-10",
		TimeRange: "10:00AM-10:20AM",
		Prefix:    "#LJR-",
		BlockedBy: "Admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "b1", slot.ID)
	assert.True(t, slot.IsActive)
}

func TestUnblockSlot_UpstreamFailure(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/life-journey-report/blocked-slots/b1", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":false,"message":"slot already unblocked"}`))
	}))

	err := c.UnblockSlot(context.Background(), "b1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slot already unblocked")
}
