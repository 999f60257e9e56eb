package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/vedicseva/console/internal/cache"
	"github.com/vedicseva/console/internal/config"
	"github.com/vedicseva/console/internal/editor"
	apperrors "github.com/vedicseva/console/pkg/errors"
	"github.com/vedicseva/console/pkg/httpclient"
)

const categoriesCacheKey = "console:categories"

// Client is the typed client for the platform REST API. All calls go through
// the retrying HTTP client and circuit breaker; all loose response shapes are
// normalized here before they reach the rest of the console.
type Client struct {
	cfg    *config.Config
	http   *httpclient.CircuitBreakerClient
	cache  *cache.Cache
	logger *slog.Logger
}

// New creates a platform API client. cache may be nil to disable caching.
func New(cfg *config.Config, hc *httpclient.CircuitBreakerClient, c *cache.Cache, logger *slog.Logger) *Client {
	return &Client{cfg: cfg, http: hc, cache: c, logger: logger}
}

// Categories fetches the resource category list, served from the read cache
// when warm.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var cached []Category
	if c.cache.GetJSON(ctx, categoriesCacheKey, &cached) {
		return cached, nil
	}

	raw, err := c.get(ctx, c.cfg.APIURL("/api/puja/get_puja_category"), "")
	if err != nil {
		return nil, err
	}

	payload, err := unwrap(raw)
	if err != nil {
		return nil, err
	}

	var categories []Category
	if err := json.Unmarshal(payload, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	c.cache.SetJSON(ctx, categoriesCacheKey, categories)
	return categories, nil
}

// GetResource fetches one resource record and normalizes it for the editor.
func (c *Client) GetResource(ctx context.Context, id string) (*editor.RemoteRecord, error) {
	raw, err := c.get(ctx, c.cfg.APIURL("/api/puja-new/get_puja_by/"+url.PathEscape(id)), "")
	if err != nil {
		return nil, err
	}

	payload, err := unwrap(raw)
	if err != nil {
		return nil, err
	}

	return normalizeResource(payload, c.cfg.MediaURL)
}

// CreateResource submits a serialized editor payload as a new record.
func (c *Client) CreateResource(ctx context.Context, contentType string, body []byte) error {
	return c.submitMultipart(ctx, http.MethodPost, c.cfg.APIURL("/api/puja-new/create_puja"), contentType, body)
}

// UpdateResource submits a serialized editor payload over an existing record.
func (c *Client) UpdateResource(ctx context.Context, id, contentType string, body []byte) error {
	return c.submitMultipart(ctx, http.MethodPut, c.cfg.APIURL("/api/puja-new/update_puja/"+url.PathEscape(id)), contentType, body)
}

func (c *Client) submitMultipart(ctx context.Context, method, endpoint, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return apperrors.Upstream(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, endpoint)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Earnings fetches the admin earnings ledger. params carries only non-default
// filter values; the response rows stay in their server shape.
func (c *Client) Earnings(ctx context.Context, params url.Values) ([]map[string]any, error) {
	endpoint := c.cfg.APIURL("/api/admin/get_admin_earnig_history2")
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	raw, err := c.get(ctx, endpoint, "")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		History []map[string]any `json:"history"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode earnings history: %w", err)
	}
	return envelope.History, nil
}

// ReportOrders fetches one server page of report-delivery orders. The service
// bearer token is attached.
func (c *Client) ReportOrders(ctx context.Context, params url.Values) (*OrdersPage, error) {
	endpoint := c.cfg.APIURL("/api/admin/get-reports")
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	raw, err := c.get(ctx, endpoint, c.cfg.ServiceToken)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			Items      []map[string]any `json:"items"`
			Pagination Pagination       `json:"pagination"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode report orders: %w", err)
	}
	if !envelope.Success {
		return nil, apperrors.Upstream(defaultStr(envelope.Message, "report orders fetch failed"))
	}

	page := &OrdersPage{
		Items:      envelope.Data.Items,
		Pagination: envelope.Data.Pagination,
	}
	if page.Pagination.Page == 0 {
		page.Pagination.Page = 1
	}
	if page.Pagination.Pages == 0 {
		page.Pagination.Pages = 1
	}
	return page, nil
}

// MarkDelivered manually marks a failed report order delivered.
func (c *Client) MarkDelivered(ctx context.Context, orderID string) error {
	endpoint := c.cfg.APIURL("/api/admin/update-status/" + url.PathEscape(orderID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create update-status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setBearer(req, c.cfg.ServiceToken)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return apperrors.Upstream(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, endpoint)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// ProcessReports queues report generation for the given order ids.
func (c *Client) ProcessReports(ctx context.Context, reportIDs []string) error {
	endpoint := c.cfg.APIURL("/api/life-journey-report/process-lcr-reports")

	body, err := json.Marshal(map[string][]string{"reportIds": reportIDs})
	if err != nil {
		return fmt.Errorf("encode report ids: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create process-reports request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setBearer(req, c.cfg.ServiceToken)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return apperrors.Upstream(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, endpoint)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// AvailableSlots fetches bookable consultation slots for a date and report
// prefix, optionally scoped to one astrologer.
func (c *Client) AvailableSlots(ctx context.Context, date, prefix, astrologerID string) (*SlotsResponse, error) {
	params := url.Values{}
	params.Set("date", date)
	params.Set("prefix", prefix)
	if astrologerID != "" {
		params.Set("astrologerId", astrologerID)
	}

	raw, err := c.get(ctx, c.cfg.APIURL("/api/life-journey-report/available-consultation-slots")+"?"+params.Encode(), "")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Success     bool            `json:"success"`
		Message     string          `json:"message"`
		Slots       []AvailableSlot `json:"slots"`
		Astrologers []Astrologer    `json:"astrologers"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode available slots: %w", err)
	}
	if !envelope.Success {
		return nil, apperrors.Upstream(defaultStr(envelope.Message, "available slots fetch failed"))
	}

	return &SlotsResponse{Slots: envelope.Slots, Astrologers: envelope.Astrologers}, nil
}

// BlockedSlots fetches the admin-blocked slots for a date and prefix. The
// caller passes "global" to query platform-wide blocks.
func (c *Client) BlockedSlots(ctx context.Context, date, prefix, astrologerID string) ([]BlockedSlot, error) {
	params := url.Values{}
	params.Set("date", date)
	params.Set("prefix", prefix)
	params.Set("astrologerId", astrologerID)

	raw, err := c.get(ctx, c.cfg.APIURL("/api/life-journey-report/blocked-slots")+"?"+params.Encode(), "")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Success      bool             `json:"success"`
		BlockedSlots []map[string]any `json:"blockedSlots"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode blocked slots: %w", err)
	}
	if !envelope.Success {
		// Blocked-slot lookups degrade to an empty set, mirroring how the
		// board treats a missing blocked list as "nothing blocked".
		return nil, nil
	}

	out := make([]BlockedSlot, 0, len(envelope.BlockedSlots))
	for _, obj := range envelope.BlockedSlots {
		out = append(out, normalizeBlockedSlot(obj))
	}
	return out, nil
}

// BlockSlot blocks one time range and returns the created record.
func (c *Client) BlockSlot(ctx context.Context, blockReq BlockSlotRequest) (*BlockedSlot, error) {
	endpoint := c.cfg.APIURL("/api/life-journey-report/blocked-slots")

	payload := map[string]any{
		"date":      blockReq.Date,
		"timeRange": blockReq.TimeRange,
		"prefix":    blockReq.Prefix,
		"blockedBy": defaultStr(blockReq.BlockedBy, "Admin"),
	}
	// A global block carries an explicit null astrologer.
	if blockReq.AstrologerID != "" {
		payload["astrologerId"] = blockReq.AstrologerID
	} else {
		payload["astrologerId"] = nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode block request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create block request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Upstream(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read block response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpclient.ParseResponseError(&http.Response{
			StatusCode: resp.StatusCode,
			Body:       io.NopCloser(bytes.NewReader(raw)),
		}, endpoint)
	}

	var envelope struct {
		Success     bool           `json:"success"`
		Message     string         `json:"message"`
		BlockedSlot map[string]any `json:"blockedSlot"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode block response: %w", err)
	}
	if !envelope.Success {
		return nil, apperrors.Upstream(defaultStr(envelope.Message, "failed to block slot"))
	}

	slot := normalizeBlockedSlot(envelope.BlockedSlot)
	return &slot, nil
}

// UnblockSlot deletes a blocked slot by id.
func (c *Client) UnblockSlot(ctx context.Context, blockedSlotID string) error {
	endpoint := c.cfg.APIURL("/api/life-journey-report/blocked-slots/" + url.PathEscape(blockedSlotID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create unblock request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return apperrors.Upstream(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read unblock response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(&http.Response{
			StatusCode: resp.StatusCode,
			Body:       io.NopCloser(bytes.NewReader(raw)),
		}, endpoint)
	}

	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode unblock response: %w", err)
	}
	if !envelope.Success {
		return apperrors.Upstream(defaultStr(envelope.Message, "failed to unblock slot"))
	}
	return nil
}

// Ping checks platform API reachability for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, c.cfg.APIURL("/api/puja/get_puja_category"), "")
	return err
}

// get performs a GET, attaching the bearer token when non-empty, and returns
// the raw body of a 2xx response.
func (c *Client) get(ctx context.Context, endpoint, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	setBearer(req, token)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Upstream(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpclient.ParseResponseError(resp, endpoint)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return raw, nil
}

func setBearer(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
