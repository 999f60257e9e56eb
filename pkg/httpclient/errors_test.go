package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vedicseva/console/pkg/errors"
)

func newResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_PlatformEnvelope(t *testing.T) {
	resp := newResponse(http.StatusBadRequest, `{"success":false,"message":"pooja name is required"}`)

	err := ParseResponseError(resp, "create-pooja")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Message, "pooja name is required")
}

func TestParseResponseError_ErrorField(t *testing.T) {
	resp := newResponse(http.StatusNotFound, `{"success":false,"error":"pooja not found"}`)

	err := ParseResponseError(resp, "get-pooja")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestParseResponseError_ServerError(t *testing.T) {
	resp := newResponse(http.StatusInternalServerError, `{"success":false,"message":"db down"}`)

	err := ParseResponseError(resp, "admin-earnings")
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
}

func TestParseResponseError_Unstructured(t *testing.T) {
	resp := newResponse(http.StatusBadGateway, `<html>gateway timeout</html>`)

	err := ParseResponseError(resp, "report-orders")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "gateway timeout")
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(http.StatusBadRequest))
	assert.True(t, IsClientError(http.StatusNotFound))
	assert.False(t, IsClientError(http.StatusOK))
	assert.False(t, IsClientError(http.StatusBadGateway))
}
