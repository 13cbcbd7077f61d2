package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgrequestctx "github.com/zabege/tg-rec-bot/pkg/requestctx"
)

func TestWriteErrorPayload(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(pkgrequestctx.WithCorrelationID(req.Context(), "cid-1"))
	w := httptest.NewRecorder()

	he := Conflict("round already resolved", errors.New("boom")).WithCode("stale_round")
	he.Details = map[string]any{"round": 2}
	WriteError(w, req, he)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "cid-1", w.Header().Get("X-Correlation-Id"))
	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "stale_round", body["error"]["code"])
	assert.Equal(t, "cid-1", body["error"]["correlation_id"])
	assert.NotNil(t, body["error"]["details"])
}

func TestHTTPErrorHelpers(t *testing.T) {
	cases := []struct {
		he     *HTTPError
		status int
		code   string
	}{
		{BadRequest("x", nil), http.StatusBadRequest, "bad_request"},
		{NotFound("x", nil), http.StatusNotFound, "not_found"},
		{Conflict("x", nil), http.StatusConflict, "conflict"},
		{UnprocessableEntity("x", nil), http.StatusUnprocessableEntity, "unprocessable"},
		{Internal("x", nil), http.StatusInternalServerError, "internal"},
		{&HTTPError{Message: "x"}, http.StatusInternalServerError, ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.status, c.he.Status())
		assert.Equal(t, c.code, c.he.Code)
	}

	inner := errors.New("db down")
	wrapped := Internal("failed", inner)
	assert.ErrorIs(t, wrapped, inner)
	assert.True(t, Is(wrapped, "internal"))
	assert.False(t, Is(inner, "internal"))
	assert.Equal(t, "failed: db down", wrapped.Error())
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}`))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, "a", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	assert.Error(t, DecodeJSON(req, &v))
}
