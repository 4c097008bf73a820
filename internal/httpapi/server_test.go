package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deeplink/internal/deeplink"
	"github.com/roach88/deeplink/internal/metrics"
	"github.com/roach88/deeplink/internal/route"
	"github.com/roach88/deeplink/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	rec := metrics.NewRecorder()
	p, err := deeplink.New(
		deeplink.WithLogger(discardLogger()),
		deeplink.WithObserver(rec),
		deeplink.WithPlaceUniverseLookup(testutil.NewStaticLookup(map[int64]int64{1818: 13058}).Lookup),
		deeplink.WithUniverseRootPlaceLookup(testutil.NewStaticLookup(map[int64]int64{13058: 1818}).Lookup),
	)
	require.NoError(t, err)

	opts = append([]Option{WithRecorder(rec), WithLogger(discardLogger())}, opts...)
	return New(p, opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestResolve(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/v1/resolve?url="+url.QueryEscape("roblox://navigation/game_details?gameId=13058"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res deeplink.Resolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, route.Name("experienceDetails"), res.Route)
	assert.Equal(t, route.Params{"gameId": "13058", "placeId": "1818"}, res.Params)
	assert.Equal(t, "roblox://navigation/game_details?gameId=13058", res.ProtocolURL)
	assert.Equal(t, "https://www.roblox.com/games/1818/name", res.WebsiteURL)
	assert.NotEmpty(t, res.AttributionURL)
}

func TestResolve_Errors(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"missing url", "/v1/resolve", http.StatusBadRequest, codeBadRequest},
		{"no match", "/v1/resolve?url=" + url.QueryEscape("roblox://navigation/nowhere"), http.StatusNotFound, "NO_MATCH"},
		{"malformed", "/v1/resolve?url=" + url.QueryEscape("not a url"), http.StatusBadRequest, "MALFORMED_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestCreate(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/v1/links",
		strings.NewReader(`{"route":"itemQRCodeRedemption","params":{"itemId":99,"itemType":"Asset"}}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res deeplink.Resolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "roblox://navigation/qr_code_redemption?itemId=99&itemType=Asset", res.ProtocolURL)
	assert.Equal(t, "https://www.roblox.com/catalog/99/name", res.WebsiteURL)
	assert.NotContains(t, rec.Body.String(), `\u0026`)
}

func TestCreate_IgnoresUndeclaredObjects(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/v1/links",
		strings.NewReader(`{"route":"home","params":{"x":{"a":1}}}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res deeplink.Resolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "roblox://navigation/home", res.ProtocolURL)
}

func TestCreate_Errors(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"bad json", `{`, http.StatusBadRequest, codeBadRequest},
		{"no route", `{"params":{}}`, http.StatusBadRequest, codeBadRequest},
		{"unknown route", `{"route":"nope"}`, http.StatusNotFound, "UNKNOWN_ROUTE"},
		{"missing param", `{"route":"itemDetails","params":{"itemType":"Asset"}}`, http.StatusUnprocessableEntity, "MISSING_PARAMETER"},
		{"invalid param", `{"route":"joinPlace","params":{"placeId":"abc"}}`, http.StatusUnprocessableEntity, "INVALID_PARAMETER"},
		{"unstringable", `{"route":"joinPlace","params":{"placeId":{"a":1}}}`, http.StatusUnprocessableEntity, "INVALID_PARAMETER"},
		{"unreadable link", `{"route":"userProfile","params":{}}`, http.StatusUnprocessableEntity, "MISSING_PARAMETER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/links", strings.NewReader(tt.body))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestRoutes(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/v1/routes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Routes []route.Summary `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Routes, 26)
	assert.Equal(t, route.Name("securityFeedback"), body.Routes[0].Name)
	assert.Equal(t, route.Name("experienceDetails"), body.Routes[25].Name)
}

func TestLaunchDecode(t *testing.T) {
	h := newTestServer(t)

	raw := "roblox-player:1+launchmode:play+gameinfo:ticket+placelauncherurl:" + url.QueryEscape("https://x/y")
	rec := do(t, h, http.MethodGet, "/v1/launch/decode?url="+url.QueryEscape(raw), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"launch_mode":"play"`)
	assert.Contains(t, rec.Body.String(), `"game_info":"ticket"`)

	rec = do(t, h, http.MethodGet, "/v1/launch/decode?url="+url.QueryEscape("https://www.roblox.com/home"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, codeNotLaunch, decodeError(t, rec).Error.Code)
}

func TestHealthAndReady(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := newTestServer(t, WithReadyCheck(func(context.Context) error { return assert.AnError }))
	rec = do(t, failing, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)
	do(t, h, http.MethodGet, "/v1/resolve?url="+url.QueryEscape("roblox://navigation/home"), nil)
	do(t, h, http.MethodPost, "/v1/links", strings.NewReader(`{"route":"home"}`))

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `deeplink_matches_total{route="home",surface="protocol"} 1`)
	assert.Contains(t, rec.Body.String(), `deeplink_builds_total{outcome="ok",route="home"} 1`)
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	generated := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/v1/resolve", bytes.NewReader(nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServe_Shutdown(t *testing.T) {
	p, err := deeplink.New(
		deeplink.WithLogger(discardLogger()),
		deeplink.WithPlaceUniverseLookup(testutil.FailingLookup(assert.AnError)),
		deeplink.WithUniverseRootPlaceLookup(testutil.FailingLookup(assert.AnError)),
	)
	require.NoError(t, err)
	s := New(p, WithLogger(discardLogger()))

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
