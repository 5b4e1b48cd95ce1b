package vesyncClient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zabeloliver/vesync-config-exporter/vesync-api/vesyncStructs"
)

func newTestClient(host string) *VesyncApiClient {
	session := vesyncStructs.Session{
		Token:       "tk",
		AccountId:   "42",
		TimeZone:    "Europe/Berlin",
		CountryCode: "DE",
		AppVersion:  "2.8.6",
		Region:      "EU",
	}
	return NewVesyncApiClient(host, 5*time.Second, session, zap.NewNop().Sugar())
}

func TestCallApiSendsHeadersAndBody(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotHeader http.Header
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotHeader = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"result":{"ok":true}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL + "/")
	body := c.BypassBodyV2()
	body["method"] = vesyncStructs.LinkageMethod

	res, status, err := c.CallApi(context.Background(), vesyncStructs.LinkagePath, "post", c.ReqHeaderBypass(), body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, map[string]any{"code": float64(0), "result": map[string]any{"ok": true}}, res)

	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, vesyncStructs.LinkagePath, gotPath)
	require.Equal(t, "okhttp/3.12.1", gotHeader.Get("User-Agent"))
	require.Equal(t, "application/json; charset=UTF-8", gotHeader.Get("Content-Type"))
	require.Equal(t, vesyncStructs.LinkageMethod, gotBody["method"])
	require.Equal(t, "tk", gotBody["token"])
	require.Equal(t, "42", gotBody["accountID"])
	require.Equal(t, "DE", gotBody["userCountryCode"])
	require.Equal(t, false, gotBody["debugMode"])
}

func TestCallApiNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	res, status, err := c.CallApi(context.Background(), "/x", "post", nil, map[string]any{})
	require.NoError(t, err)
	require.Nil(t, res)
	require.Equal(t, http.StatusBadGateway, status)
}

func TestCallApiTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	host := srv.URL
	srv.Close()

	c := newTestClient(host)
	res, _, err := c.CallApi(context.Background(), "/x", "post", nil, nil)
	require.Error(t, err)
	require.Nil(t, res)
}

func TestBypassBodyV2IsFresh(t *testing.T) {
	c := newTestClient(DefaultHost)
	first := c.BypassBodyV2()
	first["method"] = "a"

	second := c.BypassBodyV2()
	_, ok := second["method"]
	require.False(t, ok)
	require.Equal(t, "2.8.6", second["appVersion"])
	require.Equal(t, "EU", second["deviceRegion"])
}
