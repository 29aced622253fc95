package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/appstore_gateway/internal/config"
	"github.com/R3E-Network/appstore_gateway/internal/logging"
	"github.com/R3E-Network/appstore_gateway/internal/metrics"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/googleplay/search":
			_, _ = w.Write([]byte(`[{"appId":"com.whatsapp","developer":"WhatsApp LLC","developerId":"WhatsApp LLC","url":"https://play.google.com/store/apps/details?id=com.whatsapp"}]`))
		case "/appstore/search":
			_, _ = w.Write([]byte(`[{"id":310633997,"bundleId":"net.whatsapp.WhatsApp","artistName":"WhatsApp Inc.","artistId":310633997,"trackViewUrl":"https://apps.apple.com/app/id310633997"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"App not found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(upstream string) *config.Config {
	return &config.Config{
		Port:            "0",
		BasePath:        "/",
		ShutdownTimeout: time.Second,
		BackendTimeout:  2 * time.Second,
		Stores:          config.DefaultStores(upstream+"/googleplay", upstream+"/appstore"),
	}
}

func get(t *testing.T, h http.Handler, target string) (int, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://gw.test"+target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return rr.Code, body
}

func TestBuildServer_WiresBothStores(t *testing.T) {
	upstream := newUpstream(t)
	m := metrics.New("wiring")

	svc, err := buildServer(testConfig(upstream.URL), logging.NewDiscard(), m)
	require.NoError(t, err)
	h := svc.Handler()

	status, body := get(t, h, "/apps?q=whatsapp")
	require.Equal(t, http.StatusOK, status)
	app := body["results"].([]any)[0].(map[string]any)
	assert.Equal(t, "http://gw.test/apps/com.whatsapp?os=android", app["url"])

	status, body = get(t, h, "/apps?q=whatsapp&os=ios")
	require.Equal(t, http.StatusOK, status)
	app = body["results"].([]any)[0].(map[string]any)
	assert.Equal(t, "http://gw.test/apps/net.whatsapp.WhatsApp?os=ios", app["url"])
	assert.Equal(t, "https://apps.apple.com/app/id310633997", app["playstoreUrl"])
	assert.Equal(t, "WhatsApp Inc.", app["developerName"])

	status, body = get(t, h, "/apps/com.nope")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "App not found", body["message"])

	// android/search/success, ios/search/success, android/app/error
	count, err := testutil.GatherAndCount(m.Registry(), "wiring_backend_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestBuildServer_RejectsBadFieldMap(t *testing.T) {
	cfg := testConfig("http://upstream.test")
	cfg.Stores[config.StoreAppStore].Fields = map[string]string{"appId": "$[?("}

	_, err := buildServer(cfg, logging.NewDiscard(), metrics.New("bad"))
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, Version, strings.TrimSpace(out.String()))
}
