package appstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcerrors "github.com/R3E-Network/appstore_gateway/internal/errors"
	"github.com/R3E-Network/appstore_gateway/internal/store"
)

func newBackend(t *testing.T, bodies map[string]string) (*Backend, func() (string, url.Values)) {
	t.Helper()
	var (
		mu       sync.Mutex
		lastPath string
		lastQ    url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		lastPath, lastQ = r.URL.Path, r.URL.Query()
		mu.Unlock()
		w.Write([]byte(bodies[r.URL.Path]))
	}))
	t.Cleanup(srv.Close)

	b, err := New(Config{
		BaseURL: srv.URL,
		Fields: map[string]string{
			"appId":       "$.bundleId",
			"developer":   "$.artistName",
			"developerId": "$.artistId",
			"url":         "$.trackViewUrl",
		},
	})
	require.NoError(t, err)

	return b, func() (string, url.Values) {
		mu.Lock()
		defer mu.Unlock()
		return lastPath, lastQ
	}
}

func TestApp_RequestsRatingsAndBothIDs(t *testing.T) {
	b, last := newBackend(t, map[string]string{
		"/app": `{"id":553834731,"appId":"com.midasplayer.apps.candycrushsaga","developer":"King","developerId":526656015}`,
	})

	app, err := b.App(context.Background(), "553834731", store.Filters{})
	require.NoError(t, err)
	assert.Equal(t, "com.midasplayer.apps.candycrushsaga", app["appId"])

	path, q := last()
	assert.Equal(t, "/app", path)
	assert.Equal(t, "553834731", q.Get("id"))
	assert.Equal(t, "553834731", q.Get("appId"))
	assert.Equal(t, "true", q.Get("ratings"))
}

func TestList_CategoryIsNumeric(t *testing.T) {
	b, last := newBackend(t, map[string]string{"/list": `[]`})

	_, err := b.List(context.Background(), store.NewFilters(url.Values{"category": {"6014"}, "num": {"10"}}))
	require.NoError(t, err)
	_, q := last()
	assert.Equal(t, "6014", q.Get("category"))

	_, err = b.List(context.Background(), store.NewFilters(url.Values{"category": {"GAMES"}}))
	require.NoError(t, err)
	_, q = last()
	assert.False(t, q.Has("category"), "non-numeric categories are dropped")
}

func TestReviews_UnwrapsDataEnvelope(t *testing.T) {
	b, last := newBackend(t, map[string]string{
		"/reviews": `{"data":[{"id":"1","title":"Great"},{"id":"2","title":"Meh"}]}`,
	})

	reviews, err := b.Reviews(context.Background(), "553834731", 3, store.Filters{})
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
	_, q := last()
	assert.Equal(t, "3", q.Get("page"))
}

func TestDataSafety_UsesPrivacy(t *testing.T) {
	b, last := newBackend(t, map[string]string{
		"/privacy": `{"privacyTypes":[{"identifier":"DATA_USED_TO_TRACK_YOU"}]}`,
	})

	v, err := b.DataSafety(context.Background(), "553834731", store.Filters{})
	require.NoError(t, err)
	assert.Contains(t, v.(map[string]any), "privacyTypes")
	path, _ := last()
	assert.Equal(t, "/privacy", path)
}

func TestSearch_MapsRawItunesFields(t *testing.T) {
	b, _ := newBackend(t, map[string]string{
		"/search": `[{"trackId":310633997,"bundleId":"net.whatsapp.WhatsApp","artistName":"WhatsApp Inc.","artistId":310634000,"trackViewUrl":"https://apps.apple.com/app/id310633997"}]`,
	})

	apps, err := b.Search(context.Background(), "whatsapp", store.Filters{})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "net.whatsapp.WhatsApp", apps[0]["appId"])
	assert.Equal(t, "WhatsApp Inc.", apps[0]["developer"])
	assert.Equal(t, json.Number("310634000"), apps[0]["developerId"])
	assert.Equal(t, "https://apps.apple.com/app/id310633997", apps[0]["url"])
}

func TestSuggest_TermObjects(t *testing.T) {
	b, _ := newBackend(t, map[string]string{"/suggest": `[{"term":"candy crush"},{"term":"candy crush soda"}]`})

	terms, err := b.Suggest(context.Background(), "candy")
	require.NoError(t, err)
	assert.Equal(t, []string{"candy crush", "candy crush soda"}, terms)
}

func TestUnsupportedCapabilities(t *testing.T) {
	b, _ := newBackend(t, nil)

	_, err := b.Permissions(context.Background(), "553834731", store.Filters{})
	require.Error(t, err)
	assert.True(t, svcerrors.IsCode(err, svcerrors.CodeUnsupported))

	_, err = b.Categories(context.Background())
	require.Error(t, err)
	assert.True(t, svcerrors.IsCode(err, svcerrors.CodeUnsupported))
}
