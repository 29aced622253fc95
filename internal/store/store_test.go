package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcerrors "github.com/R3E-Network/appstore_gateway/internal/errors"
	"github.com/R3E-Network/appstore_gateway/internal/httputil"
	"github.com/R3E-Network/appstore_gateway/internal/logging"
)

// =============================================================================
// OS / Filters / Resolver
// =============================================================================

func TestParseOS(t *testing.T) {
	assert.Equal(t, IOS, ParseOS("ios"))
	assert.Equal(t, Android, ParseOS(""))
	assert.Equal(t, Android, ParseOS("android"))
	assert.Equal(t, Android, ParseOS("IOS"))
	assert.Equal(t, Android, ParseOS("windows"))
}

func TestFilters_CopyOnWrite(t *testing.T) {
	raw := url.Values{"num": {"60"}, "country": {"us"}}
	f := NewFilters(raw)

	raw.Set("num", "10")
	assert.Equal(t, "60", f.Get("num"), "NewFilters must copy its input")

	g := f.With("start", "60").Without("country")
	assert.False(t, f.Has("start"))
	assert.True(t, f.Has("country"))
	assert.Equal(t, "60", g.Get("start"))
	assert.False(t, g.Has("country"))

	v := g.Values()
	v.Set("num", "1")
	assert.Equal(t, "60", g.Get("num"), "Values must return a copy")
	assert.Equal(t, "num=60&start=60", g.Encode())
}

func TestResolver(t *testing.T) {
	android := &stubBackend{name: "android"}
	ios := &stubBackend{name: "ios"}
	r := NewResolver(android, ios)

	assert.Same(t, android, r.Resolve(Android))
	assert.Same(t, ios, r.Resolve(IOS))
	assert.Same(t, android, r.Resolve(OS("other")))
}

func TestRecordClone(t *testing.T) {
	rec := Record{"appId": "com.whatsapp"}
	c := rec.Clone()
	c["appId"] = "changed"
	assert.Equal(t, "com.whatsapp", rec["appId"])
}

// =============================================================================
// Fetch / Decode
// =============================================================================

func newUpstream(t *testing.T, status int, body string) *httputil.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return httputil.NewClient(httputil.ClientConfig{BaseURL: srv.URL})
}

func TestFetch_StatusErrorMessage(t *testing.T) {
	client := newUpstream(t, http.StatusInternalServerError, `{"message":"App not found"}`)

	_, err := Fetch(context.Background(), client, "app", nil)
	require.Error(t, err)
	assert.Equal(t, "App not found", err.Error())
	assert.True(t, svcerrors.IsCode(err, svcerrors.CodeBackend))
}

func TestFetch_StatusErrorPlainBody(t *testing.T) {
	client := newUpstream(t, http.StatusBadGateway, `upstream down`)

	_, err := Fetch(context.Background(), client, "app", nil)
	require.Error(t, err)
	assert.Equal(t, "request failed with status 502: upstream down", err.Error())
}

func TestFetch_ErrorPayloadWithOKStatus(t *testing.T) {
	client := newUpstream(t, http.StatusOK, `{"error":{"message":"quota"}}`)

	_, err := Fetch(context.Background(), client, "search", nil)
	require.Error(t, err)
	assert.Equal(t, "quota", err.Error())
}

func TestFetch_InvalidJSON(t *testing.T) {
	client := newUpstream(t, http.StatusOK, `<html>`)

	_, err := Fetch(context.Background(), client, "search", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid search payload")
}

func TestFetch_TransportError(t *testing.T) {
	client := httputil.NewClient(httputil.ClientConfig{BaseURL: "http://127.0.0.1:1"})

	_, err := Fetch(context.Background(), client, "search", nil)
	require.Error(t, err)
	assert.True(t, svcerrors.IsCode(err, svcerrors.CodeBackend))
}

func TestDecodeRecords_Envelopes(t *testing.T) {
	for _, body := range []string{
		`[{"appId":"a"},{"appId":"b"}]`,
		`{"results":[{"appId":"a"},{"appId":"b"}]}`,
		`{"data":[{"appId":"a"},{"appId":"b"}]}`,
	} {
		recs, err := DecodeRecords([]byte(body), FieldMap{})
		require.NoError(t, err, body)
		require.Len(t, recs, 2, body)
		assert.Equal(t, "b", recs[1]["appId"])
	}

	_, err := DecodeRecords([]byte(`{"appId":"a"}`), FieldMap{})
	assert.Error(t, err)
}

func TestDecodeRecords_PreservesLargeNumbers(t *testing.T) {
	recs, err := DecodeRecords([]byte(`[{"developerId":5700313618786177705}]`), FieldMap{})
	require.NoError(t, err)

	out, err := json.Marshal(recs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"developerId":5700313618786177705}`, string(out))
	assert.Equal(t, `{"developerId":5700313618786177705}`, string(out))
}

func TestDecodeRecord(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"appId":"com.whatsapp","title":"WhatsApp"}`), FieldMap{})
	require.NoError(t, err)
	assert.Equal(t, "WhatsApp", rec["title"])

	_, err = DecodeRecord([]byte(`[1,2]`), FieldMap{})
	assert.Error(t, err)
}

func TestDecodeStrings(t *testing.T) {
	got, err := DecodeStrings([]byte(`["whatsapp","whatsapp business"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"whatsapp", "whatsapp business"}, got)

	got, err = DecodeStrings([]byte(`[{"term":"panda"},{"term":"pandora"}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"panda", "pandora"}, got)
}

func TestDecodeListAndValue(t *testing.T) {
	list, err := DecodeList([]byte(`[{"permission":"camera"},"internet"]`))
	require.NoError(t, err)
	assert.Len(t, list, 2)

	v, err := DecodeValue([]byte(`{"sharedData":[]}`))
	require.NoError(t, err)
	assert.IsType(t, map[string]any{}, v)
}

// =============================================================================
// FieldMap
// =============================================================================

func TestFieldMap_FillsMissingFieldsOnly(t *testing.T) {
	fm, err := NewFieldMap(map[string]string{
		"appId":       "$.bundleId",
		"developer":   "$.artistName",
		"developerId": "$.artistId",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, fm.Len())

	recs, err := DecodeRecords([]byte(`[{"bundleId":"net.whatsapp.WhatsApp","artistName":"WhatsApp Inc.","artistId":310633997,"developer":""}]`), fm)
	require.NoError(t, err)

	rec := recs[0]
	assert.Equal(t, "net.whatsapp.WhatsApp", rec["appId"])
	assert.Equal(t, "WhatsApp Inc.", rec["developer"])
	assert.Equal(t, json.Number("310633997"), rec["developerId"])

	kept := fm.Apply(Record{"appId": "existing", "bundleId": "other"})
	assert.Equal(t, "existing", kept["appId"])
}

func TestNewFieldMap_InvalidExpression(t *testing.T) {
	_, err := NewFieldMap(map[string]string{"appId": "$[["})
	assert.Error(t, err)
}

// =============================================================================
// Instrument
// =============================================================================

type recordedCall struct {
	store, operation string
	err              error
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeRecorder) RecordBackendCall(store, operation string, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{store, operation, err})
}

func TestInstrument_RecordsEveryCall(t *testing.T) {
	rec := &fakeRecorder{}
	next := &stubBackend{name: "ios", err: svcerrors.Backend("App not found", nil)}
	b := Instrument(IOS, next, rec, logging.NewDiscard())

	_, err := b.App(context.Background(), "123", Filters{})
	require.Error(t, err)
	_, _ = b.Suggest(context.Background(), "pan")
	_, _ = b.Categories(context.Background())

	require.Len(t, rec.calls, 3)
	assert.Equal(t, recordedCall{"ios", "app", err}, rec.calls[0])
	assert.Equal(t, "suggest", rec.calls[1].operation)
	assert.Equal(t, "categories", rec.calls[2].operation)
	assert.True(t, errors.Is(rec.calls[0].err, err))
}

// stubBackend returns err from every call, or empty results.
type stubBackend struct {
	name string
	err  error
}

func (s *stubBackend) Search(context.Context, string, Filters) ([]Record, error) { return nil, s.err }
func (s *stubBackend) Suggest(context.Context, string) ([]string, error)        { return nil, s.err }
func (s *stubBackend) List(context.Context, Filters) ([]Record, error)           { return nil, s.err }
func (s *stubBackend) App(context.Context, string, Filters) (Record, error)      { return nil, s.err }
func (s *stubBackend) Similar(context.Context, string, Filters) ([]Record, error) {
	return nil, s.err
}
func (s *stubBackend) Reviews(context.Context, string, int, Filters) ([]Record, error) {
	return nil, s.err
}
func (s *stubBackend) Developer(context.Context, string, Filters) ([]Record, error) {
	return nil, s.err
}
func (s *stubBackend) DataSafety(context.Context, string, Filters) (any, error) { return nil, s.err }
func (s *stubBackend) Permissions(context.Context, string, Filters) ([]any, error) {
	return nil, s.err
}
func (s *stubBackend) Categories(context.Context) ([]string, error) { return nil, s.err }
