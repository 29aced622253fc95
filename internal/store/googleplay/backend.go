// Package googleplay implements the Google Play backend on top of an upstream
// scraper service.
package googleplay

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/R3E-Network/appstore_gateway/internal/httputil"
	"github.com/R3E-Network/appstore_gateway/internal/store"
)

// Config configures the Google Play backend.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Defaults   map[string]string
	Fields     map[string]string
	HTTPClient *http.Client
}

// Backend talks to the Google Play scraper.
type Backend struct {
	client   *httputil.Client
	defaults url.Values
	fields   store.FieldMap
}

var _ store.Backend = (*Backend)(nil)

// New creates a Google Play backend.
func New(cfg Config) (*Backend, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("googleplay: base url is required")
	}
	fields, err := store.NewFieldMap(cfg.Fields)
	if err != nil {
		return nil, fmt.Errorf("googleplay: %w", err)
	}

	defaults := url.Values{}
	for k, v := range cfg.Defaults {
		defaults.Set(k, v)
	}

	return &Backend{
		client: httputil.NewClient(httputil.ClientConfig{
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			HTTPClient: cfg.HTTPClient,
		}),
		defaults: defaults,
		fields:   fields,
	}, nil
}

// query layers the caller's filters over the configured defaults.
func (b *Backend) query(filters store.Filters) url.Values {
	q := url.Values{}
	for k, vs := range b.defaults {
		q[k] = append([]string(nil), vs...)
	}
	for k, vs := range filters.Values() {
		q[k] = vs
	}
	return q
}

func (b *Backend) records(ctx context.Context, op string, q url.Values) ([]store.Record, error) {
	body, err := store.Fetch(ctx, b.client, op, q)
	if err != nil {
		return nil, err
	}
	return store.DecodeRecords(body, b.fields)
}

func (b *Backend) Search(ctx context.Context, term string, filters store.Filters) ([]store.Record, error) {
	q := b.query(filters)
	q.Set("term", term)
	return b.records(ctx, "search", q)
}

func (b *Backend) Suggest(ctx context.Context, term string) ([]string, error) {
	q := b.query(store.Filters{})
	q.Set("term", term)
	body, err := store.Fetch(ctx, b.client, "suggest", q)
	if err != nil {
		return nil, err
	}
	return store.DecodeStrings(body)
}

func (b *Backend) List(ctx context.Context, filters store.Filters) ([]store.Record, error) {
	return b.records(ctx, "list", b.query(filters))
}

func (b *Backend) App(ctx context.Context, id string, filters store.Filters) (store.Record, error) {
	q := b.query(filters)
	q.Set("appId", id)
	body, err := store.Fetch(ctx, b.client, "app", q)
	if err != nil {
		return nil, err
	}
	return store.DecodeRecord(body, b.fields)
}

func (b *Backend) Similar(ctx context.Context, id string, filters store.Filters) ([]store.Record, error) {
	q := b.query(filters)
	q.Set("appId", id)
	return b.records(ctx, "similar", q)
}

// Reviews returns reviews as plain records; field mapping is not applied.
func (b *Backend) Reviews(ctx context.Context, id string, page int, filters store.Filters) ([]store.Record, error) {
	q := b.query(filters)
	q.Set("appId", id)
	q.Set("page", strconv.Itoa(page))
	body, err := store.Fetch(ctx, b.client, "reviews", q)
	if err != nil {
		return nil, err
	}
	return store.DecodeRecords(body, store.FieldMap{})
}

func (b *Backend) Developer(ctx context.Context, devID string, filters store.Filters) ([]store.Record, error) {
	q := b.query(filters)
	q.Set("devId", devID)
	return b.records(ctx, "developer", q)
}

func (b *Backend) DataSafety(ctx context.Context, id string, filters store.Filters) (any, error) {
	q := b.query(filters)
	q.Set("appId", id)
	body, err := store.Fetch(ctx, b.client, "datasafety", q)
	if err != nil {
		return nil, err
	}
	return store.DecodeValue(body)
}

func (b *Backend) Permissions(ctx context.Context, id string, filters store.Filters) ([]any, error) {
	q := b.query(filters)
	q.Set("appId", id)
	body, err := store.Fetch(ctx, b.client, "permissions", q)
	if err != nil {
		return nil, err
	}
	return store.DecodeList(body)
}

func (b *Backend) Categories(ctx context.Context) ([]string, error) {
	body, err := store.Fetch(ctx, b.client, "categories", nil)
	if err != nil {
		return nil, err
	}
	return store.DecodeStrings(body)
}
