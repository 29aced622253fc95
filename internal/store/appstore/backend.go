// Package appstore implements the App Store backend on top of an upstream
// scraper service.
package appstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	svcerrors "github.com/R3E-Network/appstore_gateway/internal/errors"
	"github.com/R3E-Network/appstore_gateway/internal/httputil"
	"github.com/R3E-Network/appstore_gateway/internal/store"
)

// Config configures the App Store backend.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Defaults   map[string]string
	Fields     map[string]string
	HTTPClient *http.Client
}

// Backend talks to the App Store scraper. The App Store has no permission
// list and no category catalogue; those capabilities fail explicitly.
type Backend struct {
	client   *httputil.Client
	defaults url.Values
	fields   store.FieldMap
}

var _ store.Backend = (*Backend)(nil)

// New creates an App Store backend.
func New(cfg Config) (*Backend, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("appstore: base url is required")
	}
	fields, err := store.NewFieldMap(cfg.Fields)
	if err != nil {
		return nil, fmt.Errorf("appstore: %w", err)
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

// withID sets both identifier spellings the scraper accepts.
func withID(q url.Values, id string) url.Values {
	q.Set("id", id)
	q.Set("appId", id)
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

// List forwards category as the numeric genre id the App Store expects.
func (b *Backend) List(ctx context.Context, filters store.Filters) ([]store.Record, error) {
	q := b.query(filters)
	if raw := q.Get("category"); raw != "" {
		if genre, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			q.Set("category", strconv.Itoa(genre))
		} else {
			q.Del("category")
		}
	}
	return b.records(ctx, "list", q)
}

func (b *Backend) App(ctx context.Context, id string, filters store.Filters) (store.Record, error) {
	q := withID(b.query(filters), id)
	q.Set("ratings", "true")
	body, err := store.Fetch(ctx, b.client, "app", q)
	if err != nil {
		return nil, err
	}
	return store.DecodeRecord(body, b.fields)
}

func (b *Backend) Similar(ctx context.Context, id string, filters store.Filters) ([]store.Record, error) {
	return b.records(ctx, "similar", withID(b.query(filters), id))
}

// Reviews unwraps the {data: [...]} envelope the scraper uses for reviews.
func (b *Backend) Reviews(ctx context.Context, id string, page int, filters store.Filters) ([]store.Record, error) {
	q := withID(b.query(filters), id)
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

// DataSafety maps to the App Store privacy labels.
func (b *Backend) DataSafety(ctx context.Context, id string, filters store.Filters) (any, error) {
	body, err := store.Fetch(ctx, b.client, "privacy", withID(b.query(filters), id))
	if err != nil {
		return nil, err
	}
	return store.DecodeValue(body)
}

func (b *Backend) Permissions(context.Context, string, store.Filters) ([]any, error) {
	return nil, svcerrors.Unsupported("permissions", store.IOS.String())
}

func (b *Backend) Categories(context.Context) ([]string, error) {
	return nil, svcerrors.Unsupported("categories", store.IOS.String())
}
