// Package store defines the capability contract shared by the app-store
// backends and the helpers they use to talk to their upstream scrapers.
package store

import (
	"context"
	"net/url"
)

// OS selects which store serves a request.
type OS string

const (
	Android OS = "android"
	IOS     OS = "ios"
)

// ParseOS maps the raw os query parameter to a store. Only "ios" selects the
// App Store; every other value, including "", selects Google Play.
func ParseOS(raw string) OS {
	if raw == string(IOS) {
		return IOS
	}
	return Android
}

func (o OS) String() string {
	return string(o)
}

// Record is one raw app (or review) object as returned by a store. Fields
// the gateway does not know about are passed through untouched.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r)+8)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Backend is the uniform capability set both stores expose. Every method
// fails with a *errors.ServiceError carrying the provider's message.
type Backend interface {
	Search(ctx context.Context, term string, filters Filters) ([]Record, error)
	Suggest(ctx context.Context, term string) ([]string, error)
	List(ctx context.Context, filters Filters) ([]Record, error)
	App(ctx context.Context, id string, filters Filters) (Record, error)
	Similar(ctx context.Context, id string, filters Filters) ([]Record, error)
	Reviews(ctx context.Context, id string, page int, filters Filters) ([]Record, error)
	Developer(ctx context.Context, devID string, filters Filters) ([]Record, error)
	DataSafety(ctx context.Context, id string, filters Filters) (any, error)
	Permissions(ctx context.Context, id string, filters Filters) ([]any, error)
	Categories(ctx context.Context) ([]string, error)
}

// =============================================================================
// Filters
// =============================================================================

// Filters holds pass-through query parameters. Values are never modified in
// place: every mutator returns a fresh copy.
type Filters struct {
	values url.Values
}

// NewFilters copies values into a new Filters.
func NewFilters(values url.Values) Filters {
	return Filters{values: cloneValues(values)}
}

// Get returns the first value for key.
func (f Filters) Get(key string) string {
	return f.values.Get(key)
}

// Has reports whether key is present.
func (f Filters) Has(key string) bool {
	return f.values.Has(key)
}

// With returns a copy of f with key set to value.
func (f Filters) With(key, value string) Filters {
	out := cloneValues(f.values)
	out.Set(key, value)
	return Filters{values: out}
}

// Without returns a copy of f with keys removed.
func (f Filters) Without(keys ...string) Filters {
	out := cloneValues(f.values)
	for _, k := range keys {
		out.Del(k)
	}
	return Filters{values: out}
}

// Values returns a copy of the underlying parameters.
func (f Filters) Values() url.Values {
	return cloneValues(f.values)
}

// Encode serializes the filters as a query string.
func (f Filters) Encode() string {
	return f.values.Encode()
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// =============================================================================
// Resolver
// =============================================================================

// Resolver selects the backend for a request.
type Resolver struct {
	backends map[OS]Backend
}

// NewResolver registers the two store backends.
func NewResolver(android, ios Backend) *Resolver {
	return &Resolver{backends: map[OS]Backend{
		Android: android,
		IOS:     ios,
	}}
}

// Resolve returns the backend for os, defaulting to Google Play.
func (r *Resolver) Resolve(os OS) Backend {
	if b, ok := r.backends[os]; ok && b != nil {
		return b
	}
	return r.backends[Android]
}
