// Package hypermedia rewrites store payloads into self-referential API
// resources: absolute links, canonical app records and pagination cursors.
package hypermedia

import (
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Builder derives absolute URLs under the gateway's own host and mount path.
type Builder struct {
	scheme string
	host   string
	base   string
}

// NewBuilder creates a Builder for scheme://host/basePath.
func NewBuilder(scheme, host, basePath string) Builder {
	if scheme == "" {
		scheme = "http"
	}
	return Builder{scheme: scheme, host: host, base: basePath}
}

// FromRequest creates a Builder for the request's scheme and host. With
// trustProxy set, X-Forwarded-Proto and X-Forwarded-Host take precedence.
func FromRequest(r *http.Request, basePath string, trustProxy bool) Builder {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host

	if trustProxy {
		if proto := firstHeaderValue(r.Header.Get("X-Forwarded-Proto")); proto != "" {
			scheme = strings.ToLower(proto)
		}
		if fwdHost := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); fwdHost != "" {
			host = fwdHost
		}
	}
	return NewBuilder(scheme, host, basePath)
}

func firstHeaderValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// URL joins host, mount path and subpath without doubling or trailing
// slashes, and appends query when it is non-empty.
func (b Builder) URL(subpath string, query url.Values) string {
	u := b.scheme + "://" + path.Join(b.host, b.base, subpath)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Prefix returns the scheme://host/base prefix every link starts with.
func (b Builder) Prefix() string {
	return b.URL("", nil)
}
