package hypermedia

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultNum is the app list window size when num is absent.
	DefaultNum = 60
	// MaxStart is the last offset the app list window may advance to.
	MaxStart = 500
)

// PaginateOffset attaches prev/next links for the offset-based app list.
// query is the request's full query; it is copied, never modified.
func PaginateOffset(env ListEnvelope, links Builder, query url.Values) ListEnvelope {
	num := intParam(query, "num", DefaultNum)
	if num <= 0 {
		num = DefaultNum
	}
	start := intParam(query, "start", 0)

	if start-num >= 0 {
		env.Prev = links.URL("apps", withParam(query, "start", start-num))
	}
	if start+num <= MaxStart {
		env.Next = links.URL("apps", withParam(query, "start", start+num))
	}
	return env
}

// PaginatePages attaches prev/next links for the page-based review list.
// A next page is assumed to exist whenever the current one is non-empty.
func PaginatePages(env ListEnvelope, links Builder, appID string, query url.Values, count int) ListEnvelope {
	page := intParam(query, "page", 0)
	subpath := "apps/" + url.PathEscape(appID) + "/reviews"

	if page > 0 {
		env.Prev = links.URL(subpath, withParam(query, "page", page-1))
	}
	if count > 0 {
		env.Next = links.URL(subpath, withParam(query, "page", page+1))
	}
	return env
}

func intParam(query url.Values, key string, def int) int {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// withParam returns a copy of query with key set to n.
func withParam(query url.Values, key string, n int) url.Values {
	out := make(url.Values, len(query)+1)
	for k, vs := range query {
		out[k] = append([]string(nil), vs...)
	}
	out.Set(key, strconv.Itoa(n))
	return out
}
