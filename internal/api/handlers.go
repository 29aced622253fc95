package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/appstore_gateway/internal/httputil"
	"github.com/R3E-Network/appstore_gateway/internal/hypermedia"
	"github.com/R3E-Network/appstore_gateway/internal/store"
)

// consumedParams are read by the dispatcher and never forwarded to a store.
var consumedParams = []string{"q", "suggest", "os"}

// exampleDeveloper is used in the /developers guidance response.
const exampleDeveloper = "Wikimedia Foundation"

// call captures everything resolved once per request.
type call struct {
	os         store.OS
	backend    store.Backend
	links      hypermedia.Builder
	normalizer hypermedia.Normalizer
	query      url.Values
	filters    store.Filters
}

func (s *Server) newCall(r *http.Request) call {
	query := r.URL.Query()
	os := store.ParseOS(query.Get("os"))
	links := hypermedia.FromRequest(r, s.basePath, s.trustProxy)

	return call{
		os:         os,
		backend:    s.resolver.Resolve(os),
		links:      links,
		normalizer: hypermedia.NewNormalizer(links, os),
		query:      query,
		filters:    store.NewFilters(query).Without(consumedParams...),
	}
}

// backendContext bounds a single backend call. Client disconnects cancel it
// through the request context.
func (s *Server) backendContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.backendTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.backendTimeout)
}

// pathVar returns the decoded route variable.
func pathVar(r *http.Request, name string) string {
	raw := mux.Vars(r)[name]
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// =============================================================================
// HTTP Handlers
// =============================================================================

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	links := hypermedia.FromRequest(r, s.basePath, s.trustProxy)
	httputil.WriteJSON(w, http.StatusOK, hypermedia.NewIndex(links))
}

// handleApps serves search, suggestions and the paginated list, in that
// order of precedence.
func (s *Server) handleApps(w http.ResponseWriter, r *http.Request) {
	c := s.newCall(r)
	ctx, cancel := s.backendContext(r)
	defer cancel()

	switch term, suggest := c.query.Get("q"), c.query.Get("suggest"); {
	case term != "":
		apps, err := c.backend.Search(ctx, term, c.filters)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, hypermedia.ListEnvelope{Results: c.normalizer.Apps(apps)})

	case suggest != "":
		terms, err := c.backend.Suggest(ctx, suggest)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, hypermedia.ListEnvelope{
			Results: hypermedia.SuggestTerms(c.links, c.os, terms),
		})

	default:
		apps, err := c.backend.List(ctx, c.filters)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		env := hypermedia.ListEnvelope{Results: c.normalizer.Apps(apps)}
		httputil.WriteJSON(w, http.StatusOK, hypermedia.PaginateOffset(env, c.links, c.query))
	}
}

func (s *Server) handleApp(w http.ResponseWriter, r *http.Request) {
	c := s.newCall(r)
	ctx, cancel := s.backendContext(r)
	defer cancel()

	app, err := c.backend.App(ctx, pathVar(r, "id"), c.filters)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c.normalizer.App(app))
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	c := s.newCall(r)
	ctx, cancel := s.backendContext(r)
	defer cancel()

	apps, err := c.backend.Similar(ctx, pathVar(r, "id"), c.filters)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hypermedia.ListEnvelope{Results: c.normalizer.Apps(apps)})
}

func (s *Server) handleDataSafety(w http.ResponseWriter, r *http.Request) {
	c := s.newCall(r)
	ctx, cancel := s.backendContext(r)
	defer cancel()

	report, err := c.backend.DataSafety(ctx, pathVar(r, "id"), c.filters)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hypermedia.ListEnvelope{Results: report})
}

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	c := s.newCall(r)
	ctx, cancel := s.backendContext(r)
	defer cancel()

	perms, err := c.backend.Permissions(ctx, pathVar(r, "id"), c.filters)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if perms == nil {
		perms = []any{}
	}
	httputil.WriteJSON(w, http.StatusOK, hypermedia.ListEnvelope{Results: perms})
}

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	c := s.newCall(r)
	ctx, cancel := s.backendContext(r)
	defer cancel()

	id := pathVar(r, "id")
	page := 0
	if raw := strings.TrimSpace(c.query.Get("page")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}

	reviews, err := c.backend.Reviews(ctx, id, page, c.filters.Without("page"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if reviews == nil {
		reviews = []store.Record{}
	}
	env := hypermedia.ListEnvelope{Results: reviews}
	httputil.WriteJSON(w, http.StatusOK, hypermedia.PaginatePages(env, c.links, id, c.query, len(reviews)))
}

func (s *Server) handleDeveloper(w http.ResponseWriter, r *http.Request) {
	c := s.newCall(r)
	ctx, cancel := s.backendContext(r)
	defer cancel()

	devID := pathVar(r, "id")
	apps, err := c.backend.Developer(ctx, devID, c.filters)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hypermedia.DeveloperEnvelope{
		DevID: devID,
		Apps:  c.normalizer.Apps(apps),
	})
}

// DeveloperGuidance is returned when /developers is hit without an id.
type DeveloperGuidance struct {
	Message string `json:"message"`
	Example string `json:"example"`
}

func (s *Server) handleDeveloperGuidance(w http.ResponseWriter, r *http.Request) {
	links := hypermedia.FromRequest(r, s.basePath, s.trustProxy)
	httputil.WriteJSON(w, http.StatusBadRequest, DeveloperGuidance{
		Message: "Please specify a developer id.",
		Example: links.URL("developers/"+url.PathEscape(exampleDeveloper), nil),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	c := s.newCall(r)
	ctx, cancel := s.backendContext(r)
	defer cancel()

	categories, err := c.backend.Categories(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, categories)
}
