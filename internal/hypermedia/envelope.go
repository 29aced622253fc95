package hypermedia

import (
	"net/url"

	"github.com/R3E-Network/appstore_gateway/internal/store"
)

// ListEnvelope wraps every collection response.
type ListEnvelope struct {
	Results any    `json:"results"`
	Prev    string `json:"prev,omitempty"`
	Next    string `json:"next,omitempty"`
}

// DeveloperEnvelope lists the apps of one developer.
type DeveloperEnvelope struct {
	DevID string         `json:"devId"`
	Apps  []store.Record `json:"apps"`
}

// SuggestTerm is one search suggestion linking back to the search endpoint.
type SuggestTerm struct {
	Term string `json:"term"`
	URL  string `json:"url"`
}

// Index links to the top-level collections.
type Index struct {
	Apps       string `json:"apps"`
	Developers string `json:"developers"`
	Categories string `json:"categories"`
}

// NewIndex builds the root index.
func NewIndex(links Builder) Index {
	return Index{
		Apps:       links.URL("apps", nil),
		Developers: links.URL("developers", nil),
		Categories: links.URL("categories", nil),
	}
}

// SuggestTerms links each term to a search for it on the same store.
func SuggestTerms(links Builder, os store.OS, terms []string) []SuggestTerm {
	out := make([]SuggestTerm, 0, len(terms))
	for _, term := range terms {
		out = append(out, SuggestTerm{
			Term: term,
			URL:  links.URL("apps", url.Values{"q": {term}, "os": {os.String()}}),
		})
	}
	return out
}
