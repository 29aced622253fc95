package hypermedia

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/R3E-Network/appstore_gateway/internal/store"
)

// DeveloperLink replaces the raw developer field of an app.
type DeveloperLink struct {
	DevID string `json:"devId"`
	URL   string `json:"url"`
}

// Normalizer maps raw store records to the canonical app shape for one
// request.
type Normalizer struct {
	links Builder
	os    store.OS
}

// NewNormalizer binds a normalizer to the request's link builder and store.
func NewNormalizer(links Builder, os store.OS) Normalizer {
	return Normalizer{links: links, os: os}
}

// osQuery is attached to every app link so follow-up calls hit the same store.
func (n Normalizer) osQuery() url.Values {
	return url.Values{"os": {n.os.String()}}
}

// App returns a normalized copy of raw. raw itself is left untouched.
func (n Normalizer) App(raw store.Record) store.Record {
	app := raw.Clone()
	q := n.osQuery()

	appPath := "apps/" + url.PathEscape(stringOf(raw["appId"]))
	developerName := stringOf(raw["developer"])
	developerID := stringOf(raw["developerId"])

	devID := developerID
	if devID == "" {
		devID = developerName
	}
	if developerName == "" {
		developerName = developerID
	}

	app["playstoreUrl"] = raw["url"]
	app["url"] = n.links.URL(appPath, q)
	app["permissions"] = n.links.URL(appPath+"/permissions", q)
	app["similar"] = n.links.URL(appPath+"/similar", q)
	app["reviews"] = n.links.URL(appPath+"/reviews", q)
	app["datasafety"] = n.links.URL(appPath+"/datasafety", q)
	app["developerName"] = developerName
	app["developer"] = DeveloperLink{
		DevID: devID,
		URL:   n.links.URL("developers/"+url.PathEscape(devID), q),
	}
	// Category links always point at the flat root listing.
	app["categories"] = n.links.URL("categories", q)

	return app
}

// Apps normalizes every record; the result is never nil.
func (n Normalizer) Apps(raw []store.Record) []store.Record {
	out := make([]store.Record, 0, len(raw))
	for _, rec := range raw {
		out = append(out, n.App(rec))
	}
	return out
}

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64, int, int64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}
