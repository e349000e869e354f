package content

import (
	"net/url"
	"strings"
)

// Tracking parameters stripped during URL normalization. Any parameter
// with a "utm_" prefix is stripped as well.
var trackingParams = map[string]bool{
	"gclid":  true,
	"fbclid": true,
	"mc_cid": true,
	"mc_eid": true,
	"ref":    true,
	"igshid": true,
}

// NormalizeURL canonicalizes a URL so the same resource always maps to the
// same dedup key: tracking query parameters, the trailing slash of non-root
// paths, and the fragment are removed. Input that cannot be parsed is
// returned unchanged; normalization never fails the caller.
// Normalizing is idempotent.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	query := u.Query()
	for param := range query {
		if strings.HasPrefix(strings.ToLower(param), "utm_") || trackingParams[strings.ToLower(param)] {
			query.Del(param)
		}
	}
	u.RawQuery = query.Encode()

	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	u.Fragment = ""
	u.RawFragment = ""

	return u.String()
}
