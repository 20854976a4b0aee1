package utils

import (
	"net/url"
	"regexp"
	"strings"
)

var dsnPasswordRegex = regexp.MustCompile(`(:)([^:@]+)(@)`)

// keyed path segments used by hosted RPC providers, e.g. /v3/<project-id> or /v2/<api-key>.
var rpcKeySegment = regexp.MustCompile(`^(v\d+)$`)

// MaskURL hides credentials embedded in an endpoint URL: userinfo passwords,
// api-key style query parameters and the key segment of hosted RPC paths.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return dsnPasswordRegex.ReplaceAllString(raw, ":***@")
	}

	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}

	if q := u.Query(); len(q) > 0 {
		for k := range q {
			lk := strings.ToLower(k)
			if strings.Contains(lk, "key") || strings.Contains(lk, "token") || strings.Contains(lk, "secret") {
				q.Set(k, "***")
			}
		}
		u.RawQuery = q.Encode()
	}

	segs := strings.Split(u.Path, "/")
	for i := 0; i < len(segs)-1; i++ {
		if rpcKeySegment.MatchString(segs[i]) && segs[i+1] != "" {
			segs[i+1] = "***"
		}
	}
	u.Path = strings.Join(segs, "/")

	return strings.Replace(u.String(), "%2A%2A%2A", "***", -1)
}
