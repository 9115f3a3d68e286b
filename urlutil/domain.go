package urlutil

import (
	"net/url"
	"strings"
)

// BaseDomain reduces a hostname to its approximate registrable domain.
// Government subdomains frequently sit under a two-level state-plus-country
// suffix (e.g. "state.co.us"), where the registrable unit spans four labels
// ("dmv.state.co.us"). For such hosts the last four labels are returned;
// for everything else the last two. This deliberately avoids a public-suffix
// list: the heuristic is exact for the hosts the catalog cares about.
func BaseDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	labels := strings.Split(host, ".")

	if len(labels) >= 4 && labels[len(labels)-1] == "us" && len(labels[len(labels)-2]) == 2 {
		return strings.Join(labels[len(labels)-4:], ".")
	}
	if len(labels) >= 2 {
		return strings.Join(labels[len(labels)-2:], ".")
	}
	return host
}

// IsSuspiciousRedirect reports whether following originalURL ended up on a
// host outside the original trust boundary. It fails open: if either URL
// cannot be parsed the redirect is flagged as suspicious, because a false
// positive costs a manual review while a false negative can hide an expired
// or hijacked domain.
func IsSuspiciousRedirect(originalURL, finalURL string) bool {
	orig, err := url.Parse(originalURL)
	if err != nil || orig.Hostname() == "" {
		return true
	}
	final, err := url.Parse(finalURL)
	if err != nil || final.Hostname() == "" {
		return true
	}

	origHost := strings.ToLower(orig.Hostname())
	finalHost := strings.ToLower(final.Hostname())

	if origHost == finalHost {
		return false
	}
	return BaseDomain(origHost) != BaseDomain(finalHost)
}
