package iscraper

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"unicode"
)

var errInvalidProfileURL = errors.New("profile URL is invalid")

// ParseID extracts the profile identifier from a LinkedIn personal or company
// profile URL: the last segment of the escaped path, trailing slashes removed
// and surrounding spaces (raw or %20) trimmed. Percent-escapes inside the
// segment are kept, so a%2Fb stays one id. It does not touch the network.
func ParseID(rawURL string) (string, error) {
	u, ok := parseAbsoluteURL(rawURL)
	if !ok {
		return "", invalidInput("parse-id", errInvalidProfileURL)
	}

	p := strings.TrimRight(u.EscapedPath(), "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return trimEscapedSpace(p), nil
}

func trimEscapedSpace(s string) string {
	for {
		t := strings.TrimSpace(s)
		t = strings.TrimPrefix(t, "%20")
		t = strings.TrimSuffix(t, "%20")
		if t == s {
			return t
		}
		s = t
	}
}

// parseAbsoluteURL accepts http(s) URLs with a plausible host and no
// embedded whitespace.
func parseAbsoluteURL(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.IndexFunc(raw, unicode.IsSpace) >= 0 {
		return nil, false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, false
	}
	if u.Opaque != "" {
		return nil, false
	}
	return u, validHost(u.Hostname())
}

func validHost(host string) bool {
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") || net.ParseIP(host) != nil {
		return true
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" || strings.HasPrefix(l, "-") || strings.HasSuffix(l, "-") {
			return false
		}
		for _, r := range l {
			if r != '-' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}
