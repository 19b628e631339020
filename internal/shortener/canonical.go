package shortener

import (
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Canonicalize reduces a URL to the form used for duplicate detection:
//   - surrounding whitespace is trimmed
//   - scheme and host are lowercased, path/query/fragment keep their case
//   - default ports (80 for http, 443 for https) are dropped
//   - dot segments are resolved, repeated slashes collapsed, a trailing slash
//     removed (an empty path becomes "/")
//   - query pairs are sorted by key, then value, using byte order
//   - an empty query, including a bare "?", is dropped
//   - the fragment is passed through unchanged
//
// Canonicalize(Canonicalize(x)) == Canonicalize(x) for every accepted x.
func Canonicalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: url is empty", ErrMalformedURL)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedURL, err)
	}

	if u.Scheme == "" || u.Opaque != "" || u.Host == "" {
		return "", fmt.Errorf("%w: url must be absolute (with scheme and host)", ErrMalformedURL)
	}

	scheme := strings.ToLower(u.Scheme)

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: url has no host", ErrMalformedURL)
	}

	port := u.Port()
	if port == defaultPorts[scheme] {
		port = ""
	}

	var b strings.Builder

	b.WriteString(scheme)
	b.WriteString("://")

	if u.User != nil {
		b.WriteString(u.User.String())
		b.WriteByte('@')
	}

	if strings.Contains(host, ":") {
		// The zone separator must be escaped inside the brackets.
		b.WriteString("[" + strings.Replace(host, "%", "%25", 1) + "]")
	} else {
		b.WriteString(host)
	}

	if port != "" {
		b.WriteString(":" + port)
	}

	b.WriteString(canonicalPath(u.EscapedPath()))

	if query := canonicalQuery(u.RawQuery); query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}

	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.EscapedFragment())
	}

	return b.String(), nil
}

func canonicalPath(p string) string {
	if p == "" {
		return "/"
	}

	// path.Clean collapses "//", resolves "." and ".." and drops the trailing slash.
	return path.Clean("/" + p)
}

type queryPair struct {
	key   string
	value string
}

func canonicalQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	var pairs []queryPair

	for segment := range strings.SplitSeq(rawQuery, "&") {
		if segment == "" {
			continue
		}

		key, value, _ := strings.Cut(segment, "=")
		pairs = append(pairs, queryPair{key: key, value: value})
	}

	slices.SortStableFunc(pairs, func(a, b queryPair) int {
		if c := strings.Compare(a.key, b.key); c != 0 {
			return c
		}

		return strings.Compare(a.value, b.value)
	})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.key + "=" + p.value
	}

	return strings.Join(parts, "&")
}
