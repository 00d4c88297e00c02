package httputil

import "strings"

// ParseCookieHeader splits a raw Cookie header into name/value pairs.
// Malformed pairs are skipped and the first occurrence of a name wins.
func ParseCookieHeader(header string) map[string]string {
	cookies := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, exists := cookies[name]; exists {
			continue
		}
		cookies[name] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return cookies
}
