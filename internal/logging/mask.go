package logging

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskChar is the character used for masking.
const MaskChar = "*"

// sensitiveKeywords mark attribute keys whose values are never logged.
var sensitiveKeywords = []string{
	"token", "secret", "password", "api_key", "apikey",
	"authorization", "credential", "private_key",
}

// urlPattern matches HTTP(S) URLs.
var urlPattern = regexp.MustCompile(`https?://[^\s"']+`)

// IsSensitiveField checks if a field name indicates sensitive data.
func IsSensitiveField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MaskValue masks a sensitive value completely.
func MaskValue(value string) string {
	if value == "" {
		return ""
	}
	return strings.Repeat(MaskChar, min(len(value), 8))
}

// MaskURL keeps scheme and host and hides path, query and userinfo, which is
// where webhook secrets live. Local URLs are left alone.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return MaskValue(raw)
	}
	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" {
		return raw
	}
	if (u.Path == "" || u.Path == "/") && u.RawQuery == "" && u.User == nil {
		return raw
	}
	return u.Scheme + "://" + u.Host + "/" + strings.Repeat(MaskChar, 3)
}

// MaskString masks every URL found in s.
func MaskString(s string) string {
	return urlPattern.ReplaceAllStringFunc(s, MaskURL)
}

// maskAttr is the slog ReplaceAttr hook applied by every handler.
func maskAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}
	if IsSensitiveField(a.Key) {
		return slog.String(a.Key, MaskValue(a.Value.String()))
	}
	if strings.Contains(a.Value.String(), "://") {
		return slog.String(a.Key, MaskString(a.Value.String()))
	}
	return a
}
