package str

import "strings"

// Mask will mask a string by replacing the middle with asterisks.
func Mask(s string) string {
	l := len(s)
	if l == 0 {
		return s
	}
	if l <= 4 {
		return strings.Repeat("*", l)
	}
	h := l / 2
	return s[0:h] + strings.Repeat("*", l-h)
}

// MaskAuthQuery masks the value of the Authorization query parameter in a URL
// string so credentials never end up in log output. The credential is placed
// raw (unencoded) in our URLs, so this works on the string directly instead of
// going through net/url.
func MaskAuthQuery(u string) string {
	const marker = "Authorization="
	i := strings.Index(u, marker)
	if i == -1 {
		return u
	}
	start := i + len(marker)
	return u[:start] + Mask(u[start:])
}
