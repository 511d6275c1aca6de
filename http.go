package auth

import "strings"

const bearerScheme = "Bearer"

// ExtractBearerToken parses an "Authorization: Bearer <token>" header value.
// It reports false on an absent or malformed header instead of returning an
// error; callers decide how to react to absence.
func ExtractBearerToken(headerValue string) (string, bool) {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(headerValue, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
