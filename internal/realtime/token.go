package realtime

import (
	"github.com/golang-jwt/jwt/v5"
)

// subjectHint extracts the sub claim from a bearer token without
// verifying the signature. The gateway does not authenticate clients;
// the hint only enriches connection logs so operators can correlate
// sessions. Returns "" for missing or malformed tokens.
func subjectHint(token string) string {
	if token == "" {
		return ""
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ""
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return subject
}
