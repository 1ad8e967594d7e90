// Package adminauth checks the shared bearer token that guards the admin HTTP
// routes and the gRPC service.
package adminauth

import (
	"crypto/subtle"
	"strings"
)

const scheme = "Bearer"

// Check reports whether header is "Bearer <token>". An empty token rejects
// every header, so an unconfigured deployment keeps admin access closed.
func Check(header, token string) bool {
	if token == "" {
		return false
	}
	s, cred, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(s, scheme) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(cred)), []byte(token)) == 1
}

// Header formats token for the Authorization header or gRPC metadata.
func Header(token string) string {
	return scheme + " " + token
}
