package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// TokenLen is the length of a derived fingerprint token in hex characters.
// 16 chars (64 bits) keeps tokens short enough for rate-limit keys while
// making accidental collisions between unrelated visitors rare. Deliberate
// collisions are an accepted trade-off: the fingerprint is an anti-abuse
// heuristic, not an identity.
const TokenLen = 16

var tokenRe = regexp.MustCompile(`^[0-9a-f]{16}$`)

// Derive produces a stable identity token from a client IP and User-Agent.
// Deterministic and total: the same pair always yields the same token.
func Derive(ip, userAgent string) string {
	h := sha256.Sum256([]byte(ip + "\n" + userAgent))
	return hex.EncodeToString(h[:])[:TokenLen]
}

// Valid reports whether a client-supplied token has the shape of a derived
// token. Clients that persist their token keep a stable identity across
// network changes; a malformed token is simply ignored by callers.
func Valid(token string) bool {
	return tokenRe.MatchString(token)
}

// Resolve returns the client-supplied token when it is well-formed, and
// otherwise derives a fresh one from the request attributes.
func Resolve(clientToken, ip, userAgent string) string {
	clientToken = strings.TrimSpace(strings.ToLower(clientToken))
	if Valid(clientToken) {
		return clientToken
	}
	return Derive(ip, userAgent)
}
