package auth

import (
	"crypto/subtle"
)

// HeaderAPIKey carries the shared secret of callers.
const HeaderAPIKey = "x-api-key"

// Result of verifying a presented credential.
type Result int

const (
	Authorized Result = iota
	Missing
	Invalid
)

func (r Result) String() string {
	switch r {
	case Authorized:
		return "authorized"
	case Missing:
		return "missing"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Guard checks presented credentials against the configured shared secret.
type Guard struct {
	secret []byte
}

func NewGuard(secret string) *Guard {
	return &Guard{secret: []byte(secret)}
}

// Verify compares in constant time. An empty header counts as missing.
// A guard without a configured secret rejects every credential.
func (g *Guard) Verify(presented string, present bool) Result {
	if !present || presented == "" {
		return Missing
	}

	if len(g.secret) == 0 {
		return Invalid
	}

	if subtle.ConstantTimeCompare([]byte(presented), g.secret) != 1 {
		return Invalid
	}

	return Authorized
}
