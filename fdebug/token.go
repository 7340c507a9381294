package fdebug

import (
	"sync"
	"time"

	"github.com/mediocregopher/florun/fsym"
	"github.com/mediocregopher/florun/mcrypto"
)

// tokenCache mints a stable mcrypto.UUID the first time an anonymous
// symbol (one with no name assigned via fsym.WithName) is shown by the
// debug server, and returns the same UUID on every later lookup -- giving
// unnamed symbols a display identity that's stable for the life of the
// server, without requiring fsym.Symbol itself to carry one.
type tokenCache struct {
	mu     sync.Mutex
	tokens map[fsym.Symbol]mcrypto.UUID
}

func newTokenCache() *tokenCache {
	return &tokenCache{tokens: map[fsym.Symbol]mcrypto.UUID{}}
}

func (tc *tokenCache) tokenFor(sym fsym.Symbol) string {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tok, ok := tc.tokens[sym]; ok {
		return tok.String()
	}
	tok := mcrypto.NewUUID(time.Now())
	tc.tokens[sym] = tok
	return tok.String()
}
