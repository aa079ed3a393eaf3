package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash returns a stable hex digest of the given parts. Parts are length-prefixed
// so ("ab", "c") and ("a", "bc") never collide.
func Hash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s|", len(p), p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func LLMResponseKey(provider, model, argsHash string) string {
	return fmt.Sprintf("llm:response:%s:%s:%s", provider, model, argsHash)
}

func DryRunKey(queryHash string) string {
	return fmt.Sprintf("bq:dryrun:%s", queryHash)
}

func SessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", strings.ReplaceAll(keyPrefix, ":", "_"))
}
