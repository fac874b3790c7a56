package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// AnyProvider is the provider slot used in single-mode fingerprints, where the
// cached result may come from whichever candidate won the fallback chain.
const AnyProvider = "any"

// Fingerprint derives the cache key for a request. The content itself is
// digested first so that large payloads hash in one pass and the key stays a
// fixed size. Identical logical requests always map to the same fingerprint.
func Fingerprint(req Request, providerID string) string {
	if providerID == "" {
		providerID = AnyProvider
	}
	digest := sha256.Sum256([]byte(req.Content))
	key := fmt.Sprintf("%s|%s|%s|%s", hex.EncodeToString(digest[:]), req.ContentType, req.Task, providerID)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ContentDigest returns the hex digest of the raw content, used when
// persisting analysis records without storing the payload itself.
func ContentDigest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
