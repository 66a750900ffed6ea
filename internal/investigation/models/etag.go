package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ComputeETag hashes the canonical serialization of progress plus version.
// Two snapshots with identical progress and version always hash identically,
// so callers can serve conditional (not-modified) reads from the token alone.
// encoding/json sorts map keys, which makes the serialization canonical.
func ComputeETag(inv *Investigation) string {
	canonical := struct {
		Progress Progress `json:"progress"`
		Version  int64    `json:"version"`
	}{
		Progress: inv.Progress,
		Version:  inv.Version,
	}

	// Marshal of this shape cannot fail: every field is a plain value,
	// slice, or string-keyed map.
	raw, err := json.Marshal(canonical)
	if err != nil {
		raw = fmt.Appendf(nil, "v%d", inv.Version)
	}

	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
