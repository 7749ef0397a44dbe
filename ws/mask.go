package ws

import (
	"crypto/rand"
	"fmt"
	"io"
)

// newMaskKey draws a cryptographically random 32-bit masking key, as RFC
// 6455 Section 5.3 requires: "the masking key needs to be unpredictable;
// thus, the masking key MUST be derived from a strong source of entropy".
//
// The teacher left key generation to the caller; this core always draws
// fresh entropy per frame (see DESIGN.md).
func newMaskKey() ([4]byte, error) {
	var key [4]byte
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, fmt.Errorf("generate masking key: %w", err)
	}
	return key, nil
}
