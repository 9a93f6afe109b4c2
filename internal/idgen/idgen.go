// Package idgen generates run and client order identifiers.
package idgen

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// NewRunID returns a short, url-safe run identifier:
// "run-" + base58 of 8 random bytes.
func NewRunID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand is documented to never fail on supported platforms;
		// fall back to a timestamp id rather than panic in the hot path.
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return "run-" + base58.Encode(buf)
}

// NewClientOrderID returns a UUIDv4 client order id used for idempotent
// order submission.
func NewClientOrderID() string {
	return uuid.NewString()
}
