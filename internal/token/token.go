// Package token provides identifier generation for projects, videos,
// and webhook correlation tokens.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewWebhookToken creates an unpredictable webhook correlation token.
// The token is embedded in the provider callback URL and is the only
// way an inbound webhook is matched back to a local video record.
func NewWebhookToken() string {
	return uuid.NewString()
}

// NewProjectID creates a new unique project ID.
// Format: prj-<timestamp>-<random>
// Example: prj-1701432000-a1b2c3d4
func NewProjectID() string {
	return generate("prj")
}

// NewVideoID creates a new unique local video ID. It is only used when
// a record must exist before the rendering provider has assigned its
// own job ID; the provider ID becomes canonical once known.
func NewVideoID() string {
	return generate("vid")
}

func generate(prefix string) string {
	timestamp := time.Now().Unix()
	random := make([]byte, 4)
	if _, err := rand.Read(random); err != nil {
		// Fallback to timestamp only if crypto/rand fails
		return fmt.Sprintf("%s-%d", prefix, timestamp)
	}
	return fmt.Sprintf("%s-%d-%s", prefix, timestamp, hex.EncodeToString(random))
}
