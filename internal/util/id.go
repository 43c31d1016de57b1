package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random 32-hex-digit identifier, optionally tagged with a
// record-type prefix: usr for users, brf for briefings, prj for projects,
// mst for milestones, jti and rft for tokens.
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
