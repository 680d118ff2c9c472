// Package privacy derives the stored form of reporter network origins.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
)

// Hasher turns client addresses into salted one-way digests
type Hasher struct {
	salt string
}

// NewHasher creates a hasher with the configured salt
func NewHasher(salt string) *Hasher {
	return &Hasher{salt: salt}
}

// HashIP returns hex(sha256(ip + salt)). The address is normalised first
// so "::ffff:1.2.3.4" and "1.2.3.4" hash alike.
func (h *Hasher) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(Normalize(ip) + h.salt))
	return hex.EncodeToString(sum[:])
}

// Normalize strips a port and canonicalises the textual address. Values
// that do not parse are returned trimmed.
func Normalize(addr string) string {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if ip := net.ParseIP(addr); ip != nil {
		return ip.String()
	}
	return addr
}
