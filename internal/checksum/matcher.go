package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// HexSHA256 returns the lowercase hex SHA-256 digest of data.
func HexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Matcher verifies uploaded statement bytes against a client-supplied digest.
type Matcher struct {
	expectedChecksum string
}

// NewMatcher creates a Matcher with the expected hex digest.
func NewMatcher(expectedChecksum string) *Matcher {
	return &Matcher{expectedChecksum: strings.ToLower(strings.TrimSpace(expectedChecksum))}
}

// Match checks if the provided data's checksum matches the expected checksum.
func (m *Matcher) Match(data []byte) (bool, error) {
	if m.expectedChecksum == "" {
		return false, errors.New("expected checksum is not set")
	}
	return HexSHA256(data) == m.expectedChecksum, nil
}
