package phonepe

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

const checksumSeparator = "###"

// Checksum builds the X-VERIFY header: sha256(payload + path + salt) followed by ### and the salt index.
// Callback checksums pass an empty path.
func Checksum(payload, path, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(payload + path + saltKey))

	return hex.EncodeToString(sum[:]) + checksumSeparator + saltIndex
}

// VerifyChecksum compares header against the expected checksum in constant time.
func VerifyChecksum(header, payload, path, saltKey, saltIndex string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}

	expected := Checksum(payload, path, saltKey, saltIndex)

	return subtle.ConstantTimeCompare([]byte(strings.ToLower(header)), []byte(strings.ToLower(expected))) == 1
}
