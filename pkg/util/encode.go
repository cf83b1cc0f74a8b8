package util

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// Sha256Hex returns the lowercase hex digest of data
func Sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Sha256 returns the raw digest of data
func Sha256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Base64Encode encodes with the standard padded alphabet
func Base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Base64Decode decodes the standard padded alphabet
func Base64Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// Base64URLDecode decodes the URL-safe alphabet without padding,
// the encoding JWK coordinates use
func Base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
