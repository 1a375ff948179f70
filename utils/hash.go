package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// HashText returns the MD5 hex digest used as the content fingerprint for
// generation source texts.
func HashText(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
