package obs

import (
	"crypto/sha256"
	"encoding/base64"
)

// authToken answers an obs-websocket authentication challenge. The secret
// is base64(sha256(password + salt)); the token sent back is
// base64(sha256(secret + challenge)).
func authToken(password, salt, challenge string) string {
	secret := base64.StdEncoding.EncodeToString(sha256sum(password + salt))
	return base64.StdEncoding.EncodeToString(sha256sum(secret + challenge))
}

func sha256sum(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}
