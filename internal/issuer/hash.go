package issuer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// ClientSecretHash derives the stable cache-key component for a client. The
// client identifier is HMAC-SHA256 digested, keyed by the client secret, and
// base64 encoded. The transform is deterministic across process restarts (no
// per-process salt) and one-way: the secret never appears in durable state or
// logs in any other form.
func ClientSecretHash(clientID, clientSecret string) string {
	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
