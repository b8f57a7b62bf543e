package util

// ShortKeyPrefixLen is how many characters of a public key are kept when
// abbreviating it for logs and result messages.
const ShortKeyPrefixLen = 5

// ShortKey abbreviates a public key to its first few characters followed
// by an ellipsis, e.g. "GBXYZ...". Keys shorter than the prefix are
// returned unchanged.
func ShortKey(publicKey string) string {
	if len(publicKey) <= ShortKeyPrefixLen {
		return publicKey
	}
	return publicKey[:ShortKeyPrefixLen] + "..."
}
