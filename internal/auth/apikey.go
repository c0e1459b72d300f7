// Package auth provides simple API key authentication for the HTTP
// surface.
package auth

// APIKeyAuth validates requests against a fixed key set. An empty key
// set disables authentication entirely (development mode).
type APIKeyAuth struct {
	validKeys map[string]struct{}
}

// NewAPIKeyAuth creates the authenticator from a list of accepted keys.
func NewAPIKeyAuth(keys []string) *APIKeyAuth {
	validKeys := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		validKeys[key] = struct{}{}
	}

	return &APIKeyAuth{validKeys: validKeys}
}

// Open reports whether authentication is disabled.
func (a *APIKeyAuth) Open() bool {
	return len(a.validKeys) == 0
}

// IsValidKey checks if a key is accepted.
func (a *APIKeyAuth) IsValidKey(key string) bool {
	_, valid := a.validKeys[key]
	return valid
}
