package usecase

import "crypto/subtle"

// AdminAuth checks admin keys against the configured secret.
type AdminAuth struct {
	secret []byte
}

func NewAdminAuth(secret string) *AdminAuth {
	return &AdminAuth{secret: []byte(secret)}
}

// Authorize reports whether key matches the secret. It always fails when no
// secret is configured.
func (a *AdminAuth) Authorize(key string) bool {
	if len(a.secret) == 0 || key == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(key), a.secret) == 1
}
