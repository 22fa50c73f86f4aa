package credentials

import "time"

// Credential holds the token pair issued by the PathPal API together with the
// access token's expiry. AccessToken and RefreshToken are either both set or
// both empty; a partial credential is never stored.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsZero reports whether the credential is absent.
func (c Credential) IsZero() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Complete reports whether both tokens are present.
func (c Credential) Complete() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// Valid reports whether the access token can still be attached to an outbound
// request. margin guards against the token expiring while the request is in
// flight.
func (c Credential) Valid(now time.Time, margin time.Duration) bool {
	if !c.Complete() {
		return false
	}
	return c.ExpiresAt.After(now.Add(margin))
}
