package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/pathpal/pathpal-go/credentials"
)

// tokenResponse is the body of the login and refresh endpoints.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// parseAccessToken pulls the subject and expiry claims out of the access
// token. The signature is not verified — only the backend holds the key; the
// claims are used for display and refresh scheduling, never for trust
// decisions.
func parseAccessToken(raw string) (userID string, expiresAt time.Time, err error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return "", time.Time{}, errors.Wrap(err, "[parseAccessToken] parse")
	}

	userID, err = claims.GetSubject()
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "[parseAccessToken] sub claim")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return userID, time.Time{}, nil
	}
	return userID, exp.Time, nil
}

// credentialFrom converts a token response into a credential. When the
// response omits expires_in, the expiry falls back to the access token's exp
// claim. When rotation returns no new refresh token, the previous one is
// kept.
func credentialFrom(tr tokenResponse, previousRefresh string, now time.Time) (credentials.Credential, error) {
	if tr.AccessToken == "" {
		return credentials.Credential{}, errors.New("[credentialFrom] response missing access token")
	}

	refresh := tr.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}
	if refresh == "" {
		return credentials.Credential{}, errors.New("[credentialFrom] response missing refresh token")
	}

	expiresAt := now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	if tr.ExpiresIn <= 0 {
		_, exp, err := parseAccessToken(tr.AccessToken)
		if err != nil || exp.IsZero() {
			return credentials.Credential{}, errors.New("[credentialFrom] cannot determine expiry")
		}
		expiresAt = exp
	}

	return credentials.Credential{
		AccessToken:  tr.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}
