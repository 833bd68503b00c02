package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// State describes where the session is in its lifecycle.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// UserRecord is the authenticated user as returned by login/refresh.
type UserRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
	ProfileImage string   `json:"profileImage,omitempty"`
}

// Session holds the current credentials and user.
type Session struct {
	User         *UserRecord
	AccessToken  string
	RefreshToken string
}

// Authenticated reports whether a live access token is present.
func (s Session) Authenticated() bool {
	return tokenLive(s.AccessToken, time.Now())
}

// tokenLive checks the JWT exp claim without verifying the signature; the
// client has no signing key and only needs to know whether the token is
// worth sending. Tokens that do not parse or carry no exp count as live
// until the server rejects them.
func tokenLive(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.After(now)
}
