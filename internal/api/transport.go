package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// TokenSource supplies bearer tokens and handles their renewal. The session
// manager satisfies this.
type TokenSource interface {
	AccessToken() string
	Refresh(ctx context.Context) (string, error)
}

// authTransport attaches the bearer token to every outgoing request and
// transparently refreshes it on a 401. The singleflight group guarantees at
// most one refresh call is in flight no matter how many requests fail at
// once; every waiter shares the refreshed token and replays its own request.
// A request is replayed at most once; a second 401 goes back to the caller.
type authTransport struct {
	base   http.RoundTripper
	tokens TokenSource
	group  singleflight.Group
	log    zerolog.Logger
}

func newAuthTransport(base http.RoundTripper, tokens TokenSource, log zerolog.Logger) *authTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{base: base, tokens: tokens, log: log}
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)
	attachToken(req, t.tokens.AccessToken())

	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	token, refreshErr, _ := t.group.Do("refresh", func() (any, error) {
		// The refresh outlives the request that tripped it: every waiter
		// shares this one call, so cancelling the triggering request must
		// not kill the refresh for the others.
		return t.tokens.Refresh(context.WithoutCancel(req.Context()))
	})
	if refreshErr != nil {
		t.log.Warn().Err(refreshErr).Str("requestId", requestID).Msg("token refresh failed")
		// The session manager has already forced a logout; the original 401
		// response is what the caller gets to see.
		return resp, nil
	}
	resp.Body.Close()

	retry, err := cloneRequest(req)
	if err != nil {
		return nil, err
	}
	attachToken(retry, token.(string))
	t.log.Debug().Str("requestId", requestID).Msg("replaying request with refreshed token")
	return t.base.RoundTrip(retry)
}

func attachToken(req *http.Request, token string) {
	if token == "" {
		req.Header.Del("Authorization")
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// cloneRequest rebuilds a request for replay, rewinding the body via GetBody.
func cloneRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	return clone, nil
}
