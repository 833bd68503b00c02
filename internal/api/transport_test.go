package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"crmdesk/internal/api"
)

// fakeTokens is a controllable TokenSource.
type fakeTokens struct {
	mu            sync.Mutex
	token         string
	refreshCalls  int32
	gate          chan struct{} // if non-nil, Refresh blocks until closed
	refreshErr    error
	refreshTo     string
	refreshCtxErr error // ctx.Err() observed by the last Refresh
}

func (f *fakeTokens) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeTokens) Refresh(ctx context.Context) (string, error) {
	atomic.AddInt32(&f.refreshCalls, 1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.refreshCtxErr = ctx.Err()
	f.mu.Unlock()
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	f.mu.Lock()
	f.token = f.refreshTo
	f.mu.Unlock()
	return f.refreshTo, nil
}

func TestSingleFlightRefresh(t *testing.T) {
	const concurrent = 8
	var unauthorized int32
	var served int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T2" {
			atomic.AddInt32(&unauthorized, 1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		atomic.AddInt32(&served, 1)
		json.NewEncoder(w).Encode([]api.Lead{{ID: "l1", Name: "Acme"}})
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "T1", refreshTo: "T2", gate: make(chan struct{})}
	client := api.NewClient(srv.URL, tokens, 10*time.Second, zerolog.Nop())
	leads := api.NewResource[api.Lead](client, "leads")

	// Hold the refresh open until every request has hit the 401, so all of
	// them are in flight against the same refresh at once.
	go func() {
		deadline := time.After(5 * time.Second)
		for atomic.LoadInt32(&unauthorized) < concurrent {
			select {
			case <-deadline:
				close(tokens.gate)
				return
			case <-time.After(5 * time.Millisecond):
			}
		}
		close(tokens.gate)
	}()

	var wg sync.WaitGroup
	errs := make([]error, concurrent)
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = leads.List(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "request %d", i)
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&tokens.refreshCalls), "exactly one refresh call")
	require.Equal(t, int32(concurrent), atomic.LoadInt32(&served), "every request replayed with the new token")
}

func TestRefreshSurvivesCallerCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]api.Lead{{ID: "l1", Name: "Acme"}})
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "T1", refreshTo: "T2", gate: make(chan struct{})}
	client := api.NewClient(srv.URL, tokens, 10*time.Second, zerolog.Nop())
	leads := api.NewResource[api.Lead](client, "leads")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := leads.List(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&tokens.refreshCalls) == 1
	}, 5*time.Second, 5*time.Millisecond)

	// The caller walks away while the refresh is still in flight.
	cancel()
	close(tokens.gate)
	require.ErrorIs(t, <-done, context.Canceled)

	tokens.mu.Lock()
	ctxErr := tokens.refreshCtxErr
	tokens.mu.Unlock()
	require.NoError(t, ctxErr, "refresh must not inherit the caller's cancellation")

	// The refreshed token serves the next caller without another refresh.
	_, err := leads.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&tokens.refreshCalls))
}

func TestRetryOnceGuard(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "T1", refreshTo: "T2"}
	client := api.NewClient(srv.URL, tokens, 10*time.Second, zerolog.Nop())
	leads := api.NewResource[api.Lead](client, "leads")

	_, err := leads.List(context.Background())
	require.ErrorIs(t, err, api.ErrUnauthorized)
	require.Equal(t, int32(2), atomic.LoadInt32(&hits), "original request plus exactly one replay")
	require.Equal(t, int32(1), atomic.LoadInt32(&tokens.refreshCalls))
}

func TestRefreshFailurePropagatesOriginalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "T1", refreshErr: context.DeadlineExceeded}
	client := api.NewClient(srv.URL, tokens, 10*time.Second, zerolog.Nop())
	leads := api.NewResource[api.Lead](client, "leads")

	_, err := leads.List(context.Background())
	require.ErrorIs(t, err, api.ErrUnauthorized)
	require.Equal(t, int32(1), atomic.LoadInt32(&tokens.refreshCalls))
}

func TestBearerHeaderAttached(t *testing.T) {
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("Authorization")
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))
		json.NewEncoder(w).Encode([]api.Lead{})
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "T1"}
	client := api.NewClient(srv.URL, tokens, 10*time.Second, zerolog.Nop())
	leads := api.NewResource[api.Lead](client, "leads")

	_, err := leads.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer T1", header)
}

func TestMutationBodyReplayedAfterRefresh(t *testing.T) {
	var bodies []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(raw))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer T2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(api.Lead{ID: "l1", Name: "Acme"})
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "T1", refreshTo: "T2"}
	client := api.NewClient(srv.URL, tokens, 10*time.Second, zerolog.Nop())
	leads := api.NewResource[api.Lead](client, "leads")

	created, err := leads.Create(context.Background(), api.Lead{Name: "Acme"})
	require.NoError(t, err)
	require.Equal(t, "l1", created.ID)
	require.Len(t, bodies, 2)
	require.Equal(t, bodies[0], bodies[1], "replayed request carries the same body")
}
