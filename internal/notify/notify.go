// Package notify receives push notifications from the backend over a
// websocket. The stream is fire-and-forget: there is no acknowledgement and
// no reconnect; a broken connection just ends the feed.
package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Event is one pushed notification.
type Event struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Listener consumes the notification stream.
type Listener struct {
	url    string
	tokens interface{ AccessToken() string }
	log    zerolog.Logger
}

// NewListener builds a listener for the given websocket URL.
func NewListener(url string, tokens interface{ AccessToken() string }, log zerolog.Logger) *Listener {
	return &Listener{url: url, tokens: tokens, log: log.With().Str("component", "notify").Logger()}
}

// Listen dials the stream and forwards decoded events until the context is
// cancelled or the connection drops. The channel is closed on return.
func (l *Listener) Listen(ctx context.Context, events chan<- Event) {
	defer close(events)
	if l.url == "" {
		return
	}

	header := http.Header{}
	if token := l.tokens.AccessToken(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.url, header)
	if err != nil {
		l.log.Warn().Err(err).Msg("notification stream unavailable")
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var event Event
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() == nil {
				l.log.Debug().Err(err).Msg("notification stream closed")
			}
			return
		}
		select {
		case events <- event:
		case <-ctx.Done():
			return
		}
	}
}
