package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"crmdesk/internal/api"
	"crmdesk/internal/notify"
	"crmdesk/internal/session"
	"crmdesk/internal/storage"
)

func serveLeads(mux *http.ServeMux) {
	mux.HandleFunc("/leads", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]api.Lead{
			{ID: "l1", Name: "Acme"},
			{ID: "l2", Name: "Globex"},
		})
	})
}

func newTestModel(t *testing.T, mux *http.ServeMux) (*model, *session.Manager, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	store, err := storage.Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	mgr := session.NewManager(context.Background(), srv.URL, srv.Client(), store, zerolog.Nop())
	client := api.NewClient(srv.URL, mgr, 5*time.Second, zerolog.Nop())
	m := newModel(Deps{Session: mgr, Resources: api.NewResources(client), Store: store})
	return m, mgr, srv
}

func TestListenerStartsAfterLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"token":        "T1",
			"refreshToken": "R1",
			"user":         map[string]any{"id": "u1", "name": "Ada"},
		})
	})
	dialed := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		dialed <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.WriteJSON(notify.Event{Type: "lead", Message: "created", CreatedAt: time.Now()})
		conn.Close()
	})

	m, mgr, srv := newTestModel(t, mux)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	m.deps.Listener = notify.NewListener(wsURL, mgr, zerolog.Nop())

	require.Equal(t, stateLogin, m.state)
	require.False(t, m.listening, "no stream before a session exists")

	require.NoError(t, mgr.Login(context.Background(), "ada@example.com", "pw", false))
	_, cmd := m.Update(loginResultMsg{})
	require.Equal(t, stateMainMenu, m.state)
	require.True(t, m.listening)
	require.NotNil(t, cmd)

	select {
	case header := <-dialed:
		require.Equal(t, "Bearer T1", header)
	case <-time.After(2 * time.Second):
		t.Fatal("listener never dialed")
	}

	m.resetToLogin("signed out")
	require.False(t, m.listening, "stream stops with the session")
}

func TestCancelledLoadKeepsRows(t *testing.T) {
	mux := http.NewServeMux()
	serveLeads(mux)
	m, _, _ := newTestModel(t, mux)
	p := m.panes["leads"].(*entityPane[api.Lead])

	p.update(m, p.loadCmd(context.Background())())
	require.Len(t, p.tbl.Rows(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.update(m, p.loadCmd(ctx)())

	require.Len(t, p.tbl.Rows(), 2, "a stale cancelled load leaves the table alone")
	require.Empty(t, p.err)
	require.False(t, p.loading)
}

func TestSearchTermSurvivesEnter(t *testing.T) {
	mux := http.NewServeMux()
	serveLeads(mux)
	m, _, _ := newTestModel(t, mux)
	p := m.panes["leads"].(*entityPane[api.Lead])
	p.update(m, p.loadCmd(context.Background())())

	p.filter.SetValue("acme")
	p.tbl.SetFilter("acme")
	p.update(m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, "acme", p.filter.Value(), "a search term is not a command")
	require.Equal(t, "acme", p.tbl.Filter())
	require.Equal(t, 1, p.tbl.FilteredCount())
}

func TestCommandClearsSearchBeforeRunning(t *testing.T) {
	mux := http.NewServeMux()
	serveLeads(mux)
	m, _, _ := newTestModel(t, mux)
	p := m.panes["leads"].(*entityPane[api.Lead])
	p.update(m, p.loadCmd(context.Background())())

	p.filter.SetValue("help")
	p.tbl.SetFilter("help")
	p.update(m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Empty(t, p.filter.Value())
	require.Empty(t, p.tbl.Filter())
	require.Contains(t, p.info, "add | edit N")
}

func TestPadTruncatesByRunes(t *testing.T) {
	out := pad("héllo wörld", 6)
	require.True(t, utf8.ValidString(out))
	require.Equal(t, "héllo…", out)

	require.Equal(t, "ab  ", pad("ab", 4))
	require.Equal(t, "éé", pad("éé", 2))
}
