package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"crmdesk/internal/api"
)

func newEnvelopeServer(t *testing.T, payload string) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, &fakeTokens{token: "T1"}, 5*time.Second, zerolog.Nop())
}

func TestListDecodesBareArray(t *testing.T) {
	client := newEnvelopeServer(t, `[{"id":"c1","name":"Ada"},{"id":"c2","name":"Grace"}]`)
	contacts := api.NewResource[api.Contact](client, "contacts")

	items, err := contacts.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Ada", items[0].Name)
}

func TestListDecodesItemsEnvelope(t *testing.T) {
	client := newEnvelopeServer(t, `{"items":[{"id":"c1","name":"Ada"}]}`)
	contacts := api.NewResource[api.Contact](client, "contacts")

	items, err := contacts.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestListDecodesSuccessDataEnvelope(t *testing.T) {
	client := newEnvelopeServer(t, `{"success":true,"data":[{"id":"c1","name":"Ada"}]}`)
	contacts := api.NewResource[api.Contact](client, "contacts")

	items, err := contacts.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestListRejectsUnknownEnvelope(t *testing.T) {
	client := newEnvelopeServer(t, `{"records":[]}`)
	contacts := api.NewResource[api.Contact](client, "contacts")

	_, err := contacts.List(context.Background())
	require.Error(t, err)
}

func TestListEmptyBody(t *testing.T) {
	client := newEnvelopeServer(t, ``)
	contacts := api.NewResource[api.Contact](client, "contacts")

	items, err := contacts.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"name is required"}`))
	}))
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL, &fakeTokens{token: "T1"}, 5*time.Second, zerolog.Nop())
	leads := api.NewResource[api.Lead](client, "leads")

	_, err := leads.Create(context.Background(), api.Lead{})
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	require.Equal(t, "name is required", apiErr.Message)
}

func TestDeleteSendsNoBody(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL, &fakeTokens{token: "T1"}, 5*time.Second, zerolog.Nop())
	tasks := api.NewResource[api.Task](client, "tasks")

	require.NoError(t, tasks.Delete(context.Background(), "t9"))
	require.Equal(t, http.MethodDelete, method)
	require.Equal(t, "/tasks/t9", path)
}
