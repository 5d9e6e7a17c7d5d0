package onenote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foomo/onenote-mcp/hierarchy"
)

func newBridge(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var requests []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /session", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sessionId":"s-1"}`))
	})
	mux.HandleFunc("DELETE /session/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /hierarchy", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") == "nope" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<one:Notebooks xmlns:one="` + hierarchy.Namespace + `"/>`))
	})
	mux.HandleFunc("GET /pages/{id}/links/{eid}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("onenote:#page-id=" + r.PathValue("id") + "\n"))
	})
	mux.HandleFunc("PUT /pages/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Method+" "+r.URL.Path+" session="+r.Header.Get("X-OneNote-Session"))
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestClientSessionLifecycle(t *testing.T) {
	server, requests := newBridge(t)
	ctx := context.Background()

	client, err := Connect(ctx, server.URL, server.Client())
	require.NoError(t, err)

	raw, err := client.FetchHierarchy(ctx, hierarchy.ScopePages, "")
	require.NoError(t, err)
	assert.Contains(t, raw, "one:Notebooks")

	link, err := client.ResolveLinkTarget(ctx, "pg-1", "obj-a")
	require.NoError(t, err)
	assert.Equal(t, "onenote:#page-id=pg-1", link)

	pageXML := `<one:Page xmlns:one="` + hierarchy.Namespace + `" ID="pg-1"><one:Title/></one:Page>`
	require.NoError(t, client.PersistPageContent(ctx, pageXML))

	require.NoError(t, client.Close(ctx))
	// Closing twice is safe; the session is only released once.
	require.NoError(t, client.Close(ctx))

	assert.Equal(t, []string{
		"POST /session session=",
		"GET /hierarchy session=s-1",
		"GET /pages/pg-1/links/obj-a session=s-1",
		"PUT /pages/pg-1 session=s-1",
		"DELETE /session/s-1 session=s-1",
	}, *requests)
}

func TestClientPersistRejectsContentWithoutPageID(t *testing.T) {
	server, requests := newBridge(t)
	ctx := context.Background()

	client, err := Connect(ctx, server.URL, server.Client())
	require.NoError(t, err)
	defer client.Close(ctx) //nolint:errcheck

	err = client.PersistPageContent(ctx, `<one:Page xmlns:one="`+hierarchy.Namespace+`"/>`)
	require.ErrorContains(t, err, "no page ID")
	assert.Len(t, *requests, 1, "nothing reaches the bridge")
}

func TestClientCloseSurfacesReleaseFailure(t *testing.T) {
	ctx := context.Background()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"sessionId":"s-1"}`))
			return
		}
		http.Error(w, "session store unavailable", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := Connect(ctx, server.URL, server.Client())
	require.NoError(t, err)

	err = client.Close(ctx)
	require.ErrorContains(t, err, "failed to release host session")
	require.ErrorContains(t, err, "status: 500")
}

func TestClientMapsNotFound(t *testing.T) {
	server, _ := newBridge(t)
	ctx := context.Background()

	client, err := Connect(ctx, server.URL, server.Client())
	require.NoError(t, err)
	defer client.Close(ctx) //nolint:errcheck

	_, err = client.FetchHierarchy(ctx, hierarchy.ScopeSelf, "nope")
	require.ErrorIs(t, err, ErrNodeNotFound)
}
