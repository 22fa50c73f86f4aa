package transport_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pathpal/pathpal-go/transport"
)

func TestDoJSONRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/auth/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "a@example.com", body["email"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"T1"}`))
	}))
	defer srv.Close()

	client, err := transport.New(srv.URL, "v1")
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), http.MethodPost, "/auth/login", map[string]string{"email": "a@example.com"}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded map[string]string
	require.NoError(t, resp.Decode(&decoded))
	require.Equal(t, "T1", decoded["access_token"])
}

func TestDoPreservesQueryString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/trips/", r.URL.Path)
		require.Equal(t, "page=2&page_size=20", r.URL.RawQuery)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := transport.New(srv.URL, "v1")
	require.NoError(t, err)

	_, err = client.Do(context.Background(), http.MethodGet, "/trips/?page=2&page_size=20", nil, nil)
	require.NoError(t, err)
}

func TestDoForwardsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer T1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := transport.New(srv.URL, "")
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer T1")
	_, err = client.Do(context.Background(), http.MethodGet, "/auth/me", nil, header)
	require.NoError(t, err)
}

func TestDoRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, "hello", string(raw))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := transport.New(srv.URL, "")
	require.NoError(t, err)

	body := transport.Raw{ContentType: "text/plain", Data: []byte("hello")}
	_, err = client.Do(context.Background(), http.MethodPost, "/upload", body, nil)
	require.NoError(t, err)
}

func TestDoHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := transport.New(srv.URL, "")
	require.NoError(t, err)

	_, err = client.Do(context.Background(), http.MethodGet, "/missing", nil, nil)
	var terr *transport.Error
	require.ErrorAs(t, err, &terr)
	require.Equal(t, transport.KindHTTPStatus, terr.Kind)
	require.Equal(t, http.StatusNotFound, terr.StatusCode)
	require.Contains(t, string(terr.Body), "not found")
	require.False(t, terr.IsAuthFailure())
	require.False(t, terr.Temporary())
}

func TestDo401IsAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := transport.New(srv.URL, "")
	require.NoError(t, err)

	_, err = client.Do(context.Background(), http.MethodGet, "/auth/me", nil, nil)
	var terr *transport.Error
	require.ErrorAs(t, err, &terr)
	require.True(t, terr.IsAuthFailure())
}

func TestDoTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client, err := transport.New(srv.URL, "", transport.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = client.Do(context.Background(), http.MethodGet, "/slow", nil, nil)
	var terr *transport.Error
	require.ErrorAs(t, err, &terr)
	require.Equal(t, transport.KindTimeout, terr.Kind)
	require.True(t, terr.Temporary())
}

func TestDoNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nobody listening any more

	client, err := transport.New(srv.URL, "")
	require.NoError(t, err)

	_, err = client.Do(context.Background(), http.MethodGet, "/anything", nil, nil)
	var terr *transport.Error
	require.ErrorAs(t, err, &terr)
	require.Equal(t, transport.KindNetwork, terr.Kind)
	require.True(t, terr.Temporary())
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := transport.New("ftp://example.com", "")
	require.Error(t, err)

	_, err = transport.New("://nope", "")
	require.Error(t, err)
}
