package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchReminders_MapsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/files/remind", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{"id": 1, "src": "https://cdn.example/1.jpg", "type": "image", "context": "beach", "favorite": true, "tags": ["sea", "sun"]},
				{"id": 2, "src": "https://cdn.example/2.jpg", "type": "text", "context": "note", "favorite": false, "tags": []}
			],
			"message": "ok",
			"status": "success"
		}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok", srv.Client())

	items, err := c.FetchReminders(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "https://cdn.example/1.jpg", items[0].Src)
	assert.True(t, items[0].Favorite)
	assert.Equal(t, []string{"sea", "sun"}, items[0].Tags)
	assert.Equal(t, "text", items[1].Type)
}

func TestFetchReminders_ServerError_IsNotNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", srv.Client())

	_, err := c.FetchReminders(context.Background())
	require.Error(t, err)
	assert.False(t, IsNetworkError(err))
}

func TestFetchReminders_Timeout_IsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", &http.Client{Timeout: 20 * time.Millisecond})

	_, err := c.FetchReminders(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestFetchReminders_UnreachableHost_IsNetwork(t *testing.T) {
	c := NewHTTPClient("http://widget-api.invalid", "", &http.Client{Timeout: 2 * time.Second})

	_, err := c.FetchReminders(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestToggleFavorite_SetUsesPut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/files/7/favorite", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("sortValue"))

		_, _ = w.Write([]byte(`{"data": {"favorite": true}, "status": "success", "message": "ok"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", srv.Client())

	confirmed, err := c.ToggleFavorite(context.Background(), 7, true)
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestToggleFavorite_ClearUsesDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/files/7/favorite", r.URL.Path)

		_, _ = w.Write([]byte(`{"data": {"favorite": false}, "status": "success", "message": "ok"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", srv.Client())

	confirmed, err := c.ToggleFavorite(context.Background(), 7, false)
	require.NoError(t, err)
	assert.False(t, confirmed)
}

func TestToggleFavorite_RejectedByServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", srv.Client())

	_, err := c.ToggleFavorite(context.Background(), 7, true)
	require.Error(t, err)
}
