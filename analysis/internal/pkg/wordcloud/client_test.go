package wordcloud

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderBuildsWordListQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wordcloud", r.URL.Path)

		q := r.URL.Query()
		require.Equal(t, "hello,world,café", q.Get("text"))
		require.Equal(t, "true", q.Get("useWordList"))
		require.Equal(t, "true", q.Get("removeStopwords"))
		require.Equal(t, "png", q.Get("format"))
		require.Equal(t, "600", q.Get("width"))
		require.Equal(t, "600", q.Get("height"))

		w.Write([]byte("image bytes"))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	img, err := c.Render(context.Background(), []string{"hello", "world", "café"})
	require.NoError(t, err)
	require.Equal(t, []byte("image bytes"), img)
}

func TestRenderSurfacesUpstreamErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many words", http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.Render(context.Background(), []string{"a"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
}

func TestRenderTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := NewClient(server.URL)
	_, err := c.Render(context.Background(), []string{"a"})
	require.Error(t, err)
}
