package media

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestImageSearch_FindImage(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the first link", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "image", r.URL.Query().Get("searchType"))
			assert.Equal(t, "Example of Variables in JavaScript", r.URL.Query().Get("q"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"items":[{"link":"https://img.example/vars.png"}]}`)
		}))
		defer srv.Close()

		s, err := NewImageSearch(ctx, "key", "cx", discardLogger(), option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
		require.NoError(t, err)

		link, err := s.FindImage(ctx, "Example of Variables in JavaScript")
		require.NoError(t, err)
		assert.Equal(t, "https://img.example/vars.png", link)
	})

	t.Run("empty result set", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"items":[]}`)
		}))
		defer srv.Close()

		s, err := NewImageSearch(ctx, "key", "cx", discardLogger(), option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
		require.NoError(t, err)

		_, err = s.FindImage(ctx, "nothing")
		assert.ErrorIs(t, err, ErrNoResults)
	})

	t.Run("without credentials", func(t *testing.T) {
		s, err := NewImageSearch(ctx, "", "", discardLogger())
		require.NoError(t, err)
		_, err = s.FindImage(ctx, "x")
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestVideoSearch_FindVideo(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "video", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"items":[{"id":{"kind":"youtube#video","videoId":"abc123"}}]}`)
	}))
	defer srv.Close()

	s, err := NewVideoSearch(ctx, "key", discardLogger(), option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	id, err := s.FindVideo(ctx, "Closures JavaScript in english")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
}

func TestTranscripts_GetTranscript(t *testing.T) {
	ctx := context.Background()

	t.Run("parses and unescapes lines", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "abc123", r.URL.Query().Get("v"))
			assert.Equal(t, "en", r.URL.Query().Get("lang"))
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="utf-8" ?><transcript>`+
				`<text start="0" dur="1.5">hello &amp;#39;world&amp;#39;</text>`+
				`<text start="1.5" dur="1">  </text>`+
				`<text start="2.5" dur="1">second line</text></transcript>`)
		}))
		defer srv.Close()

		tr := NewTranscripts(srv.Client(), srv.URL, "", discardLogger())
		lines, err := tr.GetTranscript(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, []string{"hello 'world'", "second line"}, lines)
	})

	t.Run("empty body means no captions", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer srv.Close()

		_, err := NewTranscripts(srv.Client(), srv.URL, "en", discardLogger()).GetTranscript(ctx, "x")
		assert.ErrorIs(t, err, ErrNoResults)
	})

	t.Run("upstream error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewTranscripts(srv.Client(), srv.URL, "en", discardLogger()).GetTranscript(ctx, "x")
		assert.Error(t, err)
	})
}
