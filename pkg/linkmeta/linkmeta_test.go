package linkmeta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=abc":    KindYouTube,
		"https://youtu.be/abc":                   KindYouTube,
		"https://vimeo.com/12345":                KindVimeo,
		"https://drive.google.com/file/d/x/view": KindDrive,
		"https://example.org/post":               KindLink,
		"::not a url":                            KindLink,
	}
	for input, want := range cases {
		require.Equal(t, want, Classify(input), input)
	}
}

func TestTitleUsesOEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "https://youtu.be/abc", r.URL.Query().Get("url"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"  Volcano timelapse "}`))
	}))
	defer server.Close()

	fetcher := New(time.Second, Endpoints{KindYouTube: server.URL}, zerolog.Nop())
	title, err := fetcher.Title(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	require.Equal(t, "Volcano timelapse", title)
}

func TestTitleFailsOnProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := New(time.Second, Endpoints{KindVimeo: server.URL}, zerolog.Nop())
	_, err := fetcher.Title(context.Background(), "https://vimeo.com/1")
	require.Error(t, err)
}

func TestTitleFailsOnEmptyTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"title":""}`))
	}))
	defer server.Close()

	fetcher := New(time.Second, Endpoints{KindVimeo: server.URL}, zerolog.Nop())
	_, err := fetcher.Title(context.Background(), "https://vimeo.com/1")
	require.ErrorIs(t, err, ErrNoTitle)
}

func TestTitleFallsBackToHost(t *testing.T) {
	fetcher := New(time.Second, Endpoints{}, zerolog.Nop())
	title, err := fetcher.Title(context.Background(), "https://www.example.org/post")
	require.NoError(t, err)
	require.Equal(t, "example.org", title)
}
