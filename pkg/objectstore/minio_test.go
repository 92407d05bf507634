package objectstore

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestObjectURLUsesPublicBase(t *testing.T) {
	store, err := New(Config{Endpoint: "localhost:9000", Bucket: "portfolio", PublicURL: "https://files.example.com/"}, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "https://files.example.com/portfolio/assignments/1/a.png", store.ObjectURL("/assignments/1/a.png"))

	local, err := New(Config{Endpoint: "localhost:9000", Bucket: "portfolio"}, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "http://localhost:9000/portfolio/x.pdf", local.ObjectURL("x.pdf"))
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Endpoint: "localhost:9000"}, zerolog.Nop())
	require.Error(t, err)
}
