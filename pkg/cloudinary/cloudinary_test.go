package cloudinary

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPublicIDKeepsDirectoriesAndStripsExtension(t *testing.T) {
	require.Equal(t, "assignments/7/ab12cd34-sketch-one", PublicID("assignments/7/ab12cd34-sketch-one.png"))
	require.Equal(t, "assignments/7/my-file", PublicID("/assignments/7/my file!.pdf/"))
	require.Equal(t, "upload", PublicID(".png"))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)
}
