package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("PORTFOLIO_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, StorageCloudinary, cfg.StorageDriver)
	require.Equal(t, 1500*time.Millisecond, cfg.AutosaveDebounce)
	require.Equal(t, 5*time.Minute, cfg.PortfolioCacheTTL)
	require.Equal(t, int64(25*1024*1024), cfg.UploadMaxBytes())
	require.Equal(t, "portfolio.events", cfg.AMQPExchange)
	require.Equal(t, 20, cfg.DBMaxOpenConns)
	require.Equal(t, 30*time.Minute, cfg.DBConnMaxLifetime)
	require.True(t, cfg.IsDevelopment())
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("PORTFOLIO_JWT_SECRET", "secret")
	t.Setenv("PORTFOLIO_APP_PORT", ":9000")
	t.Setenv("PORTFOLIO_STORAGE_DRIVER", "MinIO")
	t.Setenv("PORTFOLIO_AUTOSAVE_DEBOUNCE", "2s")
	t.Setenv("PORTFOLIO_UPLOAD_MAX_SIZE_MB", "10")
	t.Setenv("PORTFOLIO_APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddress())
	require.Equal(t, StorageMinIO, cfg.StorageDriver)
	require.Equal(t, 2*time.Second, cfg.AutosaveDebounce)
	require.Equal(t, int64(10*1024*1024), cfg.UploadMaxBytes())
	require.False(t, cfg.IsDevelopment())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("PORTFOLIO_JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("PORTFOLIO_JWT_SECRET", "secret")
	t.Setenv("PORTFOLIO_STORAGE_DRIVER", "ftp")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("PORTFOLIO_STORAGE_DRIVER", "minio")
	t.Setenv("PORTFOLIO_AUTOSAVE_DEBOUNCE", "soon")
	_, err = Load()
	require.Error(t, err)
}
