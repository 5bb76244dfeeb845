package nats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strugal/inventory-platform/pkg/logger"
)

func TestConnectOptions_Plain(t *testing.T) {
	opts, err := connectOptions(Config{URL: "nats://localhost:4222"}, logger.NewNop())
	require.NoError(t, err)
	require.NotEmpty(t, opts)

	withToken, err := connectOptions(Config{URL: "nats://localhost:4222", Token: "s3cret"}, logger.NewNop())
	require.NoError(t, err)
	require.Len(t, withToken, len(opts)+1)
}

func TestCreateTLSConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(bogus, []byte("not a certificate"), 0o600))

	_, err := createTLSConfig(filepath.Join(dir, "missing.pem"), "", "")
	require.ErrorContains(t, err, "failed to read CA file")

	_, err = createTLSConfig(bogus, "", "")
	require.ErrorContains(t, err, "failed to parse CA certificate")

	_, err = createTLSConfig("", "client.pem", "")
	require.ErrorContains(t, err, "must be set together")

	_, err = connectOptions(Config{CAFile: filepath.Join(dir, "missing.pem")}, logger.NewNop())
	require.ErrorContains(t, err, "failed to create TLS config")
}

func TestCreateTLSConfig_NoFiles(t *testing.T) {
	cfg, err := createTLSConfig("", "", "")
	require.NoError(t, err)
	require.Nil(t, cfg.RootCAs)
	require.Empty(t, cfg.Certificates)
}
