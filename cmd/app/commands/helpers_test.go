package commands

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoService "github.com/allisson/rotavault/internal/crypto/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestManager returns a keyring with cheap key derivation.
func newTestManager(t *testing.T, initialVersion uint) *cryptoService.EncryptionManager {
	t.Helper()
	manager, err := cryptoService.NewEncryptionManager(
		[]byte("commands-test-passphrase"),
		initialVersion,
		cryptoService.WithKeyDeriver(cryptoService.NewArgon2KDF(cryptoService.KDFParams{
			Time:      1,
			MemoryKiB: 64,
			Threads:   1,
		})),
	)
	require.NoError(t, err)
	t.Cleanup(manager.Close)
	return manager
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, validateFormat(FormatText))
	assert.NoError(t, validateFormat(FormatJSON))
	assert.ErrorContains(t, validateFormat("yaml"), "invalid format: yaml")
}

func TestReadLine(t *testing.T) {
	line, err := readLine(bytes.NewBufferString("correct horse\r\nsecond line\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("correct horse"), line)

	line, err = readLine(bytes.NewBufferString("no newline"))
	require.NoError(t, err)
	assert.Equal(t, []byte("no newline"), line)

	line, err = readLine(&bytes.Buffer{})
	require.NoError(t, err)
	assert.Empty(t, line)
}

func TestWriteJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeJSON(&out, map[string]int{"migrated": 2}))
	assert.Equal(t, "{\n  \"migrated\": 2\n}\n", out.String())
}
