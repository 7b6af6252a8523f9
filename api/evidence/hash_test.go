package evidence_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/secure-evidence-api/api/evidence"
)

const evidence1SHA256 = "b025627063c0e16d936da435b5cd0a091c81d3e62d97edc793ef393160f5c321"

func TestHashReader(t *testing.T) {
	sum, size, err := evidence.HashReader(strings.NewReader("evidence1"))
	require.NoError(t, err)
	assert.Equal(t, evidence1SHA256, sum)
	assert.Equal(t, int64(9), size)

	sum, size, err = evidence.HashReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", sum)
	assert.Zero(t, size)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestHashReaderDiscardsPartialDigest(t *testing.T) {
	sum, size, err := evidence.HashReader(failingReader{})
	assert.EqualError(t, err, "disk on fire")
	assert.Empty(t, sum)
	assert.Zero(t, size)
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e.txt")
	require.NoError(t, os.WriteFile(path, []byte("evidence1"), 0o600))

	sum, size, err := evidence.HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, evidence1SHA256, sum)
	assert.Equal(t, int64(9), size)

	_, _, err = evidence.HashFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
