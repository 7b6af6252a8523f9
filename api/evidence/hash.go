package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// HashReader streams r through SHA-256 and returns the lowercase hex digest and the number of
// bytes read. On a read error no digest is returned.
func HashReader(r io.Reader) (sum string, size int64, err error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// HashFile hashes the file stored at path
func HashFile(path string) (sum string, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	return HashReader(f)
}
