package evidence_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/secure-evidence-api/api/evidence"
)

func multipartRequest(t *testing.T, fields map[string]string, fileName, content string) *http.Request {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile(evidence.FileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/evidence", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func fixedClock() time.Time {
	return time.UnixMilli(1714560000123)
}

func dirEntries(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestReceiver_StoresFileAndFields(t *testing.T) {
	dir := t.TempDir()
	rc := evidence.Receiver{Dir: dir, MaxBytes: 1024, Now: fixedClock}

	req := multipartRequest(t, map[string]string{"caseId": "abc", "description": "CCTV"}, "photo.jpg", "evidence1")
	stored, fields, err := rc.Receive(httptest.NewRecorder(), req)

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "photo.jpg", stored.OriginalName)
	assert.Equal(t, filepath.Join(dir, "1714560000123-photo.jpg"), stored.Path)
	assert.Equal(t, int64(9), stored.Size)
	assert.Equal(t, "application/octet-stream", stored.ContentType)
	assert.Equal(t, map[string]string{"caseId": "abc", "description": "CCTV"}, fields)

	b, err := os.ReadFile(stored.Path)
	require.NoError(t, err)
	assert.Equal(t, "evidence1", string(b))
}

func TestReceiver_NameCollisionGetsSuffix(t *testing.T) {
	dir := t.TempDir()
	rc := evidence.Receiver{Dir: dir, MaxBytes: 1024, Now: fixedClock}

	first, _, err := rc.Receive(httptest.NewRecorder(), multipartRequest(t, nil, "a.txt", "one"))
	require.NoError(t, err)
	second, _, err := rc.Receive(httptest.NewRecorder(), multipartRequest(t, nil, "a.txt", "two"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.Equal(t, filepath.Join(dir, "1714560000123-1-a.txt"), second.Path)
}

func TestReceiver_StripsClientDirectories(t *testing.T) {
	dir := t.TempDir()
	rc := evidence.Receiver{Dir: dir, MaxBytes: 1024, Now: fixedClock}

	stored, _, err := rc.Receive(httptest.NewRecorder(), multipartRequest(t, nil, "../../etc/passwd", "x"))

	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(stored.Path))
}

func TestReceiver_NoFilePart(t *testing.T) {
	rc := evidence.Receiver{Dir: t.TempDir(), MaxBytes: 1024, Now: fixedClock}

	stored, fields, err := rc.Receive(httptest.NewRecorder(), multipartRequest(t, map[string]string{"caseId": "abc"}, "", ""))

	assert.NoError(t, err)
	assert.Nil(t, stored)
	assert.Equal(t, "abc", fields["caseId"])
}

func TestReceiver_TooLargeLeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()
	rc := evidence.Receiver{Dir: dir, MaxBytes: 8, Now: fixedClock}

	_, _, err := rc.Receive(httptest.NewRecorder(), multipartRequest(t, nil, "big.bin", strings.Repeat("x", 64)))

	assert.ErrorIs(t, err, evidence.ErrUploadTooLarge)
	assert.Empty(t, dirEntries(t, dir))
}

func TestReceiver_NotMultipart(t *testing.T) {
	rc := evidence.Receiver{Dir: t.TempDir(), MaxBytes: 8}
	req := httptest.NewRequest(http.MethodPost, "/api/evidence", strings.NewReader(`{"caseId":"abc"}`))
	req.Header.Set("Content-Type", "application/json")

	_, _, err := rc.Receive(httptest.NewRecorder(), req)

	assert.ErrorIs(t, err, evidence.ErrMalformedUpload)
}

func TestStoredFile_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	f := &evidence.StoredFile{Path: path}

	assert.NoError(t, f.Remove())
	assert.NoFileExists(t, path)
	assert.NoError(t, f.Remove())

	var none *evidence.StoredFile
	assert.NoError(t, none.Remove())
}
