package evidence

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FileField is the multipart field carrying the evidence file
const FileField = "file"

const (
	maxFieldBytes = 64 << 10
	// headroom for the text fields and multipart framing on top of the file limit
	bodyOverhead = 1 << 20
	maxNameTries = 5
)

var (
	// ErrUploadTooLarge is returned when the file exceeds the configured limit
	ErrUploadTooLarge = errors.New("upload exceeds the maximum allowed size")
	// ErrMalformedUpload is returned when the body is not a readable multipart form
	ErrMalformedUpload = errors.New("malformed multipart upload")
)

// StoredFile describes an upload that has been written to local storage
type StoredFile struct {
	OriginalName string
	Path         string
	ContentType  string
	Size         int64
}

// Remove deletes the stored file. A file that is already gone is not an error.
func (f *StoredFile) Remove() error {
	if f == nil || f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Receiver streams multipart evidence uploads to disk
type Receiver struct {
	Dir      string
	MaxBytes int64
	Now      func() time.Time
}

// Receive writes the file part to <Dir>/<unix millis>-<original name> and returns it together
// with the text fields of the form. The returned file is nil when the form had no file part.
// Nothing is left on disk when an error is returned.
func (rc Receiver) Receive(w http.ResponseWriter, r *http.Request) (*StoredFile, map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, rc.MaxBytes+bodyOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedUpload, err)
	}

	fields := make(map[string]string)
	var stored *StoredFile
	fail := func(err error) (*StoredFile, map[string]string, error) {
		if rmErr := stored.Remove(); rmErr != nil {
			zap.S().Errorw("failed to clean up upload", "path", stored.Path, "error", rmErr)
		}
		return nil, nil, err
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(classify(err))
		}

		if part.FileName() == "" {
			b, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
			if err != nil {
				return fail(classify(err))
			}
			if len(b) > maxFieldBytes {
				return fail(fmt.Errorf("%w: field %q is too long", ErrMalformedUpload, part.FormName()))
			}
			fields[part.FormName()] = string(b)
			continue
		}

		if part.FormName() != FileField || stored != nil {
			if _, err := io.Copy(io.Discard, part); err != nil {
				return fail(classify(err))
			}
			continue
		}

		stored, err = rc.store(part.FileName(), part.Header.Get("Content-Type"), part)
		if err != nil {
			return fail(err)
		}
	}
	return stored, fields, nil
}

func (rc Receiver) store(originalName, contentType string, src io.Reader) (*StoredFile, error) {
	if err := os.MkdirAll(rc.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	base := storedBaseName(originalName)
	now := time.Now
	if rc.Now != nil {
		now = rc.Now
	}
	stamp := now().UnixMilli()

	var (
		dst  *os.File
		path string
		err  error
	)
	for i := 0; i < maxNameTries; i++ {
		name := fmt.Sprintf("%d-%s", stamp, base)
		if i > 0 {
			name = fmt.Sprintf("%d-%d-%s", stamp, i, base)
		}
		path = filepath.Join(rc.Dir, name)
		dst, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil || !os.IsExist(err) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}

	stored := &StoredFile{OriginalName: originalName, Path: path, ContentType: contentType}
	if stored.ContentType == "" {
		stored.ContentType = "application/octet-stream"
	}

	written, err := io.Copy(dst, io.LimitReader(src, rc.MaxBytes+1))
	closeErr := dst.Close()
	switch {
	case err != nil:
		_ = stored.Remove()
		return nil, classify(err)
	case written > rc.MaxBytes:
		_ = stored.Remove()
		return nil, ErrUploadTooLarge
	case closeErr != nil:
		_ = stored.Remove()
		return nil, fmt.Errorf("failed to save file: %w", closeErr)
	}
	stored.Size = written
	return stored, nil
}

// storedBaseName keeps only the final path element of a client supplied name
func storedBaseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." || base == "" {
		return "upload"
	}
	return base
}

func classify(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ErrUploadTooLarge
	}
	return fmt.Errorf("%w: %v", ErrMalformedUpload, err)
}
