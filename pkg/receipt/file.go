package receipt

import (
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"Cooki-Backend/internal/utils/storage"
)

// File is a receipt the client can read. Open acquires access to the
// underlying resource; the caller must close what it returns.
type File interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// LocalFile is a receipt on the local filesystem.
type LocalFile struct {
	Path string
}

func (f LocalFile) Name() string { return filepath.Base(f.Path) }

func (f LocalFile) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// FormFile is a receipt uploaded in a multipart request.
type FormFile struct {
	Header *multipart.FileHeader
}

func (f FormFile) Name() string { return f.Header.Filename }

func (f FormFile) Open(ctx context.Context) (io.ReadCloser, error) {
	return f.Header.Open()
}

// StoredFile is a receipt previously archived in object storage.
type StoredFile struct {
	Key      string
	FileName string
	Store    storage.AwsS3
}

func (f StoredFile) Name() string { return f.FileName }

func (f StoredFile) Open(ctx context.Context) (io.ReadCloser, error) {
	return f.Store.GetObject(ctx, f.Key)
}
