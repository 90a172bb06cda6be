package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// StorageError wraps a failure during folder resolution or upload.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Drive uploads text artifacts into one named folder and returns shareable
// view links.
type Drive struct {
	svc        *drive.Service
	folderName string
}

// NewDrive builds a Drive client from an authorized token source.
// ErrAuthRequired surfaces here when the cached credential is unusable.
func NewDrive(ctx context.Context, auth *Authenticator, folderName string) (*Drive, error) {
	ts, err := auth.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, &StorageError{Op: "connect", Err: err}
	}
	return &Drive{svc: svc, folderName: folderName}, nil
}

// EnsureFolder resolves the destination folder by exact name and type,
// creating it when absent. With duplicates the first match wins; no
// de-duplication is attempted. The ID is looked up fresh on each save, not
// cached across restarts.
func (d *Drive) EnsureFolder(ctx context.Context) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQueryValue(d.folderName), folderMimeType)
	list, err := d.svc.Files.List().Context(ctx).Q(query).Fields("files(id, name)").Do()
	if err != nil {
		return "", &StorageError{Op: "resolve folder", Err: err}
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	created, err := d.svc.Files.Create(&drive.File{
		Name:     d.folderName,
		MimeType: folderMimeType,
	}).Context(ctx).Fields("id").Do()
	if err != nil {
		return "", &StorageError{Op: "create folder", Err: err}
	}
	return created.Id, nil
}

// Save uploads content as a text file named name inside the destination
// folder and returns its shareable view link. The content is staged through
// a transient local file that is removed whether or not the upload succeeds.
func (d *Drive) Save(ctx context.Context, name, content string) (string, error) {
	folderID, err := d.EnsureFolder(ctx)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "insights-upload-*.txt")
	if err != nil {
		return "", &StorageError{Op: "stage file", Err: err}
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.WriteString(content); err != nil {
		return "", &StorageError{Op: "stage file", Err: err}
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", &StorageError{Op: "stage file", Err: err}
	}

	uploaded, err := d.svc.Files.Create(&drive.File{
		Name:    name,
		Parents: []string{folderID},
	}).Context(ctx).Media(tmp).Fields("id, webViewLink").Do()
	if err != nil {
		return "", &StorageError{Op: "upload", Err: err}
	}
	return uploaded.WebViewLink, nil
}

// escapeQueryValue escapes single quotes and backslashes for the provider's
// file query language.
func escapeQueryValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}
