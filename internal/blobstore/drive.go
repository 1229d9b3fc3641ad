package blobstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DriveStore uploads blobs into a shared Google Drive folder
type DriveStore struct {
	srv      *drive.Service
	folderID string
}

// NewDriveStore authenticates with a service account JSON file
func NewDriveStore(ctx context.Context, credentialsFile, folderID string) (*DriveStore, error) {
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	return NewDriveStoreWithOptions(ctx, folderID,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveFileScope),
	)
}

// NewDriveStoreWithOptions builds the store from raw client options
func NewDriveStoreWithOptions(ctx context.Context, folderID string, opts ...option.ClientOption) (*DriveStore, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return &DriveStore{srv: srv, folderID: folderID}, nil
}

// Put uploads r and makes it readable by link
func (d *DriveStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	f, err := d.srv.Files.Create(&drive.File{
		Name:     key,
		MimeType: contentType,
		Parents:  []string{d.folderID},
	}).Media(r, googleapi.ContentType(contentType)).
		Fields("id", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive upload: %w", err)
	}

	_, err = d.srv.Permissions.Create(f.Id, &drive.Permission{Type: "anyone", Role: "reader"}).
		Context(ctx).
		Do()
	if err != nil {
		// the file stays private; the janitor removes it since nothing references it
		return "", fmt.Errorf("drive share: %w", err)
	}

	slog.Debug("blob stored", "bucket", Bucket, "key", key, "drive_id", f.Id, "bytes", size)
	return f.WebViewLink, nil
}

// List returns the files in the folder. Keys are Drive file IDs.
func (d *DriveStore) List(ctx context.Context) ([]Object, error) {
	var out []Object
	call := d.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed = false", d.folderID)).
		Fields("nextPageToken", "files(id, name, webViewLink, createdTime)")

	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, f := range page.Files {
			created, _ := time.Parse(time.RFC3339, f.CreatedTime)
			out = append(out, Object{Key: f.Id, URL: f.WebViewLink, ModTime: created})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drive list: %w", err)
	}
	return out, nil
}

// Delete removes a file by Drive ID
func (d *DriveStore) Delete(ctx context.Context, key string) error {
	if err := d.srv.Files.Delete(key).Context(ctx).Do(); err != nil {
		return fmt.Errorf("drive delete: %w", err)
	}
	return nil
}
