package workflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/terra-clan/symposium-registry/internal/blobstore"
	"github.com/terra-clan/symposium-registry/internal/metrics"
	"github.com/terra-clan/symposium-registry/internal/storage"
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
	"image/heic": true,
}

// Upload is one payment proof file as received from the client
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// proof is an upload that passed local validation and is held in memory
type proof struct {
	contentType string
	extension   string
	data        []byte
}

// checkUpload validates type and size without any network call
func checkUpload(u Upload, maxBytes int64) (*proof, error) {
	if u.Body == nil {
		return nil, &UploadValidationError{Reason: "no file"}
	}
	if u.Size > maxBytes {
		return nil, &UploadValidationError{Reason: fmt.Sprintf("file is larger than %d bytes", maxBytes)}
	}

	if u.ContentType != "" {
		declared, _, err := mime.ParseMediaType(u.ContentType)
		if err != nil || !strings.HasPrefix(declared, "image/") {
			return nil, &UploadValidationError{Reason: "file must be an image"}
		}
	}

	data, err := io.ReadAll(io.LimitReader(u.Body, maxBytes+1))
	if err != nil {
		return nil, &UploadValidationError{Reason: "could not read file"}
	}
	if int64(len(data)) > maxBytes {
		return nil, &UploadValidationError{Reason: fmt.Sprintf("file is larger than %d bytes", maxBytes)}
	}
	if len(data) == 0 {
		return nil, &UploadValidationError{Reason: "file is empty"}
	}

	detected := mimetype.Detect(data)
	sniffed := detected.String()
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	if !allowedImageTypes[sniffed] {
		return nil, &UploadValidationError{Reason: "file must be a PNG, JPEG, WebP, GIF or HEIC image"}
	}

	return &proof{contentType: sniffed, extension: detected.Extension(), data: data}, nil
}

// store uploads a validated proof and returns its public URL
func (c *core) store(ctx context.Context, p *proof) (string, error) {
	key := blobstore.NewKey("proof" + p.extension)
	url, err := c.Blobs.Put(ctx, key, p.contentType, bytes.NewReader(p.data), int64(len(p.data)))
	if err != nil {
		metrics.RecordUpload("failed")
		return "", storage.Remote("upload payment proof", err)
	}
	metrics.RecordUpload("stored")
	return url, nil
}
