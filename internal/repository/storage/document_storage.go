// Package storage keeps document content in object storage. Spaces only hold
// document metadata; uploads go straight from the client to a presigned URL.
package storage

import (
	"context"
	"path"
	"strings"
	"time"
)

// DocumentStorage defines the object storage operations for document content
type DocumentStorage interface {
	// PresignUpload returns a URL the client can PUT the content to
	PresignUpload(ctx context.Context, objectKey, contentType string, expiry time.Duration) (string, error)
	// PresignGet returns a temporary download URL
	PresignGet(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, objectKey string) error
}

// ObjectKey builds the storage key of a document: spaces/<space>/<document>/<file name>
func ObjectKey(spaceID, documentID, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return path.Join("spaces", spaceID, documentID, name)
}
