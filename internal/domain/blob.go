package domain

import (
	"context"
	"io"
)

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// SnapshotExporter publishes a snapshot's tables for downstream display.
type SnapshotExporter interface {
	ExportSnapshot(ctx context.Context, snap Snapshot) error
}
