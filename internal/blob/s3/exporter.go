package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// DefaultPrefix is the key prefix used when none is configured. Exports are
// overwritten in place on every refresh.
const DefaultPrefix = "latest"

// multipartThreshold is the payload size above which uploads switch to the
// multipart manager.
const multipartThreshold = 8 * 1024 * 1024

const (
	contentTypeJSONL = "application/x-ndjson"
	contentTypeJSON  = "application/json"
)

// Exporter implements domain.SnapshotExporter. It writes the flat record
// table as JSONL for downstream tabular display:
//
//	latest/records.jsonl     - every normalized record
//	latest/candidates.jsonl  - candidates, soonest first
//	latest/focus.json        - the focus pair plus snapshot metadata
type Exporter struct {
	writer domain.BlobWriter
	prefix string
}

// NewExporter creates an Exporter writing under prefix. An empty prefix
// selects DefaultPrefix.
func NewExporter(writer domain.BlobWriter, prefix string) *Exporter {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Exporter{writer: writer, prefix: prefix}
}

// focusDocument is the body of focus.json.
type focusDocument struct {
	SnapshotID string           `json:"snapshot_id"`
	FetchedAt  string           `json:"fetched_at"`
	MaxHours   float64          `json:"max_hours"`
	Stats      domain.Stats     `json:"stats"`
	Focus      domain.FocusPair `json:"focus"`
}

// ExportSnapshot uploads the three export objects for snap. It stops at the
// first failed upload.
func (e *Exporter) ExportSnapshot(ctx context.Context, snap domain.Snapshot) error {
	records, err := marshalJSONL(snap.Records)
	if err != nil {
		return fmt.Errorf("s3blob: export records marshal: %w", err)
	}
	if err := e.upload(ctx, "records.jsonl", records, contentTypeJSONL); err != nil {
		return err
	}

	candidates, err := marshalJSONL(snap.Candidates)
	if err != nil {
		return fmt.Errorf("s3blob: export candidates marshal: %w", err)
	}
	if err := e.upload(ctx, "candidates.jsonl", candidates, contentTypeJSONL); err != nil {
		return err
	}

	focus, err := json.Marshal(focusDocument{
		SnapshotID: snap.ID,
		FetchedAt:  snap.FetchedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		MaxHours:   snap.MaxHours,
		Stats:      snap.Stats(),
		Focus:      snap.Focus,
	})
	if err != nil {
		return fmt.Errorf("s3blob: export focus marshal: %w", err)
	}
	return e.upload(ctx, "focus.json", focus, contentTypeJSON)
}

func (e *Exporter) upload(ctx context.Context, name string, data []byte, contentType string) error {
	key := path.Join(e.prefix, name)
	var err error
	if len(data) > multipartThreshold {
		err = e.writer.PutMultipart(ctx, key, bytes.NewReader(data), minPartSize)
	} else {
		err = e.writer.Put(ctx, key, bytes.NewReader(data), contentType)
	}
	if err != nil {
		return fmt.Errorf("s3blob: export %s: %w", key, err)
	}
	return nil
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.SnapshotExporter = (*Exporter)(nil)
