// Package backup writes the CRM document to an xz-compressed JSON stream and
// restores it.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"

	"github.com/kazkleen/crm/internal/storage"
)

type DocumentStore interface {
	Load(ctx context.Context) (storage.Document, error)
	Save(ctx context.Context, doc storage.Document) error
}

func Write(ctx context.Context, store DocumentStore, w io.Writer) error {
	doc, err := store.Load(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	zw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to start xz stream: %w", err)
	}
	if _, err := zw.Write(raw); err != nil {
		_ = zw.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish backup: %w", err)
	}
	return nil
}

// Restore replaces the stored document with the one in r. Nothing is saved
// unless the backup decodes as a document.
func Restore(ctx context.Context, store DocumentStore, r io.Reader) (storage.Document, error) {
	zr, err := xz.NewReader(r)
	if err != nil {
		return storage.Document{}, fmt.Errorf("failed to open backup: %w", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return storage.Document{}, fmt.Errorf("failed to read backup: %w", err)
	}

	var doc storage.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return storage.Document{}, fmt.Errorf("backup is not a valid document: %w", err)
	}
	if err := store.Save(ctx, doc); err != nil {
		return storage.Document{}, err
	}
	return doc, nil
}
