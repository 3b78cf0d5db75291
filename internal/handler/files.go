package handler

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kazkleen/crm/internal/backup"
	"github.com/kazkleen/crm/internal/export"
	"github.com/kazkleen/crm/internal/session"
)

func (h *Handler) HandleExportCSV(ctx context.Context, _ session.Session, args []string) error {
	path, err := outputPath(args, 0, export.CSVFileName)
	if err != nil {
		return err
	}
	orders, err := h.orders.List(ctx)
	if err != nil {
		return err
	}
	if err := writeFile(path, func(w io.Writer) error { return export.WriteCSV(w, orders) }); err != nil {
		return err
	}
	h.printf("Exported %d orders to %s\n", len(orders), path)
	return nil
}

func (h *Handler) HandleExportXLSX(ctx context.Context, _ session.Session, args []string) error {
	path, err := outputPath(args, 0, export.XLSXFileName)
	if err != nil {
		return err
	}
	orders, err := h.orders.List(ctx)
	if err != nil {
		return err
	}
	if err := writeFile(path, func(w io.Writer) error { return export.WriteXLSX(w, orders) }); err != nil {
		return err
	}
	h.printf("Exported %d orders to %s\n", len(orders), path)
	return nil
}

func (h *Handler) HandleExportJPG(ctx context.Context, _ session.Session, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	id, err := orderIDArg(args[:1], 1)
	if err != nil {
		return err
	}
	order, err := h.orders.FindByID(ctx, id)
	if err != nil {
		return err
	}
	path, err := outputPath(args, 1, export.OverviewFileName(order))
	if err != nil {
		return err
	}
	if err := writeFile(path, func(w io.Writer) error { return export.WriteOverviewJPEG(w, order) }); err != nil {
		return err
	}
	h.printf("Overview of order #%d written to %s\n", order.ID, path)
	return nil
}

func (h *Handler) HandleImport(ctx context.Context, sess session.Session, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	created, err := export.ImportOrders(ctx, h.orders, f, filepath.Base(args[0]), sess.Username)
	if err != nil {
		if len(created) > 0 {
			h.log.Warn("import stopped part way", zap.Int("created", len(created)), zap.Error(err))
		}
		return err
	}
	h.printf("Imported %d orders from %s\n", len(created), args[0])
	for _, o := range created {
		h.printf("- #%d | %s | %s\n", o.ID, o.Date, o.ClientName)
	}
	return nil
}

func (h *Handler) HandleBackup(ctx context.Context, _ session.Session, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	if err := writeFile(args[0], func(w io.Writer) error { return backup.Write(ctx, h.docs, w) }); err != nil {
		return err
	}
	h.printf("Backup written to %s\n", args[0])
	return nil
}

func (h *Handler) HandleRestore(ctx context.Context, _ session.Session, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	doc, err := backup.Restore(ctx, h.docs, f)
	if err != nil {
		return err
	}
	h.printf("Restored %d orders and %d users from %s\n", len(doc.Orders), len(doc.Users), args[0])
	return nil
}

// outputPath returns args[idx] when present, else def.
func outputPath(args []string, idx int, def string) (string, error) {
	switch {
	case len(args) == idx:
		return def, nil
	case len(args) == idx+1:
		return args[idx], nil
	}
	return "", ErrUsage
}

// writeFile writes through a temporary file so a failed export leaves no
// partial output behind.
func writeFile(path string, fn func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".kazkleen-*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
