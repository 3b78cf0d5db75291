package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/kazkleen/crm/internal/aggregate"
	"github.com/kazkleen/crm/internal/storage"
)

const (
	XLSXFileName = "kazkleen_orders_export.xlsx"

	ordersSheet   = "Orders"
	servicesSheet = "Services"
)

// WriteXLSX writes a workbook with the flat order rows and a per-service
// quantity summary.
func WriteXLSX(w io.Writer, orders []storage.Order) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), ordersSheet); err != nil {
		return fmt.Errorf("failed to name orders sheet: %w", err)
	}
	if _, err := f.NewSheet(servicesSheet); err != nil {
		return fmt.Errorf("failed to add services sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := setRow(f, ordersSheet, 1, toCells(Header)); err != nil {
		return err
	}
	for i, row := range Flatten(orders) {
		cells := []interface{}{
			row.Date, row.Client, row.Floor, row.Room, row.Service,
			row.Quantity, string(row.Status), row.SubmittedBy,
		}
		if err := setRow(f, ordersSheet, i+2, cells); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(ordersSheet, "A1", "H1", bold); err != nil {
		return fmt.Errorf("failed to style orders header: %w", err)
	}

	totals := aggregate.ServiceTotals(orders)
	services := make([]string, 0, len(totals))
	for name := range totals {
		services = append(services, name)
	}
	sort.Strings(services)

	if err := setRow(f, servicesSheet, 1, []interface{}{"Service", "Total Quantity"}); err != nil {
		return err
	}
	for i, name := range services {
		if err := setRow(f, servicesSheet, i+2, []interface{}{name, totals[name]}); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(servicesSheet, "A1", "B1", bold); err != nil {
		return fmt.Errorf("failed to style services header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
