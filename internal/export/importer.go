package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/kazkleen/crm/internal/storage"
)

const maxXLSRows = 100000

var (
	ErrEmptySheet  = errors.New("worksheet is empty")
	ErrInvalidFile = errors.New("invalid import file")
)

// OrderCreator stores a new order and returns it with its id.
type OrderCreator interface {
	Create(ctx context.Context, order storage.Order) (storage.Order, error)
}

// ReadRows returns the cells of the first sheet of a .xls or .xlsx upload, or
// of a CSV file for any other extension.
func ReadRows(r io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, fmt.Errorf("failed to open xls: %w", err)
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows = workbook.ReadAllCells(maxXLSRows)
	case ".xlsx":
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open xlsx: %w", err)
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows, err = file.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
	default:
		cr := csv.NewReader(bytes.NewReader(data))
		cr.FieldsPerRecord = -1
		rows, err = cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
	}

	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return rows, nil
}

// OrdersFromRows groups consecutive rows sharing date, client and submitter
// into orders. Floors and rooms keep the order in which they first appear.
// Rows without a submitter are attributed to defaultSubmitter.
func OrdersFromRows(rows [][]string, defaultSubmitter string) ([]storage.Order, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	cols, err := headerColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var orders []storage.Order
	for i, row := range rows[1:] {
		line := i + 2
		if blankRow(row) {
			continue
		}

		date, err := normalizeDate(cellValue(row, cols["date"]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		qty, err := strconv.Atoi(cellValue(row, cols["quantity"]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid quantity %q", line, cellValue(row, cols["quantity"]))
		}
		client := cellValue(row, cols["client"])
		submitter := cellValue(row, cols["submitted by"])
		if submitter == "" {
			submitter = defaultSubmitter
		}

		n := len(orders)
		if n == 0 || orders[n-1].Date != date || orders[n-1].ClientName != client || orders[n-1].SubmittedBy != submitter {
			orders = append(orders, storage.Order{ClientName: client, Date: date, SubmittedBy: submitter})
			n++
		}
		storage.AddItem(&orders[n-1],
			cellValue(row, cols["floor"]),
			cellValue(row, cols["room"]),
			storage.ServiceItem{Service: cellValue(row, cols["service"]), Quantity: qty},
		)
	}
	return orders, nil
}

// ImportOrders reads an uploaded file and creates one active order per group.
// Every order is validated before any is stored.
func ImportOrders(ctx context.Context, creator OrderCreator, r io.Reader, filename, defaultSubmitter string) ([]storage.Order, error) {
	rows, err := ReadRows(r, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	orders, err := OrdersFromRows(rows, defaultSubmitter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	for i := range orders {
		orders[i] = storage.NormalizeOrder(orders[i])
		if err := storage.ValidateOrder(orders[i]); err != nil {
			return nil, fmt.Errorf("order %d in %s: %w", i+1, filename, err)
		}
	}

	created := make([]storage.Order, 0, len(orders))
	for _, o := range orders {
		stored, err := creator.Create(ctx, o)
		if err != nil {
			return created, err
		}
		created = append(created, stored)
	}
	return created, nil
}

var requiredColumns = []string{"date", "client", "floor", "room", "service", "quantity"}

func headerColumns(header []string) (map[string]int, error) {
	cols := map[string]int{"submitted by": -1, "status": -1}
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func normalizeDate(value string) (string, error) {
	if _, err := time.Parse(storage.DateLayout, value); err == nil {
		return value, nil
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return parsed.Format(storage.DateLayout), nil
		}
	}
	for _, layout := range []string{"1/2/2006", "01/02/2006", "2006/01/02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format(storage.DateLayout), nil
		}
	}
	return "", fmt.Errorf("invalid date %q", value)
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
