package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kazkleen/crm/internal/storage"
)

const CSVFileName = "kazkleen_orders_export.csv"

func WriteCSV(w io.Writer, orders []storage.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range Flatten(orders) {
		if err := cw.Write(row.Strings()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
