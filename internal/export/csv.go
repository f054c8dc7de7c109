// Package export produces the comma-separated snapshot of the record
// collection, the only persisted artifact leaving the system besides the
// remote store itself.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"cuentas/internal/core"
)

// Header is the fixed column layout of the export. It is part of the
// external contract and must not change.
var Header = []string{"Fecha", "Tipo", "Categoria", "Nombre", "Monto", "Metodo"}

// WriteCSV writes the header and one row per record. Free-text fields
// containing commas come out quoted; encoding/csv handles the quoting.
func WriteCSV(w io.Writer, records []core.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date.String(),
			string(r.Kind),
			r.Category,
			r.Subject,
			strconv.FormatInt(r.Amount, 10),
			r.Payment,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename names the download artifact for a given year.
func Filename(year int) string {
	return fmt.Sprintf("REGISTROS_%d.csv", year)
}
