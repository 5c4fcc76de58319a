package report

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/highwaype/highwaype/pkg/errors"
)

// utf8BOM lets spreadsheet applications detect UTF-8 device names.
const utf8BOM = "\ufeff"

// WriteCSV writes the location table as UTF-8 CSV with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a location table written by [WriteCSV]. Columns are matched
// by header name, so reordered or extra columns are accepted.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read CSV")
	}
	if len(recs) > 0 && len(recs[0]) > 0 {
		recs[0][0] = strings.TrimPrefix(recs[0][0], utf8BOM)
	}
	return parseRecords(recs)
}
