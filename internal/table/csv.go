package table

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ExportCSV writes the full unfiltered, unsorted backing collection to w:
// a header row built from the column labels, then one row per record in
// backing order. The active filter and sort deliberately do not apply.
func (m *Model[T]) ExportCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	header := make([]string, len(m.columns))
	for i, col := range m.columns {
		header[i] = col.Label
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(m.columns))
	for _, row := range m.rows {
		for i, col := range m.columns {
			record[i] = col.Value(row)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Added   int
	Skipped int
	Errors  []string
}

// ImportCSV reads records from r, skips the header row, maps each remaining
// row positionally onto the configured columns via parse, and appends the
// results to the backing collection. Rows parse rejects are counted and
// reported, not fatal.
func (m *Model[T]) ImportCSV(r io.Reader, parse func(record []string) (T, error)) (ImportResult, error) {
	result := ImportResult{}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return result, nil
		}
		return result, fmt.Errorf("read header: %w", err)
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		row, err := parse(record)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		m.Append(row)
		result.Added++
	}
	return result, nil
}
