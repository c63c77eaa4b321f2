package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
)

// Dataset defines tabular export content with an optional summary block
// appended after the table body.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	Summary map[string]string
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	if len(data.Summary) > 0 {
		if err := writer.Write(make([]string, len(data.Headers))); err != nil {
			return nil, fmt.Errorf("write csv separator: %w", err)
		}
		for _, key := range sortedKeys(data.Summary) {
			record := make([]string, len(data.Headers))
			record[0] = key
			if len(record) > 1 {
				record[1] = data.Summary[key]
			} else {
				record[0] = key + "=" + data.Summary[key]
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv summary: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
