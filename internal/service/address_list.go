package service

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

// SplitAddressList splits a comma separated list, trimming entries and
// dropping empty ones. This is the normalization clients apply before
// submitting a custom list.
func SplitAddressList(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseAddressCSV collects every cell that looks like an address, row by
// row and left to right. Header cells and other columns are skipped.
func ParseAddressCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var out []string
	for {
		record, err := reader.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		for _, cell := range record {
			if cell = strings.TrimSpace(cell); IsUsableAddress(cell) {
				out = append(out, cell)
			}
		}
	}
	return out, nil
}
