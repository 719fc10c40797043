package memory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"finboard/internal/core"
)

// parseCSV reads a header row followed by date,description,amount[,category]
// records. It is a fixture importer, not the service's statement parser.
func parseCSV(r io.Reader) ([]core.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, err
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "description", "amount"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	var out []core.Transaction
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		field := func(name string) string {
			if i, ok := col[name]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		date, err := core.ParseDate(field("date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		amount, err := core.ParseAmount(field("amount"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t := core.Transaction{Date: date, Description: field("description"), Amount: amount}
		if c := field("category"); c != "" {
			t.Category = &c
		}
		out = append(out, t)
	}
	return out, nil
}
