package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spektr-org/pengdash/schema"
)

// ============================================================================
// CSV — parses the palmerpenguins CSV layout into []Penguin
// ============================================================================
// Header-driven: columns may come in any order, extra columns are ignored.
// "NA" and empty cells are missing values.
// ============================================================================

var csvColumns = []string{
	schema.Species, schema.Island, schema.BillLengthMM, schema.BillDepthMM,
	schema.FlipperLengthMM, schema.BodyMassG, schema.Sex, schema.Year,
}

// ParseCSV reads penguins from CSV with a header row.
func ParseCSV(r io.Reader) ([]Penguin, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[toSnakeCase(strings.TrimSpace(h))] = i
	}
	for _, col := range csvColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var rows []Penguin
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		cell := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		p := Penguin{
			Species: cell(schema.Species),
			Island:  text(cell(schema.Island)),
			Sex:     text(cell(schema.Sex)),
		}
		if p.BillLengthMM, err = measure(cell(schema.BillLengthMM)); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, schema.BillLengthMM, err)
		}
		if p.BillDepthMM, err = measure(cell(schema.BillDepthMM)); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, schema.BillDepthMM, err)
		}
		if p.FlipperLengthMM, err = measure(cell(schema.FlipperLengthMM)); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, schema.FlipperLengthMM, err)
		}
		if p.BodyMassG, err = measure(cell(schema.BodyMassG)); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, schema.BodyMassG, err)
		}
		if p.Year, err = strconv.Atoi(cell(schema.Year)); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, schema.Year, err)
		}
		rows = append(rows, p)
	}

	return rows, nil
}

func isMissing(s string) bool {
	return s == "" || strings.EqualFold(s, "NA")
}

func text(s string) string {
	if isMissing(s) {
		return ""
	}
	return s
}

func measure(s string) (float64, error) {
	if isMissing(s) {
		return Missing(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// toSnakeCase converts "Column Name" → "column_name".
func toSnakeCase(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
