package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file contains no rows")
	ErrBadFile           = errors.New("could not parse file")
)

// Parsed is the column/row view of an uploaded file, before any mapping
// is applied.
type Parsed struct {
	Columns []string
	Rows    []map[string]string
	Source  string
}

// Parse dissects an uploaded file into columns and rows. The format is
// chosen by extension: csv and json are parsed here; xlsx, xls and pdf
// are part of the upload contract but need an extraction backend this
// server does not carry.
func Parse(fileName string, data []byte) (*Parsed, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return parseCSV(data)
	case ".json":
		return parseJSON(data)
	case ".xlsx", ".xls", ".pdf":
		return nil, fmt.Errorf("%w: %s requires document extraction", ErrUnsupportedFormat, filepath.Ext(fileName))
	default:
		return nil, ErrUnsupportedFormat
	}
}

func parseCSV(data []byte) (*Parsed, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFile, err)
	}
	if len(records) < 2 {
		return nil, ErrEmptyFile
	}

	columns := make([]string, len(records[0]))
	for i, col := range records[0] {
		columns[i] = strings.TrimSpace(col)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}

	return &Parsed{Columns: columns, Rows: rows, Source: "csv"}, nil
}

func parseJSON(data []byte) (*Parsed, error) {
	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFile, err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptyFile
	}

	// Column order is not preserved by JSON objects; sort for determinism.
	columnSet := make(map[string]struct{})
	for _, obj := range raw {
		for key := range obj {
			columnSet[key] = struct{}{}
		}
	}
	columns := make([]string, 0, len(columnSet))
	for key := range columnSet {
		columns = append(columns, key)
	}
	sort.Strings(columns)

	rows := make([]map[string]string, 0, len(raw))
	for _, obj := range raw {
		row := make(map[string]string, len(columns))
		for _, col := range columns {
			if value, ok := obj[col]; ok && value != nil {
				row[col] = stringify(value)
			}
		}
		rows = append(rows, row)
	}

	return &Parsed{Columns: columns, Rows: rows, Source: "json"}, nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// Avoid scientific notation for whole numbers
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		encoded, _ := json.Marshal(v)
		return string(encoded)
	}
}
