package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// missingTokens are the cell values read as missing. A lone space is not one of
// them: blank-but-present cells stay text and are left to the cleaning rules.
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
}

func IsMissingToken(s string) bool {
	return missingTokens[s]
}

// ReadCSVFile reads a CSV file with a header row.
func ReadCSVFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	frame, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return frame, nil
}

// ReadCSV parses CSV with a header row and infers each column's kind: a column
// is numeric when every non-missing cell parses as a float.
func ReadCSV(r io.Reader) (*Frame, error) {
	// Exports from spreadsheet tools often carry a UTF-8 BOM.
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, err
	}

	cells := make([][]string, len(header))
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, value := range record {
			cells[i] = append(cells[i], value)
		}
	}

	columns := make([]*Column, len(header))
	for i, name := range header {
		columns[i] = inferColumn(name, cells[i])
	}
	return NewFrame(columns...)
}

func inferColumn(name string, cells []string) *Column {
	numbers := make([]float64, len(cells))
	numeric := true
	for i, cell := range cells {
		if IsMissingToken(cell) {
			numbers[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			numeric = false
			break
		}
		numbers[i] = v
	}
	if numeric {
		return NewNumericColumn(name, numbers)
	}

	texts := make([]string, len(cells))
	nulls := make([]bool, len(cells))
	for i, cell := range cells {
		if IsMissingToken(cell) {
			nulls[i] = true
			continue
		}
		texts[i] = cell
	}
	return NewCategoricalColumn(name, texts, nulls)
}
