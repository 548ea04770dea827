package register

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{"address", "name", "datatype", "description", "writable"}

// ToCSV renders registers as CSV with a header row.
func ToCSV(registers []Register) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range registers {
		record := []string{
			strconv.Itoa(r.Address),
			r.Name,
			r.Datatype,
			r.Description,
			strconv.FormatBool(r.Writable),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

// ToJSON renders registers as an indented {"registers": [...]} document.
func ToJSON(registers []Register) (string, error) {
	if registers == nil {
		registers = []Register{}
	}
	data, err := json.MarshalIndent(map[string][]Register{"registers": registers}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal registers: %w", err)
	}
	return string(data), nil
}

// ToXLSX renders registers as a single-sheet workbook.
func ToXLSX(registers []Register) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Registers"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for col, h := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("set header: %w", err)
		}
	}

	for i, r := range registers {
		row := i + 2
		values := []any{r.Address, r.Name, r.Datatype, r.Description, r.Writable}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("set cell: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
