// Package export renders report results as xlsx workbooks.
package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"housing-registry/internal/reports"
)

// WriteWorkbook renders a report result into an xlsx workbook with Detail,
// Groups and Totals sheets. columns fixes the order of the detail columns;
// missing values render as empty cells.
func WriteWorkbook(res reports.Result, columns []string) ([]byte, error) {
	f := excelize.NewFile()
	// Don't defer Close here: WriteTo needs the file open.

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeDetailSheet(f, headerStyle, res.Detail, columns); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeGroupsSheet(f, headerStyle, res.Groups); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeTotalsSheet(f, headerStyle, res.Totals); err != nil {
		f.Close()
		return nil, err
	}

	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeDetailSheet(f *excelize.File, headerStyle int, detail []reports.Row, columns []string) error {
	const sheet = "Detail"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for rowIdx, row := range detail {
		for colIdx, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if v, ok := row[col]; ok && v != nil {
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return fmt.Errorf("failed to write detail cell: %w", err)
				}
			}
		}
	}
	return nil
}

func writeGroupsSheet(f *excelize.File, headerStyle int, groups []reports.GroupRow) error {
	const sheet = "Groups"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	// Union of value names across groups, in stable order.
	nameSet := map[string]bool{}
	for _, g := range groups {
		for name := range g.Values {
			nameSet[name] = true
		}
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := append([]string{"group"}, names...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write groups header: %w", err)
		}
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for rowIdx, g := range groups {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err := f.SetCellValue(sheet, cell, g.Key); err != nil {
			return fmt.Errorf("failed to write group key: %w", err)
		}
		for colIdx, name := range names {
			if v, ok := g.Values[name]; ok {
				cell, _ := excelize.CoordinatesToCellName(colIdx+2, rowIdx+2)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return fmt.Errorf("failed to write group cell: %w", err)
				}
			}
		}
	}
	return nil
}

func writeTotalsSheet(f *excelize.File, headerStyle int, totals map[string]float64) error {
	const sheet = "Totals"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	for i, h := range []string{"metric", "value"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write totals header: %w", err)
		}
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	for rowIdx, name := range names {
		keyCell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		valCell, _ := excelize.CoordinatesToCellName(2, rowIdx+2)
		if err := f.SetCellValue(sheet, keyCell, name); err != nil {
			return fmt.Errorf("failed to write totals metric: %w", err)
		}
		if err := f.SetCellValue(sheet, valCell, totals[name]); err != nil {
			return fmt.Errorf("failed to write totals value: %w", err)
		}
	}
	return nil
}
