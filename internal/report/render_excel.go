package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"strconv"

	"cpuprobe/internal/table"

	"github.com/xuri/excelize/v2"
)

const XlsxPrimarySheetName = "Report"

func cellName(col int, row int) (name string) {
	columnName, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return
	}
	name, err = excelize.JoinCellName(columnName, row)
	if err != nil {
		return
	}
	return
}

func renderXlsxTable(tableValues table.TableValues, f *excelize.File, sheetName string, row *int) {
	col := 1
	// print the table name
	tableNameStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	})
	_ = f.SetCellValue(sheetName, cellName(col, *row), tableValues.Name)
	_ = f.SetCellStyle(sheetName, cellName(col, *row), cellName(col, *row), tableNameStyle)
	*row++
	if len(tableValues.Fields) == 0 || len(tableValues.Fields[0].Values) == 0 {
		msg := noDataFound
		if tableValues.NoDataFound != "" {
			msg = tableValues.NoDataFound
		}
		_ = f.SetCellValue(sheetName, cellName(col, *row), msg)
		*row += 2
		return
	}
	if tableValues.XlsxTableRendererFunc != nil {
		tableValues.XlsxTableRendererFunc(tableValues, f, sheetName, row)
	} else {
		DefaultXlsxTableRendererFunc(tableValues, f, sheetName, row)
	}
	*row++
}

func DefaultXlsxTableRendererFunc(tableValues table.TableValues, f *excelize.File, sheetName string, row *int) {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	})
	alignLeft, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "left",
		},
	})
	if tableValues.HasRows {
		// print the field names as column headings across the top of the table
		col := 2
		for _, field := range tableValues.Fields {
			_ = f.SetCellValue(sheetName, cellName(col, *row), field.Name)
			_ = f.SetCellStyle(sheetName, cellName(col, *row), cellName(col, *row), headerStyle)
			col++
		}
		*row++
		// print the rows
		tableRows := len(tableValues.Fields[0].Values)
		for tableRow := range tableRows {
			col = 2
			for _, field := range tableValues.Fields {
				_ = f.SetCellValue(sheetName, cellName(col, *row), getValueForCell(field.Values[tableRow]))
				_ = f.SetCellStyle(sheetName, cellName(col, *row), cellName(col, *row), alignLeft)
				col++
			}
			*row++
		}
		return
	}
	// print the field name followed by its value
	for _, field := range tableValues.Fields {
		var fieldValue string
		if len(field.Values) > 0 {
			fieldValue = field.Values[0]
		}
		_ = f.SetCellValue(sheetName, cellName(1, *row), field.Name)
		_ = f.SetCellValue(sheetName, cellName(2, *row), getValueForCell(fieldValue))
		_ = f.SetCellStyle(sheetName, cellName(2, *row), cellName(2, *row), alignLeft)
		*row++
	}
}

func createXlsxReport(allTableValues []table.TableValues) (out []byte, err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close xlsx report: %w", cerr)
		}
	}()
	sheetName := XlsxPrimarySheetName
	_ = f.SetSheetName("Sheet1", sheetName)
	_ = f.SetColWidth(sheetName, "A", "A", 30)
	_ = f.SetColWidth(sheetName, "B", "L", 25)
	row := 1
	for _, tableValues := range allTableValues {
		renderXlsxTable(tableValues, f, sheetName, &row)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		err = fmt.Errorf("failed to write xlsx report to buffer: %w", err)
		return
	}
	out = buf.Bytes()
	return
}

// getValueForCell stores numeric strings as numbers so the spreadsheet can
// compute with them. Hex strings stay text.
func getValueForCell(value string) (val any) {
	intValue, err := strconv.Atoi(value)
	if err == nil {
		val = intValue
		return
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err == nil {
		val = floatValue
		return
	}
	val = value
	return
}
