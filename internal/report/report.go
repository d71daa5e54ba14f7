// Package report provides functions to generate reports in various formats such as txt, json, xlsx.
package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"strings"

	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/table"
)

const (
	FormatXlsx = "xlsx"
	FormatJson = "json"
	FormatTxt  = "txt"
	FormatAll  = "all"
)

const noDataFound = "No data found."

var FormatOptions = []string{FormatTxt, FormatJson, FormatXlsx}

// Create generates a report in the specified format.
// The json report is the decoded processor record itself; txt and xlsx render
// the table values. The function ensures that all fields in a table have the
// same number of values before generating the report.
// If the format is not supported, the function panics with an error message.
func Create(format string, info *cpuid.ProcessorInfo, allTableValues []table.TableValues) (out []byte, err error) {
	// make sure that all fields have the same number of values
	for _, tableValue := range allTableValues {
		numRows := -1
		for _, fieldValues := range tableValue.Fields {
			if numRows == -1 {
				numRows = len(fieldValues.Values)
				continue
			}
			if len(fieldValues.Values) != numRows {
				return nil, fmt.Errorf("table %s, expected %d value(s) for field, found %d", tableValue.Name, numRows, len(fieldValues.Values))
			}
		}
	}
	switch format {
	case FormatTxt:
		return createTextReport(allTableValues)
	case FormatJson:
		return createJsonReport(info)
	case FormatXlsx:
		return createXlsxReport(allTableValues)
	}
	panic(fmt.Sprintf("expected one of %s, got %s", strings.Join(FormatOptions, ", "), format))
}
