package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"strconv"
	"strings"

	"cpuprobe/internal/table"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// integers with at least this many digits get thousands separators in text reports
const groupDigitsMin = 5

var textPrinter = message.NewPrinter(language.English)

func createTextReport(allTableValues []table.TableValues) (out []byte, err error) {
	var sb strings.Builder
	for _, tableValues := range allTableValues {
		sb.WriteString(fmt.Sprintf("%s\n", tableValues.Name))
		sb.WriteString(strings.Repeat("=", len(tableValues.Name)))
		sb.WriteString("\n")
		if len(tableValues.Fields) == 0 || len(tableValues.Fields[0].Values) == 0 {
			msg := noDataFound
			if tableValues.NoDataFound != "" {
				msg = tableValues.NoDataFound
			}
			sb.WriteString(msg + "\n\n")
			continue
		}
		// custom renderer defined?
		if tableValues.TextTableRendererFunc != nil {
			sb.WriteString(tableValues.TextTableRendererFunc(tableValues))
		} else {
			sb.WriteString(DefaultTextTableRendererFunc(tableValues))
		}
		sb.WriteString("\n")
	}
	out = []byte(sb.String())
	return
}

// groupDigits adds thousands separators to large decimal integers, other
// values are returned unchanged.
func groupDigits(value string) string {
	digits := strings.TrimPrefix(value, "-")
	if len(digits) < groupDigitsMin {
		return value
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return value
	}
	return textPrinter.Sprintf("%d", n)
}

func localizeTableValues(tableValues table.TableValues) table.TableValues {
	fields := make([]table.Field, len(tableValues.Fields))
	for i, field := range tableValues.Fields {
		fields[i] = table.Field{Name: field.Name, Description: field.Description, Values: make([]string, len(field.Values))}
		for j, val := range field.Values {
			fields[i].Values[j] = groupDigits(val)
		}
	}
	tableValues.Fields = fields
	return tableValues
}

func DefaultTextTableRendererFunc(tableValues table.TableValues) string {
	tableValues = localizeTableValues(tableValues)
	var sb strings.Builder
	if tableValues.HasRows { // print the field names as column headings across the top of the table
		// find the longest item per column -- can be the field name (column header) or a value
		maxFieldLen := make([]int, len(tableValues.Fields))
		for i, field := range tableValues.Fields {
			// the last column shouldn't occupy more space than the value
			if i == len(tableValues.Fields)-1 {
				continue
			}
			maxFieldLen[i] = len(field.Name)
			for _, val := range field.Values {
				if len(val) > maxFieldLen[i] {
					maxFieldLen[i] = len(val)
				}
			}
		}
		columnSpacing := 3
		// print the field names
		for i, field := range tableValues.Fields {
			sb.WriteString(fmt.Sprintf("%-*s", maxFieldLen[i]+columnSpacing, field.Name))
		}
		sb.WriteString("\n")
		// underline the field names
		for i, field := range tableValues.Fields {
			sb.WriteString(fmt.Sprintf("%-*s", maxFieldLen[i]+columnSpacing, strings.Repeat("-", len(field.Name))))
		}
		sb.WriteString("\n")
		// print the rows
		numRows := len(tableValues.Fields[0].Values)
		for row := range numRows {
			for i, field := range tableValues.Fields {
				sb.WriteString(fmt.Sprintf("%-*s", maxFieldLen[i]+columnSpacing, field.Values[row]))
			}
			sb.WriteString("\n")
		}
	} else {
		// get the longest field name to format the table nicely
		maxFieldNameLen := 0
		for _, field := range tableValues.Fields {
			if len(field.Name) > maxFieldNameLen {
				maxFieldNameLen = len(field.Name)
			}
		}
		// print the field names followed by their value
		for _, field := range tableValues.Fields {
			var value string
			if len(field.Values) > 0 {
				value = field.Values[0]
			}
			sb.WriteString(fmt.Sprintf("%s%-*s %s\n", field.Name, maxFieldNameLen-len(field.Name)+1, ":", value))
		}
	}
	return sb.String()
}
