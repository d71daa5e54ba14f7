// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package app

// This file contains common table definitions used across multiple commands.

import (
	"fmt"

	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/table"
)

// SummaryTableName is the name of the processor summary table.
const SummaryTableName = "Summary"

// TableDefinitions contains table definitions used across multiple commands.
var TableDefinitions = map[string]table.TableDefinition{
	SummaryTableName: {
		Name:       SummaryTableName,
		HasRows:    false,
		FieldsFunc: SummaryTableValues},
}

// SummaryTableValues returns the field values for the processor summary table.
func SummaryTableValues(info *cpuid.ProcessorInfo) []table.Field {
	sig := info.Signature
	return []table.Field{
		{Name: "CPU Model", Values: []string{info.BrandString}},
		{Name: "Vendor", Values: []string{info.VendorID}},
		{Name: "Microarchitecture", Values: []string{info.MicroArchitecture}},
		{Name: "Family/Model/Stepping", Values: []string{fmt.Sprintf("%d/%d/%d", sig.DisplayFamily, sig.DisplayModel, sig.Stepping)}},
		{Name: "Logical Processors", Values: []string{table.IntOrEmpty(info.ProcessorFeatures.LogicalProcessors)}, Description: "Logical processors per package."},
		{Name: "Cores", Values: []string{table.IntOrEmpty(info.ProcessorFeatures.CoresPerPackage)}, Description: "Physical cores per package."},
		{Name: "Threads per Core", Values: []string{table.IntOrEmpty(info.ProcessorFeatures.ThreadsPerCore)}},
		{Name: "Smallest Cache", Values: []string{table.CacheSizeString(info.SmallestCacheSize())}},
		{Name: "Largest Cache", Values: []string{table.CacheSizeString(info.LargestCacheSize())}},
		{Name: "Address Sizes", Values: []string{addressSizes(info)}},
	}
}

func addressSizes(info *cpuid.ProcessorInfo) string {
	if info.PhysicalAddressBits == 0 && info.LinearAddressBits == 0 {
		return ""
	}
	return fmt.Sprintf("%d bits physical, %d bits virtual", info.PhysicalAddressBits, info.LinearAddressBits)
}
