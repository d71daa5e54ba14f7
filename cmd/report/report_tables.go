package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// report_tables.go defines the tables used for generating reports

import (
	"fmt"
	"strconv"

	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/table"
)

const (
	// report table names
	ProcessorTableName   = "Processor"
	FeaturesTableName    = "Features"
	CacheTableName       = "Cache"
	LegacyCacheTableName = "Legacy Cache Descriptors"
	TopologyTableName    = "Topology"
	PerfmonTableName     = "Performance Monitoring"
	TimingTableName      = "Timestamp Counter"
)

var tableDefinitions = map[string]table.TableDefinition{
	ProcessorTableName: {
		Name:       ProcessorTableName,
		HasRows:    false,
		FieldsFunc: processorTableValues},
	FeaturesTableName: {
		Name:       FeaturesTableName,
		HasRows:    true,
		FieldsFunc: featuresTableValues},
	CacheTableName: {
		Name:        CacheTableName,
		HasRows:     true,
		NoDataFound: "No enumerable cache parameters reported.",
		FieldsFunc:  cacheTableValues},
	LegacyCacheTableName: {
		Name:        LegacyCacheTableName,
		Vendors:     []string{cpuid.IntelVendorID},
		HasRows:     true,
		NoDataFound: "No legacy cache descriptors reported.",
		FieldsFunc:  legacyCacheTableValues},
	TopologyTableName: {
		Name:       TopologyTableName,
		HasRows:    false,
		FieldsFunc: topologyTableValues},
	PerfmonTableName: {
		Name:        PerfmonTableName,
		Vendors:     []string{cpuid.IntelVendorID},
		HasRows:     false,
		NoDataFound: "Architectural performance monitoring not reported.",
		FieldsFunc:  perfmonTableValues},
	TimingTableName: {
		Name:        TimingTableName,
		HasRows:     false,
		NoDataFound: "Timestamp counter overhead not measured.",
		FieldsFunc:  timingTableValues},
}

func processorTableValues(info *cpuid.ProcessorInfo) []table.Field {
	sig := info.Signature
	return []table.Field{
		{Name: "Vendor ID", Values: []string{info.VendorID}},
		{Name: "Model Name", Values: []string{info.BrandString}},
		{Name: "Microarchitecture", Values: []string{info.MicroArchitecture}},
		{Name: "Maximum Basic Leaf", Values: []string{table.HexString(info.MaxBasicLeaf)}},
		{Name: "Maximum Extended Leaf", Values: []string{table.HexString(info.MaxExtendedLeaf)}},
		{Name: "Signature", Values: []string{table.HexString(sig.Raw)}, Description: "Leaf 1 EAX."},
		{Name: "Stepping", Values: []string{strconv.FormatUint(uint64(sig.Stepping), 10)}},
		{Name: "Model", Values: []string{strconv.FormatUint(uint64(sig.Model), 10)}},
		{Name: "Family", Values: []string{strconv.FormatUint(uint64(sig.Family), 10)}},
		{Name: "Processor Type", Values: []string{strconv.FormatUint(uint64(sig.ProcessorType), 10)}},
		{Name: "Extended Model", Values: []string{strconv.FormatUint(uint64(sig.ExtendedModel), 10)}},
		{Name: "Extended Family", Values: []string{strconv.FormatUint(uint64(sig.ExtendedFamily), 10)}},
		{Name: "Display Family", Values: []string{strconv.FormatUint(uint64(sig.DisplayFamily), 10)}},
		{Name: "Display Model", Values: []string{strconv.FormatUint(uint64(sig.DisplayModel), 10)}},
		{Name: "Physical Address Bits", Values: []string{table.IntOrEmpty(info.PhysicalAddressBits)}},
		{Name: "Linear Address Bits", Values: []string{table.IntOrEmpty(info.LinearAddressBits)}},
	}
}

// featuresTableValues lists every known feature, present or not, in name order.
func featuresTableValues(info *cpuid.ProcessorInfo) []table.Field {
	fields := []table.Field{
		{Name: "Feature"},
		{Name: "Supported"},
	}
	if info.Features == nil {
		return fields
	}
	for _, name := range info.Features.Names() {
		fields[0].Values = append(fields[0].Values, name)
		fields[1].Values = append(fields[1].Values, table.YesNo(info.Features.Has(name)))
	}
	return fields
}

func cacheTableValues(info *cpuid.ProcessorInfo) []table.Field {
	fields := []table.Field{
		{Name: "Cache"},
		{Name: "Type"},
		{Name: "Size"},
		{Name: "Size (bytes)"},
		{Name: "Ways"},
		{Name: "Line Size"},
		{Name: "Partitions"},
		{Name: "Sets"},
		{Name: "Fully Associative"},
		{Name: "Self Initializing"},
		{Name: "Inclusive"},
		{Name: "Sharing Threads"},
	}
	for _, c := range info.CacheParameters {
		values := []string{
			c.Name(),
			c.Type.String(),
			table.CacheSizeString(c.SizeBytes),
			strconv.Itoa(c.SizeBytes),
			strconv.Itoa(c.Ways),
			strconv.Itoa(c.LineSize),
			strconv.Itoa(c.PhysicalLinePartitions),
			strconv.Itoa(c.Sets),
			table.YesNo(c.FullyAssociative),
			table.YesNo(c.SelfInitializing),
			table.YesNo(c.Inclusive),
			table.IntOrEmpty(c.MaxSharingThreads),
		}
		for i := range fields {
			fields[i].Values = append(fields[i].Values, values[i])
		}
	}
	return fields
}

// legacyCacheTableValues lists the leaf 2 descriptor slots that were filled,
// followed by the leaf 0x80000006 L2 summary when present.
func legacyCacheTableValues(info *cpuid.ProcessorInfo) []table.Field {
	fields := []table.Field{
		{Name: "Slot"},
		{Name: "Size"},
		{Name: "Ways"},
		{Name: "Entries/Line Size"},
		{Name: "Sectored"},
	}
	d := info.CacheDescriptors
	slots := []struct {
		name string
		desc cpuid.CacheDescriptor
	}{
		{"Instruction TLB", d.TLBi},
		{"Data TLB", d.TLBd},
		{"L1i", d.L1i},
		{"L1d", d.L1d},
		{"L2", d.L2},
		{"L3", d.L3},
	}
	for _, slot := range slots {
		if slot.desc == (cpuid.CacheDescriptor{}) {
			continue
		}
		ways := "fully associative"
		if slot.desc.Ways != 0 {
			ways = strconv.Itoa(slot.desc.Ways)
		}
		values := []string{slot.name, table.CacheSizeString(slot.desc.Size), ways, strconv.Itoa(slot.desc.EntriesOrLineSize), table.YesNo(slot.desc.Sectored)}
		for i := range fields {
			fields[i].Values = append(fields[i].Values, values[i])
		}
	}
	if info.CacheSizeBytes != 0 {
		values := []string{"L2 (leaf 0x80000006)", table.CacheSizeString(info.CacheSizeBytes), "", strconv.Itoa(info.CacheLineSize), ""}
		for i := range fields {
			fields[i].Values = append(fields[i].Values, values[i])
		}
	}
	return fields
}

func topologyTableValues(info *cpuid.ProcessorInfo) []table.Field {
	pf := info.ProcessorFeatures
	return []table.Field{
		{Name: "Maximum Logical Processors", Values: []string{table.IntOrEmpty(pf.MaxLogicalProcessors)}, Description: "Addressable logical processor IDs per package, leaf 1 EBX."},
		{Name: "Logical Processors", Values: []string{table.IntOrEmpty(pf.LogicalProcessors)}},
		{Name: "Cores per Package", Values: []string{table.IntOrEmpty(pf.CoresPerPackage)}},
		{Name: "Threads per Core", Values: []string{table.IntOrEmpty(pf.ThreadsPerCore)}},
		{Name: "MONITOR Minimum Line Size", Values: []string{table.IntOrEmpty(pf.Monitor.MinLineSize)}},
		{Name: "MONITOR Maximum Line Size", Values: []string{table.IntOrEmpty(pf.Monitor.MaxLineSize)}},
	}
}

func perfmonTableValues(info *cpuid.ProcessorInfo) []table.Field {
	pm := info.ProcessorFeatures.PerfMon
	if pm.Version == 0 {
		return []table.Field{}
	}
	return []table.Field{
		{Name: "Version", Values: []string{strconv.Itoa(pm.Version)}},
		{Name: "General Purpose Counters", Values: []string{strconv.Itoa(pm.GPCounters)}},
		{Name: "General Purpose Counter Width", Values: []string{strconv.Itoa(pm.GPCounterWidth)}},
		{Name: "Event Vector Length", Values: []string{strconv.Itoa(pm.GPEventVectorLength)}},
		{Name: "Fixed Function Counters", Values: []string{strconv.Itoa(pm.FixedCounters)}},
		{Name: "Fixed Function Counter Width", Values: []string{strconv.Itoa(pm.FixedCounterWidth)}},
	}
}

func timingTableValues(info *cpuid.ProcessorInfo) []table.Field {
	if info.SerializedTSCOverhead == nil || info.UnserializedTSCOverhead == nil {
		return []table.Field{}
	}
	return []table.Field{
		{Name: "Serialized Read Overhead", Values: []string{fmt.Sprintf("%.1f cycles", *info.SerializedTSCOverhead)}},
		{Name: "Unserialized Read Overhead", Values: []string{fmt.Sprintf("%.1f cycles", *info.UnserializedTSCOverhead)}},
	}
}
