package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"testing"

	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInfo() *cpuid.ProcessorInfo {
	serialized, unserialized := 40.0, 24.5
	features := cpuid.NewFeatureSet(cpuid.AllFeatureTables()...)
	return &cpuid.ProcessorInfo{
		VendorID:        cpuid.IntelVendorID,
		BrandString:     "Test CPU",
		MaxBasicLeaf:    0x16,
		MaxExtendedLeaf: 0x80000008,
		Features:        features,
		Signature: cpuid.ProcessorSignature{
			Raw: 0x50654, Stepping: 4, Model: 5, Family: 6, ExtendedModel: 5, DisplayFamily: 6, DisplayModel: 85,
		},
		ProcessorFeatures: cpuid.ProcessorFeatures{
			MaxLogicalProcessors: 64,
			LogicalProcessors:    16,
			ThreadsPerCore:       2,
			CoresPerPackage:      8,
			PerfMon:              cpuid.PerfMonFeatures{Version: 4, GPCounters: 4, GPCounterWidth: 48, GPEventVectorLength: 7, FixedCounters: 3, FixedCounterWidth: 48},
		},
		CacheParameters: []cpuid.CacheParameters{
			{Level: 1, Type: cpuid.CacheTypeData, Ways: 8, PhysicalLinePartitions: 1, LineSize: 64, Sets: 64, SizeBytes: 32768, SelfInitializing: true, MaxSharingThreads: 2},
			{Level: 2, Type: cpuid.CacheTypeUnified, Ways: 16, PhysicalLinePartitions: 1, LineSize: 64, Sets: 1024, SizeBytes: 1048576, SelfInitializing: true},
		},
		CacheDescriptors: cpuid.CacheDescriptors{
			TLBd: cpuid.CacheDescriptor{Size: 4096, Ways: 4, EntriesOrLineSize: 64},
		},
		CacheLineSize:           64,
		CacheSizeBytes:          1048576,
		PhysicalAddressBits:     46,
		LinearAddressBits:       48,
		SerializedTSCOverhead:   &serialized,
		UnserializedTSCOverhead: &unserialized,
	}
}

func fieldValues(t *testing.T, tv table.TableValues, name string) []string {
	t.Helper()
	idx, err := table.GetFieldIndex(name, tv)
	require.NoError(t, err)
	return tv.Fields[idx].Values
}

func TestAllTablesValidate(t *testing.T) {
	info := sampleInfo()
	for name, def := range tableDefinitions {
		t.Run(name, func(t *testing.T) {
			tv := table.GetValuesForTable(def, info)
			assert.NotEmpty(t, tv.Fields)
		})
	}
}

func TestProcessorTable(t *testing.T) {
	tv := table.GetValuesForTable(tableDefinitions[ProcessorTableName], sampleInfo())
	assert.Equal(t, []string{"0x50654"}, fieldValues(t, tv, "Signature"))
	assert.Equal(t, []string{"85"}, fieldValues(t, tv, "Display Model"))
	assert.Equal(t, []string{"0x80000008"}, fieldValues(t, tv, "Maximum Extended Leaf"))
	assert.Equal(t, []string{"46"}, fieldValues(t, tv, "Physical Address Bits"))
}

func TestFeaturesTable(t *testing.T) {
	info := sampleInfo()
	tv := table.GetValuesForTable(tableDefinitions[FeaturesTableName], info)
	names := fieldValues(t, tv, "Feature")
	assert.Len(t, names, info.Features.Len())
	assert.IsIncreasing(t, names)
	for _, v := range fieldValues(t, tv, "Supported") {
		assert.Equal(t, "No", v)
	}
}

func TestCacheTable(t *testing.T) {
	tv := table.GetValuesForTable(tableDefinitions[CacheTableName], sampleInfo())
	assert.Equal(t, []string{"L1d", "L2"}, fieldValues(t, tv, "Cache"))
	assert.Equal(t, []string{"32K", "1M"}, fieldValues(t, tv, "Size"))
	assert.Equal(t, []string{"2", ""}, fieldValues(t, tv, "Sharing Threads"))

	empty := table.GetValuesForTable(tableDefinitions[CacheTableName], &cpuid.ProcessorInfo{})
	require.NotEmpty(t, empty.Fields)
	assert.Empty(t, empty.Fields[0].Values)
}

func TestLegacyCacheTable(t *testing.T) {
	tv := table.GetValuesForTable(tableDefinitions[LegacyCacheTableName], sampleInfo())
	assert.Equal(t, []string{"Data TLB", "L2 (leaf 0x80000006)"}, fieldValues(t, tv, "Slot"))
	assert.Equal(t, []string{"4K", "1M"}, fieldValues(t, tv, "Size"))
	assert.Equal(t, []string{"64", "64"}, fieldValues(t, tv, "Entries/Line Size"))
}

func TestPerfmonAndTimingTables(t *testing.T) {
	info := sampleInfo()
	tv := table.GetValuesForTable(tableDefinitions[PerfmonTableName], info)
	assert.Equal(t, []string{"3"}, fieldValues(t, tv, "Fixed Function Counters"))
	tv = table.GetValuesForTable(tableDefinitions[TimingTableName], info)
	assert.Equal(t, []string{"24.5 cycles"}, fieldValues(t, tv, "Unserialized Read Overhead"))

	empty := &cpuid.ProcessorInfo{}
	assert.Empty(t, table.GetValuesForTable(tableDefinitions[PerfmonTableName], empty).Fields)
	assert.Empty(t, table.GetValuesForTable(tableDefinitions[TimingTableName], empty).Fields)
}

func TestSelectedTables(t *testing.T) {
	savedAll, savedCache := flagAll, flagCache
	t.Cleanup(func() { flagAll, flagCache = savedAll, savedCache })

	flagAll = true
	assert.Len(t, selectedTables(), 8)

	flagAll, flagCache = false, true
	tables := selectedTables()
	require.Len(t, tables, 2)
	assert.Equal(t, CacheTableName, tables[0].Name)
	assert.Equal(t, LegacyCacheTableName, tables[1].Name)

	// legacy descriptors are Intel only
	values := table.ProcessTables(tables, &cpuid.ProcessorInfo{VendorID: cpuid.AMDVendorID})
	require.Len(t, values, 1)
	assert.Equal(t, CacheTableName, values[0].Name)
}
